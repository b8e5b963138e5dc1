package entity

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// старые названия статусов из второй версии витрины
var statusAliases = map[string]OrderStatus{
	"approved": StatusProcessing,
	"shipping": StatusShipped,
	"canceled": StatusCancelled,
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// ParseOrderStatus приводит строку к каноническому статусу
func ParseOrderStatus(s string) (OrderStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch st := OrderStatus(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	if st, ok := statusAliases[s]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition проверяет переход по машине состояний заказа
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

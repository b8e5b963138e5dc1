package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const KeyMarquee = "marquee"

const (
	DefaultMarqueeSpeed = 30
	minMarqueeSpeed     = 5
	maxMarqueeSpeed     = 60
)

var (
	ErrInvalidSpeed    = fmt.Errorf("marquee speed must be between %d and %d seconds", minMarqueeSpeed, maxMarqueeSpeed)
	ErrEmptyItem       = errors.New("marquee item must not be empty")
	ErrIndexOutOfRange = errors.New("marquee index out of range")
)

// Marquee - бегущая строка на главной: строки по порядку и время прокрутки в секундах
type Marquee struct {
	Items []string `json:"items"`
	Speed int      `json:"speed"`
}

func DefaultMarquee() Marquee {
	return Marquee{
		Items: []string{
			"🔥 Exclusive deals on chargers: 15% off when you buy 50 or more!",
			"🎧 Wireless earbuds: 20% off on bulk orders!",
			"📱 Protective cases for every model, order now!",
			"🚚 Free delivery on orders over $500!",
		},
		Speed: DefaultMarqueeSpeed,
	}
}

func (m Marquee) Validate() error {
	if m.Speed < minMarqueeSpeed || m.Speed > maxMarqueeSpeed {
		return ErrInvalidSpeed
	}
	for _, it := range m.Items {
		if strings.TrimSpace(it) == "" {
			return ErrEmptyItem
		}
	}
	return nil
}

// Move сдвигает строку на одну позицию вверх (delta -1) или вниз (delta +1).
// На краях списка ничего не меняется
func (m *Marquee) Move(index, delta int) error {
	if index < 0 || index >= len(m.Items) {
		return ErrIndexOutOfRange
	}
	j := index + delta
	if j < 0 || j >= len(m.Items) {
		return nil
	}
	m.Items[index], m.Items[j] = m.Items[j], m.Items[index]
	return nil
}

func (s *Store) Marquee(ctx context.Context) (Marquee, error) {
	return load(ctx, s, GlobalOwner, KeyMarquee, DefaultMarquee())
}

func (s *Store) SaveMarquee(ctx context.Context, m Marquee) (Marquee, error) {
	if m.Items == nil {
		m.Items = []string{}
	}
	if err := m.Validate(); err != nil {
		return Marquee{}, err
	}
	return m, s.Put(ctx, GlobalOwner, KeyMarquee, m)
}

func (s *Store) AddMarqueeItem(ctx context.Context, item string) (Marquee, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return Marquee{}, ErrEmptyItem
	}
	return mutate(ctx, s, GlobalOwner, KeyMarquee, DefaultMarquee(), func(m *Marquee) error {
		m.Items = append(m.Items, item)
		return nil
	})
}

func (s *Store) MoveMarqueeItem(ctx context.Context, index, delta int) (Marquee, error) {
	return mutate(ctx, s, GlobalOwner, KeyMarquee, DefaultMarquee(), func(m *Marquee) error {
		return m.Move(index, delta)
	})
}

func (s *Store) RemoveMarqueeItem(ctx context.Context, index int) (Marquee, error) {
	return mutate(ctx, s, GlobalOwner, KeyMarquee, DefaultMarquee(), func(m *Marquee) error {
		if index < 0 || index >= len(m.Items) {
			return ErrIndexOutOfRange
		}
		m.Items = append(m.Items[:index], m.Items[index+1:]...)
		return nil
	})
}

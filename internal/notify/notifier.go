package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Asus/lattkia_store/internal/broker"
	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/pricing"
	"github.com/Asus/lattkia_store/internal/service"
	"github.com/Asus/lattkia_store/internal/state"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	KeyTelegram = "telegram"
	TestMessage = "Test message from LATTKIA STORE"
)

type sender interface {
	SendMessage(ctx context.Context, token, chatID, text string) error
}

// Notifier хранит настройки бота, переводит события магазина в сообщения Telegram и ведёт ленту
type Notifier struct {
	client   sender
	store    *state.Store
	feed     *Feed
	fallback Settings
	printer  *message.Printer
}

// NewNotifier: token и chatID из конфигурации используются, пока админ не сохранил свои настройки
func NewNotifier(client sender, store *state.Store, feed *Feed, token, chatID string) *Notifier {
	fallback := DefaultSettings()
	fallback.BotToken = token
	fallback.ChatID = chatID
	return &Notifier{
		client:   client,
		store:    store,
		feed:     feed,
		fallback: fallback,
		printer:  message.NewPrinter(language.English),
	}
}

func (n *Notifier) Feed() *Feed {
	return n.feed
}

func (n *Notifier) Settings(ctx context.Context) (Settings, error) {
	s := n.fallback
	err := n.store.Get(ctx, state.GlobalOwner, KeyTelegram, &s)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return Settings{}, err
	}
	return s, nil
}

func (n *Notifier) SaveSettings(ctx context.Context, s Settings) (Settings, error) {
	s.BotToken = strings.TrimSpace(s.BotToken)
	s.ChatID = strings.TrimSpace(s.ChatID)
	if err := s.Validate(); err != nil {
		return Settings{}, service.NewInvalidArgument("%s", err.Error())
	}
	if err := n.store.Put(ctx, state.GlobalOwner, KeyTelegram, s); err != nil {
		return Settings{}, err
	}
	slog.Info("Telegram settings saved", "chat_id", s.ChatID)
	return s, nil
}

func (n *Notifier) configured(ctx context.Context) (Settings, error) {
	s, err := n.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if !s.Configured() {
		return Settings{}, service.NewFailedPrecondition("%s", ErrNotConfigured.Error())
	}
	return s, nil
}

// TestConnection отправляет пробное сообщение с сохранёнными настройками
func (n *Notifier) TestConnection(ctx context.Context) error {
	s, err := n.configured(ctx)
	if err != nil {
		return err
	}
	if err := n.client.SendMessage(ctx, s.BotToken, s.ChatID, TestMessage); err != nil {
		n.feed.Add(LevelError, "Telegram connection failed: "+err.Error())
		return err
	}
	n.feed.Add(LevelSuccess, "Telegram connection succeeded")
	return nil
}

// Send - ручная отправка сообщения из админки
func (n *Notifier) Send(ctx context.Context, text string) error {
	if err := ValidateMessage(text); err != nil {
		return service.NewInvalidArgument("%s", err.Error())
	}
	s, err := n.configured(ctx)
	if err != nil {
		return err
	}
	return n.client.SendMessage(ctx, s.BotToken, s.ChatID, text)
}

func (n *Notifier) amount(o *entity.Order) string {
	f, _ := pricing.Round(o.Total).Float64()
	return n.printer.Sprintf("$%v", number.Decimal(f, number.Scale(2)))
}

// render возвращает текст, уровень для ленты и флаг, разрешена ли отправка в Telegram
func (n *Notifier) render(s Settings, e broker.Event) (string, Level, bool, error) {
	switch e.Type {
	case broker.OrderPlaced:
		if e.Order == nil {
			return "", "", false, errors.New("order.placed without order")
		}
		text := n.printer.Sprintf("%s\nNew order %s: %d item(s), total %s",
			s.Templates.OrderReceived, e.Order.ID, len(e.Order.Items), n.amount(e.Order))
		return text, LevelSuccess, s.Toggles.NewOrders, nil

	case broker.OrderStatusChanged:
		if e.Order == nil {
			return "", "", false, errors.New("order.status_changed without order")
		}
		var text string
		switch e.Order.Status {
		case entity.StatusShipped:
			text = fmt.Sprintf("%s\nOrder %s is on its way", s.Templates.OrderShipped, e.Order.ID)
			if eta := e.Order.ExpectedDeliveryTime; eta != nil {
				text += ", expected " + eta.Format("2006-01-02")
			}
		case entity.StatusDelivered:
			text = fmt.Sprintf("%s\nOrder %s delivered", s.Templates.OrderDelivered, e.Order.ID)
		default:
			text = fmt.Sprintf("Order %s: %s -> %s", e.Order.ID, e.PreviousStatus, e.Order.Status)
		}
		return text, LevelInfo, s.Toggles.OrderUpdates, nil

	case broker.ProductLowStock:
		if e.Product == nil {
			return "", "", false, errors.New("product.low_stock without product")
		}
		text := n.printer.Sprintf("Low stock: %s has %d unit(s) left", e.Product.Name, e.Product.Stock)
		return text, LevelWarning, s.Toggles.LowStock, nil

	case broker.UserRegistered:
		if e.User == nil {
			return "", "", false, errors.New("user.registered without user")
		}
		text := fmt.Sprintf("%s\nNew customer: %s (%s)", s.Templates.Welcome, e.User.Name, e.User.Email)
		return text, LevelInfo, s.Toggles.NewUsers, nil
	}
	return "", "", false, fmt.Errorf("unknown event type %q", e.Type)
}

// Handle - обработчик событий для Consumer и broker.Direct
func (n *Notifier) Handle(ctx context.Context, e broker.Event) error {
	s, err := n.Settings(ctx)
	if err != nil {
		return err
	}
	text, level, enabled, err := n.render(s, e)
	if err != nil {
		return err
	}
	n.feed.Add(level, text)

	if !enabled || !s.Configured() {
		return nil
	}
	if err := n.client.SendMessage(ctx, s.BotToken, s.ChatID, text); err != nil {
		n.feed.Add(LevelError, "Telegram delivery failed: "+err.Error())
		return fmt.Errorf("failed to notify %s: %w", e.Type, err)
	}
	slog.Info("Telegram notification sent", "type", e.Type, "key", e.Key())
	return nil
}

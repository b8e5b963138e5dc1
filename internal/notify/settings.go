package notify

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	botTokenRe = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)
	chatIDRe   = regexp.MustCompile(`^-?\d+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("tgtoken", func(fl validator.FieldLevel) bool {
		return botTokenRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("tgchat", func(fl validator.FieldLevel) bool {
		return chatIDRe.MatchString(fl.Field().String())
	})
	return v
}

var ErrNotConfigured = errors.New("telegram bot is not configured")

type Toggles struct {
	NewOrders    bool `json:"newOrders"`
	LowStock     bool `json:"lowStock"`
	NewUsers     bool `json:"newUsers"`
	OrderUpdates bool `json:"orderUpdates"`
}

type Templates struct {
	Welcome        string `json:"welcome" validate:"required,max=1000"`
	OrderReceived  string `json:"orderReceived" validate:"required,max=1000"`
	OrderShipped   string `json:"orderShipped" validate:"required,max=1000"`
	OrderDelivered string `json:"orderDelivered" validate:"required,max=1000"`
}

type Settings struct {
	BotToken  string    `json:"botToken" validate:"required,tgtoken"`
	ChatID    string    `json:"chatId" validate:"required,tgchat"`
	Toggles   Toggles   `json:"notifications"`
	Templates Templates `json:"messages"`
}

func DefaultSettings() Settings {
	return Settings{
		Toggles: Toggles{NewOrders: true, LowStock: true, NewUsers: true, OrderUpdates: true},
		Templates: Templates{
			Welcome:        "Welcome to LATTKIA store!",
			OrderReceived:  "Your order has been received!",
			OrderShipped:   "Your order has been shipped!",
			OrderDelivered: "Your order has been delivered!",
		},
	}
}

func (s Settings) Configured() bool {
	return s.BotToken != "" && s.ChatID != ""
}

// Validate собирает все ошибки полей в одно сообщение
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "tgtoken":
			msgs = append(msgs, "invalid bot token")
		case "tgchat":
			msgs = append(msgs, "invalid chat id")
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ValidateMessage - ручное сообщение из админки: от 1 до 1000 символов
func ValidateMessage(text string) error {
	n := len([]rune(strings.TrimSpace(text)))
	if n == 0 {
		return errors.New("message is required")
	}
	if len([]rune(text)) > 1000 {
		return errors.New("message is too long")
	}
	return nil
}

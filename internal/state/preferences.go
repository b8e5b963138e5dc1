package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	// база часовых поясов нужна и в контейнерах без /usr/share/zoneinfo
	_ "time/tzdata"

	"golang.org/x/text/language"
)

const (
	KeyTheme    = "theme"
	KeyLanguage = "language"
	KeySettings = "settings"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var (
	ErrInvalidTheme    = errors.New("theme must be light, dark or system")
	ErrInvalidLanguage = errors.New("unsupported language")
	ErrInvalidTimezone = errors.New("unknown timezone")
	ErrInvalidCurrency = errors.New("currency must be a three-letter code")
	ErrEmptyDateFormat = errors.New("date format is required")
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// SupportedLanguages - витрина переведена на английский и арабский
var SupportedLanguages = []language.Tag{language.English, language.Arabic}

var languageMatcher = language.NewMatcher(SupportedLanguages)

// MatchLanguage приводит BCP-47 тег к одному из поддерживаемых языков
func MatchLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", ErrInvalidLanguage, s)
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return language.Und, fmt.Errorf("%w: %q", ErrInvalidLanguage, s)
	}
	return SupportedLanguages[idx], nil
}

func (s *Store) Theme(ctx context.Context, owner string) (Theme, error) {
	return load(ctx, s, owner, KeyTheme, ThemeLight)
}

func (s *Store) SetTheme(ctx context.Context, owner, value string) (Theme, error) {
	t, err := ParseTheme(value)
	if err != nil {
		return "", err
	}
	return t, s.Put(ctx, owner, KeyTheme, t)
}

func (s *Store) Language(ctx context.Context, owner string) (string, error) {
	return load(ctx, s, owner, KeyLanguage, language.English.String())
}

func (s *Store) SetLanguage(ctx context.Context, owner, value string) (string, error) {
	tag, err := MatchLanguage(value)
	if err != nil {
		return "", err
	}
	return tag.String(), s.Put(ctx, owner, KeyLanguage, tag.String())
}

type NotificationChannels struct {
	Email    bool `json:"email"`
	SMS      bool `json:"sms"`
	Telegram bool `json:"telegram"`
}

type Settings struct {
	Currency      string               `json:"currency"`
	Timezone      string               `json:"timezone"`
	DateFormat    string               `json:"dateFormat"`
	Notifications NotificationChannels `json:"notifications"`
}

func DefaultSettings() Settings {
	return Settings{
		Currency:      "USD",
		Timezone:      "UTC",
		DateFormat:    "YYYY-MM-DD",
		Notifications: NotificationChannels{Email: true},
	}
}

func (st Settings) Validate() error {
	if len(st.Currency) != 3 || strings.ToUpper(st.Currency) != st.Currency {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, st.Currency)
	}
	if _, err := time.LoadLocation(st.Timezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, st.Timezone)
	}
	if strings.TrimSpace(st.DateFormat) == "" {
		return ErrEmptyDateFormat
	}
	return nil
}

// Location отдаёт часовой пояс настроек, UTC если пояс не разобрать
func (st Settings) Location() *time.Location {
	loc, err := time.LoadLocation(st.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *Store) Settings(ctx context.Context, owner string) (Settings, error) {
	return load(ctx, s, owner, KeySettings, DefaultSettings())
}

func (s *Store) SaveSettings(ctx context.Context, owner string, st Settings) (Settings, error) {
	if err := st.Validate(); err != nil {
		return Settings{}, err
	}
	return st, s.Put(ctx, owner, KeySettings, st)
}

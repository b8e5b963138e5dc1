package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownKey = errors.New("unknown state key")

// ClientValue отдаёт срез клиента, подставляя значение по умолчанию
func (s *Store) ClientValue(ctx context.Context, owner, key string) (any, error) {
	switch key {
	case KeyCart:
		return s.Cart(ctx, owner)
	case KeyWishlist:
		return s.Wishlist(ctx, owner)
	case KeyTheme:
		return s.Theme(ctx, owner)
	case KeyLanguage:
		return s.Language(ctx, owner)
	case KeySettings:
		return s.Settings(ctx, owner)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// PutClientValue декодирует и проверяет срез перед сохранением
func (s *Store) PutClientValue(ctx context.Context, owner, key string, raw json.RawMessage) (any, error) {
	switch key {
	case KeyCart:
		var c Cart
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("invalid cart: %w", err)
		}
		if c.Items == nil {
			c.Items = []CartItem{}
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, s.Put(ctx, owner, key, c)
	case KeyWishlist:
		var w Wishlist
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("invalid wishlist: %w", err)
		}
		deduped := Wishlist{Items: []WishlistItem{}}
		for _, it := range w.Items {
			if !deduped.Contains(it.ProductID) {
				deduped.Items = append(deduped.Items, it)
			}
		}
		return deduped, s.Put(ctx, owner, key, deduped)
	case KeyTheme, KeyLanguage:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		if key == KeyTheme {
			return s.SetTheme(ctx, owner, v)
		}
		return s.SetLanguage(ctx, owner, v)
	case KeySettings:
		// частичное обновление поверх текущих настроек
		st, err := s.Settings(ctx, owner)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, fmt.Errorf("invalid settings: %w", err)
		}
		return s.SaveSettings(ctx, owner, st)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

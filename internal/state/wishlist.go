package state

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
)

const KeyWishlist = "wishlist"

type WishlistItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

type Wishlist struct {
	Items []WishlistItem `json:"items"`
}

func (w Wishlist) Contains(productID string) bool {
	return slices.ContainsFunc(w.Items, func(it WishlistItem) bool { return it.ProductID == productID })
}

func (s *Store) Wishlist(ctx context.Context, owner string) (Wishlist, error) {
	return load(ctx, s, owner, KeyWishlist, Wishlist{Items: []WishlistItem{}})
}

// AddToWishlist не добавляет товар повторно
func (s *Store) AddToWishlist(ctx context.Context, owner string, item WishlistItem) (Wishlist, error) {
	return mutate(ctx, s, owner, KeyWishlist, Wishlist{Items: []WishlistItem{}}, func(w *Wishlist) error {
		if !w.Contains(item.ProductID) {
			w.Items = append(w.Items, item)
		}
		return nil
	})
}

func (s *Store) RemoveFromWishlist(ctx context.Context, owner, productID string) (Wishlist, error) {
	return mutate(ctx, s, owner, KeyWishlist, Wishlist{Items: []WishlistItem{}}, func(w *Wishlist) error {
		w.Items = slices.DeleteFunc(w.Items, func(it WishlistItem) bool { return it.ProductID == productID })
		return nil
	})
}

func (s *Store) ClearWishlist(ctx context.Context, owner string) error {
	return s.Put(ctx, owner, KeyWishlist, Wishlist{Items: []WishlistItem{}})
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/pricing"
	"github.com/Asus/lattkia_store/internal/service"
	"github.com/Asus/lattkia_store/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type cartView struct {
	Items []state.CartItem `json:"items"`
	Count int              `json:"count"`
	Total decimal.Decimal  `json:"total"`
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type wishlistRequest struct {
	ProductID string `json:"productId"`
}

func writeCart(w http.ResponseWriter, c state.Cart) {
	total, err := c.Total()
	if err != nil {
		writeError(w, err)
		return
	}
	items := c.Items
	if items == nil {
		items = []state.CartItem{}
	}
	writeJSON(w, http.StatusOK, cartView{Items: items, Count: c.Count(), Total: pricing.Round(total)})
}

func (s *Server) handleGetState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.State.ClientValue(r.Context(), ownerOf(r.Context()), chi.URLParam(r, "key"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handlePutState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if err := decode(r, &raw); err != nil {
			writeError(w, err)
			return
		}
		v, err := s.State.PutClientValue(r.Context(), ownerOf(r.Context()), chi.URLParam(r, "key"), raw)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handleCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.State.Cart(r.Context(), ownerOf(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeCart(w, c)
	}
}

// snapshot берёт из каталога имя, цену и ступени скидок товара на момент добавления
func (s *Server) snapshot(r *http.Request, productID string) (entity.Product, []pricing.Tier, error) {
	p, err := s.Catalog.Product(r.Context(), productID)
	if err != nil {
		return entity.Product{}, nil, err
	}
	tiers, err := pricing.NewTiers(p.Discounts)
	if err != nil {
		return entity.Product{}, nil, err
	}
	return p, tiers, nil
}

func (s *Server) handleAddToCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartItemRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Quantity <= 0 {
			writeError(w, service.NewInvalidArgument("%s", pricing.ErrInvalidQuantity.Error()))
			return
		}
		p, tiers, err := s.snapshot(r, req.ProductID)
		if err != nil {
			writeError(w, err)
			return
		}
		c, err := s.State.AddToCart(r.Context(), ownerOf(r.Context()), state.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  req.Quantity,
			Image:     p.Image,
			Discounts: tiers,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeCart(w, c)
	}
}

func (s *Server) handleUpdateCartItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quantityRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		c, err := s.State.UpdateCartQuantity(r.Context(), ownerOf(r.Context()), chi.URLParam(r, "productID"), req.Quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeCart(w, c)
	}
}

func (s *Server) handleRemoveFromCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.State.RemoveFromCart(r.Context(), ownerOf(r.Context()), chi.URLParam(r, "productID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeCart(w, c)
	}
}

func (s *Server) handleClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.State.ClearCart(r.Context(), ownerOf(r.Context())); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleWishlist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wl, err := s.State.Wishlist(r.Context(), ownerOf(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wl)
	}
}

func (s *Server) handleAddToWishlist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wishlistRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		p, err := s.Catalog.Product(r.Context(), req.ProductID)
		if err != nil {
			writeError(w, err)
			return
		}
		wl, err := s.State.AddToWishlist(r.Context(), ownerOf(r.Context()), state.WishlistItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wl)
	}
}

func (s *Server) handleRemoveFromWishlist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wl, err := s.State.RemoveFromWishlist(r.Context(), ownerOf(r.Context()), chi.URLParam(r, "productID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wl)
	}
}

package server

import (
	"log/slog"
	"net/http"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/pricing"
	"github.com/Asus/lattkia_store/internal/service"

	"github.com/go-chi/chi/v5"
)

type placeOrderRequest struct {
	Items    []service.LineRequest `json:"items"`
	FromCart bool                  `json:"fromCart"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// orderView - заказ для ответа: цены и итог округлены до центов, в хранилище они остаются точными
func orderView(o entity.Order) entity.Order {
	v := o.Clone()
	v.Total = pricing.Round(v.Total)
	for i := range v.Items {
		v.Items[i].Price = pricing.Round(v.Items[i].Price)
	}
	return v
}

func ordersView(orders []entity.Order) []entity.Order {
	out := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView(o))
	}
	return out
}

// handleOrders: админ видит все заказы, покупатель только свои
func (s *Server) handleOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := currentUser(r.Context())
		var (
			orders []entity.Order
			err    error
		)
		if user.Role == entity.RoleAdmin {
			orders, err = s.Orders.List(r.Context())
		} else {
			orders, err = s.Orders.ListByUser(r.Context(), user.ID)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ordersView(orders))
	}
}

func (s *Server) handleOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := currentUser(r.Context())
		o, err := s.Orders.GetFor(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderView(o))
	}
}

// handlePlaceOrder оформляет заказ из тела запроса или из корзины пользователя
func (s *Server) handlePlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := currentUser(r.Context())
		var req placeOrderRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}

		lines := req.Items
		if req.FromCart {
			cart, err := s.State.Cart(r.Context(), userOwner(user))
			if err != nil {
				writeError(w, err)
				return
			}
			lines = lines[:0]
			for _, it := range cart.Items {
				lines = append(lines, service.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
			}
		}

		order, err := s.Orders.Place(r.Context(), user.ID, lines)
		if err != nil {
			writeError(w, err)
			return
		}
		if req.FromCart {
			// заказ уже создан, поэтому ошибка очистки корзины только логируется
			if err := s.State.ClearCart(r.Context(), userOwner(user)); err != nil {
				slog.Error("failed to clear cart", "user_id", user.ID, "error", err)
			}
		}
		writeJSON(w, http.StatusCreated, orderView(order))
	}
}

func (s *Server) handleUpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		o, err := s.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderView(o))
	}
}

func (s *Server) handleDeleteOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

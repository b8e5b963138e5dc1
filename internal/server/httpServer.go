package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Asus/lattkia_store/internal/notify"
	"github.com/Asus/lattkia_store/internal/service"
	"github.com/Asus/lattkia_store/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps - сервисы, которые нужны хендлерам
type Deps struct {
	Catalog   *service.Catalog
	Orders    *service.Orders
	Users     *service.Users
	Analytics *service.Analytics
	State     *state.Store
	Notifier  *notify.Notifier
}

type Server struct {
	router chi.Router
	server *http.Server
	Deps
}

func NewServer(addr string, deps Deps) *Server {
	srv := &Server{
		router: chi.NewRouter(),
		Deps:   deps,
	}
	srv.server = &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.routes()
	return srv
}

// Start запускает сервер и блокируется до Shutdown
func (s *Server) Start() error {
	slog.Info("server starting", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes заполняет маршрутизатор хендлерами
func (s *Server) routes() {
	s.router.Use(middleware.RequestID, logRequests, middleware.Recoverer)

	s.router.Get("/", s.handleHomePage())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/auth/login", s.handleLogin())
		r.Post("/auth/logout", s.handleLogout())
		r.Post("/users", s.handleRegister())

		r.Get("/categories", s.handleCategories())
		r.Get("/categories/{id}", s.handleCategory())
		r.Get("/categories/{id}/subcategories", s.handleCategorySubcategories())
		r.Get("/categories/{id}/products", s.handleCategoryProducts())
		r.Get("/subcategories", s.handleSubcategories())
		r.Get("/subcategories/{id}", s.handleSubcategory())
		r.Get("/subcategories/{id}/products", s.handleSubcategoryProducts())
		r.Get("/products", s.handleProducts())
		r.Get("/products/{id}", s.handleProduct())
		r.Get("/products/{id}/quote", s.handleQuote())
		r.Get("/marquee", s.handleMarquee())

		r.Group(func(r chi.Router) {
			r.Use(requireOwner)
			r.Get("/state/{key}", s.handleGetState())
			r.Put("/state/{key}", s.handlePutState())
			r.Get("/cart", s.handleCart())
			r.Post("/cart/items", s.handleAddToCart())
			r.Patch("/cart/items/{productID}", s.handleUpdateCartItem())
			r.Delete("/cart/items/{productID}", s.handleRemoveFromCart())
			r.Delete("/cart", s.handleClearCart())
			r.Get("/wishlist", s.handleWishlist())
			r.Post("/wishlist", s.handleAddToWishlist())
			r.Delete("/wishlist/{productID}", s.handleRemoveFromWishlist())
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/orders", s.handleOrders())
			r.Get("/orders/{id}", s.handleOrder())
			r.Post("/orders", s.handlePlaceOrder())

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Patch("/orders/{id}", s.handleUpdateOrderStatus())
				r.Delete("/orders/{id}", s.handleDeleteOrder())
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireUser, requireAdmin)

			r.Post("/categories", s.handleCreateCategory())
			r.Put("/categories/{id}", s.handleUpdateCategory())
			r.Delete("/categories/{id}", s.handleDeleteCategory())
			r.Post("/subcategories", s.handleCreateSubcategory())
			r.Put("/subcategories/{id}", s.handleUpdateSubcategory())
			r.Delete("/subcategories/{id}", s.handleDeleteSubcategory())
			r.Post("/products", s.handleCreateProduct())
			r.Put("/products/{id}", s.handleUpdateProduct())
			r.Delete("/products/{id}", s.handleDeleteProduct())

			r.Get("/users", s.handleUsers())

			r.Get("/dashboard", s.handleDashboard())
			r.Get("/dashboard/export.xlsx", s.handleExport())
			r.Get("/dashboard/charts/{kind}", s.handleChart())

			r.Get("/telegram", s.handleTelegramSettings())
			r.Put("/telegram", s.handleSaveTelegramSettings())
			r.Post("/telegram/test", s.handleTelegramTest())
			r.Post("/telegram/send", s.handleTelegramSend())

			r.Get("/notifications", s.handleNotifications())
			r.Delete("/notifications", s.handleClearNotifications())
			r.Delete("/notifications/{id}", s.handleRemoveNotification())

			r.Put("/marquee", s.handleSaveMarquee())
			r.Post("/marquee/items", s.handleAddMarqueeItem())
			r.Post("/marquee/items/{index}/move", s.handleMoveMarqueeItem())
			r.Delete("/marquee/items/{index}", s.handleRemoveMarqueeItem())

			r.Get("/settings", s.handleStoreSettings())
			r.Put("/settings", s.handleSaveStoreSettings())
		})
	})
}

package server

import (
	"net/http"
	"strconv"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/service"

	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		session, err := s.Users.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (s *Server) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, ok := r.Context().Value(tokenKey).(string); ok {
			s.Users.Logout(token)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.Registration
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		user, err := s.Users.Register(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func (s *Server) handleUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := s.Users.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// --- чтение каталога ---

func (s *Server) handleCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := s.Catalog.Categories(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func (s *Server) handleCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := s.Catalog.Category(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cat)
	}
}

func (s *Server) handleCategorySubcategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.Catalog.SubcategoriesOf(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func (s *Server) handleCategoryProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeProducts(w, r, service.ProductFilter{CategoryID: chi.URLParam(r, "id")})
	}
}

func (s *Server) handleSubcategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.Catalog.Subcategories(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func (s *Server) handleSubcategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.Catalog.Subcategory(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func (s *Server) handleSubcategoryProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeProducts(w, r, service.ProductFilter{Subcategory: chi.URLParam(r, "id")})
	}
}

// handleProducts: ?q= поиск, ?featured=true, ?category=, ?subcategory=
func (s *Server) handleProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		featured, _ := strconv.ParseBool(q.Get("featured"))
		s.writeProducts(w, r, service.ProductFilter{
			Query:       q.Get("q"),
			Featured:    featured,
			CategoryID:  q.Get("category"),
			Subcategory: q.Get("subcategory"),
		})
	}
}

func (s *Server) writeProducts(w http.ResponseWriter, r *http.Request, f service.ProductFilter) {
	products, err := s.Catalog.Products(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Catalog.Product(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) handleQuote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quantity := 1
		if raw := r.URL.Query().Get("quantity"); raw != "" {
			n, err := intParam(raw, "quantity")
			if err != nil {
				writeError(w, err)
				return
			}
			quantity = n
		}
		q, err := s.Catalog.Quote(r.Context(), chi.URLParam(r, "id"), quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// --- админка каталога ---

func (s *Server) handleCreateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cat entity.Category
		if err := decode(r, &cat); err != nil {
			writeError(w, err)
			return
		}
		created, err := s.Catalog.CreateCategory(r.Context(), cat)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) handleUpdateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cat entity.Category
		if err := decode(r, &cat); err != nil {
			writeError(w, err)
			return
		}
		cat.ID = chi.URLParam(r, "id")
		updated, err := s.Catalog.UpdateCategory(r.Context(), cat)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleDeleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleCreateSubcategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub entity.Subcategory
		if err := decode(r, &sub); err != nil {
			writeError(w, err)
			return
		}
		created, err := s.Catalog.CreateSubcategory(r.Context(), sub)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) handleUpdateSubcategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub entity.Subcategory
		if err := decode(r, &sub); err != nil {
			writeError(w, err)
			return
		}
		sub.ID = chi.URLParam(r, "id")
		updated, err := s.Catalog.UpdateSubcategory(r.Context(), sub)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleDeleteSubcategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Catalog.DeleteSubcategory(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleCreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p entity.Product
		if err := decode(r, &p); err != nil {
			writeError(w, err)
			return
		}
		created, err := s.Catalog.CreateProduct(r.Context(), p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// productUpdateRequest: stock необязателен, без него остаток не меняется
type productUpdateRequest struct {
	entity.Product
	Stock *int `json:"stock"`
}

func (s *Server) handleUpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productUpdateRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		p := req.Product
		p.ID = chi.URLParam(r, "id")
		updated, err := s.Catalog.UpdateProduct(r.Context(), p, req.Stock)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleDeleteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package server

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/state"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type homePage struct {
	Featured []entity.Product
	Marquee  state.Marquee
}

// handleHomePage рендерит витрину: избранные товары и бегущая строка
func (s *Server) handleHomePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		featured, err := s.Catalog.Featured(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		marquee, err := s.State.Marquee(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, "homePage.html", homePage{Featured: featured, Marquee: marquee}); err != nil {
			slog.Error("failed to render home page", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}

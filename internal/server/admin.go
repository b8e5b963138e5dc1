package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/notify"
	"github.com/Asus/lattkia_store/internal/report"
	"github.com/Asus/lattkia_store/internal/service"
	"github.com/Asus/lattkia_store/internal/state"

	"github.com/go-chi/chi/v5"
)

type sendRequest struct {
	Message string `json:"message"`
}

type marqueeItemRequest struct {
	Item string `json:"item"`
}

type moveRequest struct {
	// -1 вверх, +1 вниз
	Delta int `json:"delta"`
}

func (s *Server) dashboard(r *http.Request) (service.Dashboard, error) {
	rng, err := service.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		return service.Dashboard{}, err
	}
	return s.Analytics.Dashboard(r.Context(), rng)
}

func (s *Server) handleDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dash, err := s.dashboard(r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

// handleExport отдаёт xlsx со сводкой и заказами за тот же период
func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dash, err := s.dashboard(r)
		if err != nil {
			writeError(w, err)
			return
		}
		all, err := s.Orders.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		orders := make([]entity.Order, 0, len(all))
		for _, o := range all {
			if dash.From == nil || !o.CreatedAt.Before(*dash.From) {
				orders = append(orders, o)
			}
		}

		var buf bytes.Buffer
		if err := report.WriteWorkbook(&buf, dash, orders); err != nil {
			writeError(w, err)
			return
		}
		attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			fmt.Sprintf("dashboard-%s.xlsx", dash.Range))
		_, _ = w.Write(buf.Bytes())
	}
}

func (s *Server) handleChart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dash, err := s.dashboard(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := report.RenderChart(&buf, report.ChartKind(chi.URLParam(r, "kind")), dash); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}

// --- telegram ---

func (s *Server) handleTelegramSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.Notifier.Settings(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func (s *Server) handleSaveTelegramSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings notify.Settings
		if err := decode(r, &settings); err != nil {
			writeError(w, err)
			return
		}
		saved, err := s.Notifier.SaveSettings(r.Context(), settings)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func (s *Server) handleTelegramTest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Notifier.TestConnection(r.Context()); err != nil {
			writeTelegramError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (s *Server) handleTelegramSend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := s.Notifier.Send(r.Context(), req.Message); err != nil {
			writeTelegramError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// writeTelegramError: отказ Bot API показываем админу как 502 с описанием от Telegram
func writeTelegramError(w http.ResponseWriter, err error) {
	if statusOf(err) != http.StatusInternalServerError {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
}

// --- лента уведомлений ---

func (s *Server) handleNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Notifier.Feed().List())
	}
}

func (s *Server) handleClearNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Notifier.Feed().Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRemoveNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.Notifier.Feed().Remove(chi.URLParam(r, "id")) {
			writeError(w, service.NewNotFound("notification not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- бегущая строка ---

func (s *Server) handleMarquee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.State.Marquee(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) handleSaveMarquee() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m state.Marquee
		if err := decode(r, &m); err != nil {
			writeError(w, err)
			return
		}
		saved, err := s.State.SaveMarquee(r.Context(), m)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func (s *Server) handleAddMarqueeItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req marqueeItemRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		m, err := s.State.AddMarqueeItem(r.Context(), req.Item)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) handleMoveMarqueeItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := intParam(chi.URLParam(r, "index"), "index")
		if err != nil {
			writeError(w, err)
			return
		}
		var req moveRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Delta != -1 && req.Delta != 1 {
			writeError(w, service.NewInvalidArgument("delta must be -1 or 1"))
			return
		}
		m, err := s.State.MoveMarqueeItem(r.Context(), index, req.Delta)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) handleRemoveMarqueeItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := intParam(chi.URLParam(r, "index"), "index")
		if err != nil {
			writeError(w, err)
			return
		}
		m, err := s.State.RemoveMarqueeItem(r.Context(), index)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// --- настройки магазина ---

func (s *Server) handleStoreSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := s.State.Settings(r.Context(), state.GlobalOwner)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) handleSaveStoreSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := s.State.Settings(r.Context(), state.GlobalOwner)
		if err != nil {
			writeError(w, err)
			return
		}
		// частичное обновление поверх текущих значений
		if err := decode(r, &st); err != nil {
			writeError(w, err)
			return
		}
		saved, err := s.State.SaveSettings(r.Context(), state.GlobalOwner, st)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

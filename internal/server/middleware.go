package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Asus/lattkia_store/internal/entity"
	"github.com/Asus/lattkia_store/internal/service"

	"github.com/go-chi/chi/v5/middleware"
)

const ClientIDHeader = "X-Client-ID"

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
	ownerKey
)

// logRequests пишет одну запись на запрос, чтобы не логировать в каждом хендлере
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// authenticate кладёт пользователя в контекст, если передан токен. Неверный токен - 401
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.Users.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(ctx context.Context) (entity.User, bool) {
	u, ok := ctx.Value(userKey).(entity.User)
	return u, ok
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(r.Context()); !ok {
			writeError(w, service.NewUnauthenticated("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, _ := currentUser(r.Context()); u.Role != entity.RoleAdmin {
			writeError(w, service.NewPermissionDenied("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// префиксы не дают клиенту выдать себя за state.GlobalOwner
func userOwner(u entity.User) string {
	return "user:" + u.ID
}

// requireOwner определяет владельца состояния: вошедший пользователь или X-Client-ID
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var owner string
		if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" {
			owner = "client:" + id
		}
		if u, ok := currentUser(r.Context()); ok {
			owner = userOwner(u)
		}
		if owner == "" {
			writeError(w, service.NewInvalidArgument("%s header is required", ClientIDHeader))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

func ownerOf(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}

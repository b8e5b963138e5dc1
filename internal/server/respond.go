package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Asus/lattkia_store/internal/pricing"
	"github.com/Asus/lattkia_store/internal/report"
	"github.com/Asus/lattkia_store/internal/service"
	"github.com/Asus/lattkia_store/internal/state"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// ошибки состояния клиента и расчёта цен, которые означают неверный ввод
var badInput = []error{
	pricing.ErrInvalidQuantity,
	pricing.ErrInvalidThreshold,
	pricing.ErrInvalidPercentage,
	pricing.ErrDuplicateTier,
	pricing.ErrDecreasingTier,
	pricing.ErrNegativePrice,
	state.ErrInvalidTheme,
	state.ErrInvalidLanguage,
	state.ErrInvalidTimezone,
	state.ErrInvalidCurrency,
	state.ErrEmptyDateFormat,
	state.ErrInvalidSpeed,
	state.ErrEmptyItem,
	state.ErrIndexOutOfRange,
}

var missing = []error{
	state.ErrUnknownKey,
	state.ErrNotInCart,
	report.ErrUnknownChart,
}

func statusOf(err error) int {
	switch service.CodeOf(err) {
	case service.CodeInvalidArgument:
		return http.StatusBadRequest
	case service.CodeFailedPrecondition:
		return http.StatusConflict
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeUnauthenticated:
		return http.StatusUnauthorized
	case service.CodePermissionDenied:
		return http.StatusForbidden
	}
	for _, target := range badInput {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range missing {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response to JSON", "error", err)
	}
}

// writeError прячет текст внутренних ошибок от клиента
func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return service.NewInvalidArgument("request body is required")
		}
		return service.NewInvalidArgument("invalid JSON body: %s", err.Error())
	}
	return nil
}

func intParam(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.NewInvalidArgument("%s must be an integer", name)
	}
	return n, nil
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

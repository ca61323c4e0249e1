package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/e5digital/leads-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error        string               `json:"error"`
	Fields       domain.FieldErrors   `json:"fields,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeFailure(w http.ResponseWriter, status int, n domain.Notification) {
	msg := n.Description
	if msg == "" {
		msg = n.Title
	}
	writeJSON(w, status, errorResponse{Error: msg, Notification: &n})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func leadFilterFromQuery(r *http.Request) domain.LeadFilter {
	q := r.URL.Query()
	return domain.LeadFilter{Search: q.Get("search"), Status: q.Get("status")}
}

// handleServiceError maps domain errors to HTTP responses. Backend failures
// never leak to the client: they answer with the operation's failure toast.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger, failure domain.Notification) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var tooMany *domain.ErrTooManyRequests
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		msg := validation.Message
		if msg == "" {
			msg = "dados inválidos"
		}
		fields := validation.Fields
		if len(fields) == 0 && validation.Field != "" {
			fields = domain.FieldErrors{validation.Field: validation.Message}
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msg, Fields: fields})
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, "Lead não encontrado")
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeFailure(w, http.StatusUnauthorized, domain.Failure(err.Error(), ""))
	case errors.As(err, &tooMany):
		logger.Warn("rate limited", zap.String("key", tooMany.Key))
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeFailure(w, http.StatusServiceUnavailable, failure)
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		writeFailure(w, http.StatusBadGateway, failure)
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, failure)
	}
}

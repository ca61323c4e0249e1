package handler

import (
	"net/http"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/format"
	"github.com/e5digital/leads-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// 1. Calculadora & máscaras
// ============================================================

func savingsHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/calculator/savings")
		defer span.End()

		var in domain.SavingsInput
		if err := decodeJSON(w, r, &in); err != nil {
			logger.Debug("savings: invalid body", zap.Error(err))
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp := domain.SavingsResponse{Activity: in.Activity}
		if result, ok := service.CalculateSavings(in); ok {
			resp.Result = &result
			resp.Formatted = service.DisplaySavings(result)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type formattedValue struct {
	Value     string `json:"value"`
	Formatted string `json:"formatted"`
}

func formatPhoneHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query().Get("value")
		writeJSON(w, http.StatusOK, formattedValue{Value: v, Formatted: format.Phone(v)})
	}
}

func formatCurrencyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query().Get("value")
		writeJSON(w, http.StatusOK, formattedValue{Value: v, Formatted: format.CurrencyInput(v)})
	}
}

func leadOptionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.LeadOptions{
			Segments: domain.Segments,
			Statuses: domain.Statuses,
		})
	}
}

// ============================================================
// 2. Captura de lead
// ============================================================

func captureLeadHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leads")
		defer span.End()

		var draft domain.LeadDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lead, err := leadSvc.Capture(ctx, &draft)
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao enviar", "Tente novamente mais tarde."))
			return
		}

		writeJSON(w, http.StatusCreated, domain.CaptureResponse{
			Lead:         lead,
			Notification: domain.Success("Proposta Enviada! 🎉", "Em breve nossa equipe entrará em contato com você."),
		})
	}
}

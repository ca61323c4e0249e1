package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// leadActionResponse wraps a mutated lead with the toast to show.
type leadActionResponse struct {
	Lead         *domain.Lead        `json:"lead"`
	Notification domain.Notification `json:"notification"`
}

type deleteResponse struct {
	*domain.DeleteResult
	Notification domain.Notification `json:"notification"`
}

// ============================================================
// 3. Sessão do admin
// ============================================================

func loginHandler(sessions *service.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/login")
		defer span.End()

		var req domain.LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := sessions.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao fazer login", "Tente novamente mais tarde."))
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func logoutHandler(sessions *service.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/logout")
		defer span.End()

		if err := sessions.Logout(ctx, SessionFromContext(ctx)); err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao sair", ""))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// 4. Dashboard de leads
// ============================================================

func listLeadsHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/leads")
		defer span.End()

		resp, err := leadSvc.Dashboard(ctx, leadFilterFromQuery(r), queryBool(r, "refresh"))
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao carregar leads", ""))
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func leadMetricsHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/leads/metrics")
		defer span.End()

		metrics, err := leadSvc.Metrics(ctx, queryBool(r, "refresh"))
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao carregar leads", ""))
			return
		}

		writeJSON(w, http.StatusOK, metrics)
	}
}

func getLeadHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/leads/{id}")
		defer span.End()

		lead, err := leadSvc.GetLead(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao carregar lead", ""))
			return
		}

		writeJSON(w, http.StatusOK, lead)
	}
}

func updateStatusHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/leads/{id}/status")
		defer span.End()

		var req domain.StatusUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lead, err := leadSvc.UpdateStatus(ctx, SessionFromContext(ctx), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao atualizar status", ""))
			return
		}

		writeJSON(w, http.StatusOK, leadActionResponse{
			Lead:         lead,
			Notification: domain.Success("Status atualizado!", ""),
		})
	}
}

func updateLeadHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/admin/leads/{id}")
		defer span.End()

		var req domain.LeadUpdate
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lead, err := leadSvc.UpdateLead(ctx, SessionFromContext(ctx), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao atualizar lead", ""))
			return
		}

		writeJSON(w, http.StatusOK, leadActionResponse{
			Lead:         lead,
			Notification: domain.Success("Lead atualizado!", ""),
		})
	}
}

func deleteLeadHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/admin/leads/{id}")
		defer span.End()

		result, err := leadSvc.DeleteLead(ctx, SessionFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao deletar lead", ""))
			return
		}

		writeJSON(w, http.StatusOK, deleteResponse{
			DeleteResult: result,
			Notification: domain.Success("Lead deletado!", ""),
		})
	}
}

func bulkDeleteHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/leads/bulk-delete")
		defer span.End()

		var req domain.BulkDeleteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := leadSvc.BulkDelete(ctx, SessionFromContext(ctx), req.IDs)
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao deletar leads", ""))
			return
		}

		writeJSON(w, http.StatusOK, deleteResponse{
			DeleteResult: result,
			Notification: domain.Success(fmt.Sprintf("%d lead(s) deletado(s)!", result.Count), ""),
		})
	}
}

func exportLeadsHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/leads/export.csv")
		defer span.End()

		// Errors must surface before any CSV byte is written.
		var buf bytes.Buffer
		if err := leadSvc.ExportCSV(ctx, leadFilterFromQuery(r), &buf); err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao exportar leads", ""))
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", leadSvc.ExportFileName()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

func whatsAppHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/leads/{id}/whatsapp")
		defer span.End()

		link, err := leadSvc.WhatsAppLink(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger, domain.Failure("Erro ao carregar lead", ""))
			return
		}

		writeJSON(w, http.StatusOK, link)
	}
}

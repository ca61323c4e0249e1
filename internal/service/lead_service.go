// Package service provides the business logic layer (use cases).
// LeadService handles the public capture flow and every operation of the
// admin lead dashboard.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/format"
	"github.com/e5digital/leads-bfa-go/internal/infra/observability"
	"github.com/e5digital/leads-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var leadTracer = otel.Tracer("service/leads")

const leadListCacheKey = "leads:all"

// LeadService orchestrates lead capture and management via the lead store.
type LeadService struct {
	store     port.LeadStore
	cache     port.Cache[[]domain.Lead]
	publisher port.LeadEventPublisher
	notifier  port.LeadNotifier
	metrics   *observability.Metrics
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// LeadServiceOption customizes a LeadService.
type LeadServiceOption func(*LeadService)

// WithPublisher sets the broker used to announce lead mutations.
func WithPublisher(p port.LeadEventPublisher) LeadServiceOption {
	return func(s *LeadService) { s.publisher = p }
}

// WithNotifier sets the channel used to warn the sales team of new leads.
func WithNotifier(n port.LeadNotifier) LeadServiceOption {
	return func(s *LeadService) { s.notifier = n }
}

// WithLocation sets the time zone for "today" metrics and CSV dates.
func WithLocation(loc *time.Location) LeadServiceOption {
	return func(s *LeadService) { s.loc = loc }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) LeadServiceOption {
	return func(s *LeadService) { s.now = now }
}

// NewLeadService creates a new lead service.
func NewLeadService(store port.LeadStore, cache port.Cache[[]domain.Lead], metrics *observability.Metrics, logger *zap.Logger, opts ...LeadServiceOption) *LeadService {
	s := &LeadService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone used for display.
func (s *LeadService) Location() *time.Location {
	return s.loc
}

// ============================================================
// Capture: POST /v1/leads
// ============================================================

// Capture validates the draft and inserts exactly one lead. A validation
// failure never reaches the store. The insert is not retried.
func (s *LeadService) Capture(ctx context.Context, draft *domain.LeadDraft) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Capture")
	defer span.End()

	start := s.now()
	defer func() {
		s.metrics.RecordRequestDuration("lead_capture", time.Since(start))
	}()

	if errs := ValidateLeadDraft(draft); len(errs) > 0 {
		s.metrics.IncrCaptureRejected()
		s.logger.Debug("lead capture rejected", zap.Int("field_errors", len(errs)))
		return nil, &domain.ErrValidation{Message: "formulário inválido", Fields: errs}
	}

	newLead := &domain.NewLead{
		Name:         strings.TrimSpace(draft.Name),
		Phone:        format.Phone(strings.TrimSpace(draft.Phone)),
		Email:        strings.TrimSpace(draft.Email),
		Segment:      resolveSegment(draft.Segment, draft.CustomSegment),
		Status:       domain.StatusNew,
		ConsentGiven: draft.Consent,
	}
	span.SetAttributes(attribute.String("lead.segment", newLead.Segment))

	lead, err := s.store.InsertLead(ctx, newLead)
	if err != nil {
		s.metrics.IncrCaptureFailed()
		s.metrics.IncrExternalError("lead_store")
		s.logger.Error("lead capture failed",
			zap.String("segment", newLead.Segment),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert lead: %w", err)
	}

	s.metrics.IncrLeadCaptured(lead.Segment)
	s.logger.Info("lead captured",
		zap.String("lead_id", lead.ID),
		zap.String("segment", lead.Segment),
	)

	if cached, ok := s.cache.Get(leadListCacheKey); ok {
		s.cache.Set(leadListCacheKey, applyUpsert(cached, *lead))
	}

	s.announceCapture(ctx, lead)
	return lead, nil
}

// announceCapture publishes the capture event and e-mails the sales team
// concurrently. Failures are logged and counted only; the lead is already saved.
func (s *LeadService) announceCapture(ctx context.Context, lead *domain.Lead) {
	g, gCtx := errgroup.WithContext(context.WithoutCancel(ctx))

	if s.publisher != nil {
		g.Go(func() error {
			err := s.publisher.Publish(gCtx, &domain.LeadEvent{
				Type:       domain.LeadCaptured,
				LeadIDs:    []string{lead.ID},
				Lead:       lead,
				OccurredAt: s.now(),
			})
			if err != nil {
				s.metrics.IncrNotificationFailure("broker")
				s.logger.Warn("publish lead.captured failed", zap.String("lead_id", lead.ID), zap.Error(err))
			}
			return nil
		})
	}
	if s.notifier != nil {
		g.Go(func() error {
			if err := s.notifier.NotifyNewLead(gCtx, lead); err != nil {
				s.metrics.IncrNotificationFailure("email")
				s.logger.Warn("new lead e-mail failed", zap.String("lead_id", lead.ID), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ============================================================
// Dashboard reads
// ============================================================

// ListLeads returns every lead, newest first. The last fetched list is kept
// in the cache; refresh forces a fetch from the store.
func (s *LeadService) ListLeads(ctx context.Context, refresh bool) ([]domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.ListLeads")
	defer span.End()
	span.SetAttributes(attribute.Bool("refresh", refresh))

	if !refresh {
		if cached, ok := s.cache.Get(leadListCacheKey); ok {
			s.metrics.IncrCacheHit("leads")
			return cached, nil
		}
		s.metrics.IncrCacheMiss("leads")
	}

	leads, err := s.store.ListLeads(ctx)
	if err != nil {
		s.metrics.IncrExternalError("lead_store")
		s.logger.Error("list leads failed", zap.Error(err))
		return nil, fmt.Errorf("list leads: %w", err)
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	s.cache.Set(leadListCacheKey, leads)
	return leads, nil
}

// Dashboard returns the filtered list together with metrics over all leads.
func (s *LeadService) Dashboard(ctx context.Context, filter domain.LeadFilter, refresh bool) (*domain.LeadListResponse, error) {
	leads, err := s.ListLeads(ctx, refresh)
	if err != nil {
		return nil, err
	}
	filtered := FilterLeads(leads, filter)
	return &domain.LeadListResponse{
		Leads:    filtered,
		Metrics:  ComputeMetrics(leads, s.now(), s.loc),
		Total:    len(leads),
		Filtered: len(filtered),
	}, nil
}

// Metrics returns the dashboard cards.
func (s *LeadService) Metrics(ctx context.Context, refresh bool) (*domain.LeadMetrics, error) {
	leads, err := s.ListLeads(ctx, refresh)
	if err != nil {
		return nil, err
	}
	m := ComputeMetrics(leads, s.now(), s.loc)
	return &m, nil
}

// GetLead returns a single lead from the store.
func (s *LeadService) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	return s.store.GetLead(ctx, id)
}

// ExportCSV writes the filtered list as CSV.
func (s *LeadService) ExportCSV(ctx context.Context, filter domain.LeadFilter, w io.Writer) error {
	ctx, span := leadTracer.Start(ctx, "LeadService.ExportCSV")
	defer span.End()

	leads, err := s.ListLeads(ctx, false)
	if err != nil {
		return err
	}
	filtered := FilterLeads(leads, filter)
	span.SetAttributes(attribute.Int("export.rows", len(filtered)))
	return WriteLeadsCSV(w, filtered, s.loc)
}

// ExportFileName is the name of an export made now.
func (s *LeadService) ExportFileName() string {
	return ExportFileName(s.now(), s.loc)
}

// WhatsAppLink builds the click-to-chat link for a lead.
func (s *LeadService) WhatsAppLink(ctx context.Context, id string) (*domain.WhatsAppLink, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.WhatsAppLink{LeadID: lead.ID, URL: WhatsAppURL(lead.Phone)}, nil
}

// ============================================================
// Dashboard mutations
// ============================================================

// UpdateStatus persists a new funnel stage and returns the updated lead.
func (s *LeadService) UpdateStatus(ctx context.Context, session *domain.Session, id string, status domain.Status) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id), attribute.String("lead.status", string(status)))

	if !status.Valid() {
		return nil, &domain.ErrValidation{Field: FieldStatus, Message: "Status inválido"}
	}

	lead, err := s.store.UpdateLead(ctx, id, map[string]any{"status": string(status)})
	if err != nil {
		s.logger.Error("update lead status failed", zap.String("lead_id", id), zap.Error(err))
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.afterUpsert(ctx, session, domain.LeadStatusChanged, lead)
	return lead, nil
}

// UpdateLead persists every mutable field in one call.
func (s *LeadService) UpdateLead(ctx context.Context, session *domain.Session, id string, u *domain.LeadUpdate) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.UpdateLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	if errs := ValidateLeadUpdate(u); len(errs) > 0 {
		return nil, &domain.ErrValidation{Message: "formulário inválido", Fields: errs}
	}

	var notes any
	if u.Notes != nil {
		notes = *u.Notes
	}
	fields := map[string]any{
		"nome":        strings.TrimSpace(u.Name),
		"telefone":    format.Phone(strings.TrimSpace(u.Phone)),
		"email":       strings.TrimSpace(u.Email),
		"segmento":    resolveSegment(strings.TrimSpace(u.Segment), u.CustomSegment),
		"status":      string(u.Status),
		"observacoes": notes,
	}

	lead, err := s.store.UpdateLead(ctx, id, fields)
	if err != nil {
		s.logger.Error("update lead failed", zap.String("lead_id", id), zap.Error(err))
		return nil, fmt.Errorf("update lead: %w", err)
	}

	s.afterUpsert(ctx, session, domain.LeadUpdated, lead)
	return lead, nil
}

// DeleteLead permanently removes one lead.
func (s *LeadService) DeleteLead(ctx context.Context, session *domain.Session, id string) (*domain.DeleteResult, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.DeleteLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	deleted, err := s.store.DeleteLeads(ctx, []string{id})
	if err != nil {
		s.logger.Error("delete lead failed", zap.String("lead_id", id), zap.Error(err))
		return nil, fmt.Errorf("delete lead: %w", err)
	}
	if len(deleted) == 0 {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
	}

	s.afterDelete(ctx, session, deleted)
	return &domain.DeleteResult{DeletedIDs: deleted, Count: len(deleted)}, nil
}

// BulkDelete removes every id in one store call.
func (s *LeadService) BulkDelete(ctx context.Context, session *domain.Session, ids []string) (*domain.DeleteResult, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.BulkDelete")
	defer span.End()

	ids = dedupe(ids)
	span.SetAttributes(attribute.Int("lead.count", len(ids)))
	if len(ids) == 0 {
		return nil, &domain.ErrValidation{Field: "ids", Message: "Nenhum lead selecionado"}
	}

	deleted, err := s.store.DeleteLeads(ctx, ids)
	if err != nil {
		s.logger.Error("bulk delete failed", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("bulk delete: %w", err)
	}

	s.afterDelete(ctx, session, deleted)
	return &domain.DeleteResult{DeletedIDs: deleted, Count: len(deleted)}, nil
}

func (s *LeadService) afterUpsert(ctx context.Context, session *domain.Session, kind domain.LeadEventType, lead *domain.Lead) {
	s.metrics.IncrMutation(string(kind))
	if cached, ok := s.cache.Get(leadListCacheKey); ok {
		s.cache.Set(leadListCacheKey, applyUpsert(cached, *lead))
	}
	s.logger.Info("lead changed",
		zap.String("event", string(kind)),
		zap.String("lead_id", lead.ID),
		zap.String("actor", actor(session)),
	)
	s.publish(ctx, &domain.LeadEvent{
		Type:       kind,
		LeadIDs:    []string{lead.ID},
		Lead:       lead,
		Actor:      actor(session),
		OccurredAt: s.now(),
	})
}

func (s *LeadService) afterDelete(ctx context.Context, session *domain.Session, ids []string) {
	s.metrics.IncrMutation(string(domain.LeadDeleted))
	if cached, ok := s.cache.Get(leadListCacheKey); ok {
		s.cache.Set(leadListCacheKey, applyDelete(cached, ids))
	}
	s.logger.Info("leads deleted",
		zap.Strings("lead_ids", ids),
		zap.String("actor", actor(session)),
	)
	s.publish(ctx, &domain.LeadEvent{
		Type:       domain.LeadDeleted,
		LeadIDs:    ids,
		Actor:      actor(session),
		OccurredAt: s.now(),
	})
}

func (s *LeadService) publish(ctx context.Context, ev *domain.LeadEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.IncrNotificationFailure("broker")
		s.logger.Warn("publish lead event failed", zap.String("event", string(ev.Type)), zap.Error(err))
	}
}

func actor(session *domain.Session) string {
	if session == nil {
		return ""
	}
	return session.Username
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

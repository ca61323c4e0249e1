package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/infra/resilience"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Leads: CRUD via PostgREST (implements port.LeadStore)
// ============================================================

// supabaseLead maps the "leads" table columns. data_cadastro is kept as a
// string because timestamp columns may come back without an offset.
type supabaseLead struct {
	ID           string  `json:"id"`
	Nome         string  `json:"nome"`
	Telefone     string  `json:"telefone"`
	Email        string  `json:"email"`
	Segmento     string  `json:"segmento"`
	Status       string  `json:"status"`
	DataCadastro string  `json:"data_cadastro"`
	Observacoes  *string `json:"observacoes"`
	LGPDConsent  *bool   `json:"lgpd_consent"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r supabaseLead) toDomain() domain.Lead {
	l := domain.Lead{
		ID:           r.ID,
		Name:         r.Nome,
		Phone:        r.Telefone,
		Email:        r.Email,
		Segment:      r.Segmento,
		Status:       domain.Status(r.Status),
		RegisteredAt: parseTimestamp(r.DataCadastro),
		Notes:        r.Observacoes,
	}
	if l.Status == "" {
		l.Status = domain.StatusNew
	}
	if r.LGPDConsent != nil {
		l.ConsentGiven = *r.LGPDConsent
	}
	return l
}

func decodeLeads(body []byte) ([]domain.Lead, error) {
	if len(body) == 0 {
		return []domain.Lead{}, nil
	}
	var rows []supabaseLead
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("decode leads: %w", err))
	}
	leads := make([]domain.Lead, 0, len(rows))
	for _, r := range rows {
		leads = append(leads, r.toDomain())
	}
	return leads, nil
}

// InsertLead stores one lead. The insert is not retried: a timeout after
// the row was written would otherwise create a duplicate.
func (c *Client) InsertLead(ctx context.Context, lead *domain.NewLead) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.segment", lead.Segment))

	var created []domain.Lead
	err := resilience.Execute(c.cb, func() error {
		body, err := c.doPost(ctx, c.table, lead)
		if err != nil {
			return err
		}
		created, err = decodeLeads(body)
		return err
	})
	if err != nil {
		return nil, c.wrap("insert_lead", err)
	}
	if len(created) == 0 {
		return nil, c.wrap("insert_lead", fmt.Errorf("insert returned no row"))
	}
	return &created[0], nil
}

// ListLeads returns every lead, newest first.
func (c *Client) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLeads")
	defer span.End()

	var leads []domain.Lead
	err := resilience.Execute(c.cb, func() error {
		return resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, c.table+"?select=*&order=data_cadastro.desc")
			if err != nil {
				return err
			}
			leads, err = decodeLeads(body)
			return err
		})
	})
	if err != nil {
		return nil, c.wrap("list_leads", err)
	}
	span.SetAttributes(attribute.Int("leads.count", len(leads)))
	return leads, nil
}

func (c *Client) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
	}

	var lead *domain.Lead
	err := resilience.Execute(c.cb, func() error {
		return resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("%s?id=eq.%s&limit=1", c.table, id)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			rows, err := decodeLeads(body)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "lead", ID: id}
			}
			lead = &rows[0]
			return nil
		})
	})
	if err != nil {
		return nil, c.wrap("get_lead", err)
	}
	return lead, nil
}

// UpdateLead patches the given columns of one lead and returns the new row.
func (c *Client) UpdateLead(ctx context.Context, id string, fields map[string]any) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
	}

	var rows []domain.Lead
	err := resilience.Execute(c.cb, func() error {
		body, err := c.doPatch(ctx, fmt.Sprintf("%s?id=eq.%s", c.table, id), fields)
		if err != nil {
			return err
		}
		rows, err = decodeLeads(body)
		return err
	})
	if err != nil {
		return nil, c.wrap("update_lead", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
	}
	return &rows[0], nil
}

// DeleteLeads removes every id in a single id=in.(…) call. Ids that are not
// uuids cannot exist and are skipped.
func (c *Client) DeleteLeads(ctx context.Context, ids []string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteLeads")
	defer span.End()

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	span.SetAttributes(attribute.Int("leads.count", len(valid)))
	if len(valid) == 0 {
		return []string{}, nil
	}

	var removed []domain.Lead
	err := resilience.Execute(c.cb, func() error {
		path := fmt.Sprintf("%s?id=in.(%s)", c.table, strings.Join(valid, ","))
		body, err := c.doDelete(ctx, path)
		if err != nil {
			return err
		}
		removed, err = decodeLeads(body)
		return err
	})
	if err != nil {
		return nil, c.wrap("delete_leads", err)
	}

	deleted := make([]string, 0, len(removed))
	for _, l := range removed {
		deleted = append(deleted, l.ID)
	}
	return deleted, nil
}

package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/format"
)

// ============================================================
// Dashboard computations over an in-memory lead list
// ============================================================

var csvHeader = []string{"Nome", "Telefone", "Email", "Segmento", "Status", "Data Cadastro"}

// ComputeMetrics returns total, today, last-week and conversion counts.
// "Today" starts at midnight in loc; the week window starts seven days
// before that midnight.
func ComputeMetrics(leads []domain.Lead, now time.Time, loc *time.Location) domain.LeadMetrics {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	weekAgo := today.Add(-7 * 24 * time.Hour)

	m := domain.LeadMetrics{Total: len(leads)}
	contacted := 0
	for _, l := range leads {
		if !l.RegisteredAt.Before(today) {
			m.Today++
		}
		if !l.RegisteredAt.Before(weekAgo) {
			m.Week++
		}
		if l.Status != domain.StatusNew {
			contacted++
		}
	}
	if m.Total > 0 {
		m.Conversion = int(math.Round(float64(contacted) / float64(m.Total) * 100))
	}
	return m
}

// FilterLeads applies the search box and the status select. Name, email and
// segment match case-insensitively; phone matches as typed.
func FilterLeads(leads []domain.Lead, f domain.LeadFilter) []domain.Lead {
	term := strings.ToLower(f.Search)
	status := f.Status
	if status == "todos" || status == "all" {
		status = ""
	}

	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if term != "" &&
			!strings.Contains(strings.ToLower(l.Name), term) &&
			!strings.Contains(strings.ToLower(l.Email), term) &&
			!strings.Contains(l.Phone, f.Search) &&
			!strings.Contains(strings.ToLower(l.Segment), term) {
			continue
		}
		if status != "" && string(l.Status) != status {
			continue
		}
		out = append(out, l)
	}
	return out
}

// WriteLeadsCSV writes the header and one quoted row per lead.
func WriteLeadsCSV(w io.Writer, leads []domain.Lead, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range leads {
		row := []string{
			l.Name,
			l.Phone,
			l.Email,
			l.Segment,
			string(l.Status),
			format.DateTime(l.RegisteredAt, loc),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", l.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFileName is the download name of a CSV export made at now.
func ExportFileName(now time.Time, loc *time.Location) string {
	return fmt.Sprintf("leads_e5_digital_%s.csv", format.FileDate(now, loc))
}

// WhatsAppURL builds the click-to-chat link for a Brazilian phone.
func WhatsAppURL(phone string) string {
	return format.WhatsAppURL(phone)
}

// applyUpsert replaces the lead with the same id, or prepends it when new
// (newest first ordering).
func applyUpsert(leads []domain.Lead, lead domain.Lead) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads)+1)
	replaced := false
	for _, l := range leads {
		if l.ID == lead.ID {
			out = append(out, lead)
			replaced = true
			continue
		}
		out = append(out, l)
	}
	if !replaced {
		out = append([]domain.Lead{lead}, out...)
	}
	return out
}

// applyDelete drops every lead whose id is in ids.
func applyDelete(leads []domain.Lead, ids []string) []domain.Lead {
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if _, ok := gone[l.ID]; ok {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Package postgres stores leads directly in a Postgres database, for
// deployments that run the "leads" table outside Supabase.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/infra/resilience"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("postgres")

const leadColumns = "id, nome, telefone, email, segmento, status, data_cadastro, observacoes, lgpd_consent"

// updatableColumns are the columns UpdateLead may set.
var updatableColumns = map[string]bool{
	"nome":        true,
	"telefone":    true,
	"email":       true,
	"segmento":    true,
	"status":      true,
	"observacoes": true,
}

// LeadsStore implements port.LeadStore on sqlx + lib/pq.
type LeadsStore struct {
	db     *sqlx.DB
	table  string
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
	logger *zap.Logger
}

// Open connects to dsn with the lib/pq driver.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// NewLeadsStore creates a store over an open connection pool.
func NewLeadsStore(db *sqlx.DB, table string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *LeadsStore {
	if table == "" {
		table = "leads"
	}
	return &LeadsStore{db: db, table: pq.QuoteIdentifier(table), cb: cb, cfg: cfg, logger: logger}
}

// Ping checks the connection.
func (s *LeadsStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *LeadsStore) wrap(op string, err error) error {
	var nf *domain.ErrNotFound
	var open *domain.ErrCircuitOpen
	if errors.As(err, &nf) || errors.As(err, &open) {
		return err
	}
	s.logger.Error("postgres: query failed", zap.String("op", op), zap.Error(err))
	return &domain.ErrExternalService{Service: "postgres/" + op, Err: err}
}

// InsertLead stores one lead; not retried.
func (s *LeadsStore) InsertLead(ctx context.Context, lead *domain.NewLead) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Postgres.InsertLead")
	defer span.End()

	query := fmt.Sprintf(`INSERT INTO %s (nome, telefone, email, segmento, status, lgpd_consent)
		VALUES (:nome, :telefone, :email, :segmento, :status, :lgpd_consent)
		RETURNING %s`, s.table, leadColumns)

	var created domain.Lead
	err := resilience.Execute(s.cb, func() error {
		rows, err := sqlx.NamedQueryContext(ctx, s.db, query, lead)
		if err != nil {
			return err
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return fmt.Errorf("insert returned no row")
		}
		return rows.StructScan(&created)
	})
	if err != nil {
		return nil, s.wrap("insert_lead", err)
	}
	return &created, nil
}

// ListLeads returns every lead, newest first.
func (s *LeadsStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListLeads")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY data_cadastro DESC", leadColumns, s.table)

	var leads []domain.Lead
	err := resilience.Execute(s.cb, func() error {
		return resilience.RetryWithBackoff(ctx, s.cfg, func() error {
			leads = leads[:0]
			return s.db.SelectContext(ctx, &leads, query)
		})
	})
	if err != nil {
		return nil, s.wrap("list_leads", err)
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	span.SetAttributes(attribute.Int("leads.count", len(leads)))
	return leads, nil
}

func (s *LeadsStore) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id::text = $1", leadColumns, s.table)

	var lead domain.Lead
	err := resilience.Execute(s.cb, func() error {
		return resilience.RetryWithBackoff(ctx, s.cfg, func() error {
			err := s.db.GetContext(ctx, &lead, query, id)
			if errors.Is(err, sql.ErrNoRows) {
				return &domain.ErrNotFound{Resource: "lead", ID: id}
			}
			return err
		})
	})
	if err != nil {
		return nil, s.wrap("get_lead", err)
	}
	return &lead, nil
}

// UpdateLead sets the given columns and returns the updated row.
func (s *LeadsStore) UpdateLead(ctx context.Context, id string, fields map[string]any) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	query, args, err := buildUpdate(s.table, id, fields)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "fields", Message: err.Error()}
	}

	var lead domain.Lead
	err = resilience.Execute(s.cb, func() error {
		err := s.db.GetContext(ctx, &lead, query, args...)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ErrNotFound{Resource: "lead", ID: id}
		}
		return err
	})
	if err != nil {
		return nil, s.wrap("update_lead", err)
	}
	return &lead, nil
}

// DeleteLeads removes every id in one statement and returns the ids removed.
func (s *LeadsStore) DeleteLeads(ctx context.Context, ids []string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteLeads")
	defer span.End()
	span.SetAttributes(attribute.Int("leads.count", len(ids)))

	query := fmt.Sprintf("DELETE FROM %s WHERE id::text = ANY($1) RETURNING id::text", s.table)

	var deleted []string
	err := resilience.Execute(s.cb, func() error {
		return s.db.SelectContext(ctx, &deleted, query, pq.Array(ids))
	})
	if err != nil {
		return nil, s.wrap("delete_leads", err)
	}
	if deleted == nil {
		deleted = []string{}
	}
	return deleted, nil
}

// buildUpdate renders an UPDATE … RETURNING statement with positional
// arguments, columns sorted for a stable statement text.
func buildUpdate(table, id string, fields map[string]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("no fields to update")
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableColumns[col] {
			return "", nil, fmt.Errorf("column %q cannot be updated", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, fields[col])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id::text = $%d RETURNING %s",
		table, strings.Join(sets, ", "), len(args), leadColumns)
	return query, args, nil
}

// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/e5digital/leads-bfa-go/internal/domain"
)

// LeadStore is the hosted "leads" table.
// Implemented by the Supabase adapter and by the Postgres adapter.
type LeadStore interface {
	// InsertLead stores a new lead; the store assigns id and timestamp.
	InsertLead(ctx context.Context, lead *domain.NewLead) (*domain.Lead, error)
	// ListLeads returns every lead ordered by registration time, newest first.
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
	// UpdateLead applies the given column values and returns the updated row.
	UpdateLead(ctx context.Context, id string, fields map[string]any) (*domain.Lead, error)
	// DeleteLeads removes every lead in ids in one call and returns the ids
	// that actually existed.
	DeleteLeads(ctx context.Context, ids []string) ([]string, error)
}

// CredentialVerifier checks an admin username/password pair.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// LeadEventPublisher announces lead mutations to other systems.
type LeadEventPublisher interface {
	Publish(ctx context.Context, event *domain.LeadEvent) error
}

// LeadNotifier tells the sales team a new lead arrived.
type LeadNotifier interface {
	NotifyNewLead(ctx context.Context, lead *domain.Lead) error
}

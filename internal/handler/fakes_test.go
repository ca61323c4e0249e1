package handler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
)

// fakeStore is an in-memory LeadStore.
type fakeStore struct {
	mu      sync.Mutex
	leads   []domain.Lead
	seq     int
	inserts int
	fail    bool
}

func (f *fakeStore) InsertLead(_ context.Context, nl *domain.NewLead) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.fail {
		return nil, &domain.ErrExternalService{Service: "supabase/insert", Err: errors.New("status 500")}
	}
	f.seq++
	l := domain.Lead{
		ID:           fmt.Sprintf("lead-%d", f.seq),
		Name:         nl.Name,
		Phone:        nl.Phone,
		Email:        nl.Email,
		Segment:      nl.Segment,
		Status:       nl.Status,
		RegisteredAt: time.Now(),
		ConsentGiven: nl.ConsentGiven,
	}
	f.leads = append([]domain.Lead{l}, f.leads...)
	return &l, nil
}

func (f *fakeStore) ListLeads(_ context.Context) ([]domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, &domain.ErrExternalService{Service: "supabase/list", Err: errors.New("status 500")}
	}
	return append([]domain.Lead(nil), f.leads...), nil
}

func (f *fakeStore) GetLead(_ context.Context, id string) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leads {
		if l.ID == id {
			l := l
			return &l, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
}

func (f *fakeStore) UpdateLead(_ context.Context, id string, fields map[string]any) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.leads {
		if f.leads[i].ID != id {
			continue
		}
		if s, ok := fields["status"].(string); ok {
			f.leads[i].Status = domain.Status(s)
		}
		if s, ok := fields["nome"].(string); ok {
			f.leads[i].Name = s
		}
		l := f.leads[i]
		return &l, nil
	}
	return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
}

func (f *fakeStore) DeleteLeads(_ context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gone := map[string]bool{}
	for _, id := range ids {
		gone[id] = true
	}
	var kept []domain.Lead
	var deleted []string
	for _, l := range f.leads {
		if gone[l.ID] {
			deleted = append(deleted, l.ID)
			continue
		}
		kept = append(kept, l)
	}
	f.leads = kept
	return deleted, nil
}

package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
)

// --- Mocks ---

// memStore is an in-memory LeadStore that counts calls per method.
type memStore struct {
	mu      sync.Mutex
	leads   []domain.Lead
	seq     int
	now     time.Time
	calls   map[string]int
	failOn  string
	lastIDs []string
}

func newMemStore(now time.Time, leads ...domain.Lead) *memStore {
	return &memStore{leads: leads, now: now, calls: map[string]int{}}
}

func (m *memStore) hit(method string) error {
	m.calls[method]++
	if m.failOn == method {
		return &domain.ErrExternalService{Service: "supabase", Err: fmt.Errorf("%s: status 500", method)}
	}
	return nil
}

func (m *memStore) InsertLead(_ context.Context, nl *domain.NewLead) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("InsertLead"); err != nil {
		return nil, err
	}
	m.seq++
	lead := domain.Lead{
		ID:           fmt.Sprintf("lead-%d", m.seq),
		Name:         nl.Name,
		Phone:        nl.Phone,
		Email:        nl.Email,
		Segment:      nl.Segment,
		Status:       nl.Status,
		RegisteredAt: m.now,
		ConsentGiven: nl.ConsentGiven,
	}
	m.leads = append([]domain.Lead{lead}, m.leads...)
	return &lead, nil
}

func (m *memStore) ListLeads(_ context.Context) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("ListLeads"); err != nil {
		return nil, err
	}
	return append([]domain.Lead(nil), m.leads...), nil
}

func (m *memStore) GetLead(_ context.Context, id string) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("GetLead"); err != nil {
		return nil, err
	}
	for _, l := range m.leads {
		if l.ID == id {
			l := l
			return &l, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
}

func (m *memStore) UpdateLead(_ context.Context, id string, fields map[string]any) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("UpdateLead"); err != nil {
		return nil, err
	}
	for i := range m.leads {
		if m.leads[i].ID != id {
			continue
		}
		l := &m.leads[i]
		for k, v := range fields {
			switch k {
			case "nome":
				l.Name = v.(string)
			case "telefone":
				l.Phone = v.(string)
			case "email":
				l.Email = v.(string)
			case "segmento":
				l.Segment = v.(string)
			case "status":
				l.Status = domain.Status(v.(string))
			case "observacoes":
				if s, ok := v.(string); ok {
					l.Notes = &s
				} else {
					l.Notes = nil
				}
			}
		}
		out := *l
		return &out, nil
	}
	return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
}

func (m *memStore) DeleteLeads(_ context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("DeleteLeads"); err != nil {
		return nil, err
	}
	m.lastIDs = ids
	gone := map[string]bool{}
	for _, id := range ids {
		gone[id] = true
	}
	var kept []domain.Lead
	var deleted []string
	for _, l := range m.leads {
		if gone[l.ID] {
			deleted = append(deleted, l.ID)
			continue
		}
		kept = append(kept, l)
	}
	m.leads = kept
	return deleted, nil
}

func (m *memStore) count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.LeadEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, ev *domain.LeadEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return m.err
}

func (m *mockPublisher) types() []domain.LeadEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LeadEventType, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

type mockNotifier struct {
	mu       sync.Mutex
	notified []string
	err      error
}

func (m *mockNotifier) NotifyNewLead(_ context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, lead.ID)
	return m.err
}

type mockVerifier struct {
	username, password string
	err                error
}

func (m *mockVerifier) Verify(_ context.Context, username, password string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return username == m.username && password == m.password, nil
}

func lead(id, name string, status domain.Status, at time.Time) domain.Lead {
	return domain.Lead{
		ID:           id,
		Name:         name,
		Phone:        "(11) 99999-9999",
		Email:        id + "@teste.com",
		Segment:      string(domain.SegmentPetShop),
		Status:       status,
		RegisteredAt: at,
	}
}

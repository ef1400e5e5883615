package webhooks

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/bissquit/hookrelay/internal/domain"
)

// mockRepository implements Repository in memory for testing.
type mockRepository struct {
	mu       sync.Mutex
	hooks    map[int64]domain.Webhook
	nextID   int64
	matchErr error
	calls    int
}

func newMockRepository(hooks ...domain.Webhook) *mockRepository {
	m := &mockRepository{hooks: make(map[int64]domain.Webhook)}
	for _, h := range hooks {
		m.hooks[h.ID] = h
		m.nextID = max(m.nextID, h.ID)
	}
	return m
}

func (m *mockRepository) conflicts(h *domain.Webhook) bool {
	for _, other := range m.hooks {
		if other.ID != h.ID && other.SectionID == h.SectionID && other.Verb == h.Verb && other.CallbackURL == h.CallbackURL {
			return true
		}
	}
	return false
}

func (m *mockRepository) CreateWebhook(_ context.Context, h *domain.Webhook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts(h) {
		return ErrWebhookExists
	}
	m.nextID++
	h.ID = m.nextID
	m.hooks[h.ID] = *h
	return nil
}

func (m *mockRepository) GetWebhookByID(_ context.Context, id int64) (*domain.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[id]
	if !ok {
		return nil, ErrWebhookNotFound
	}
	return &h, nil
}

func (m *mockRepository) UpdateWebhook(_ context.Context, h *domain.Webhook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hooks[h.ID]; !ok {
		return ErrWebhookNotFound
	}
	if m.conflicts(h) {
		return ErrWebhookExists
	}
	m.hooks[h.ID] = *h
	return nil
}

func (m *mockRepository) DeleteWebhook(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hooks[id]; !ok {
		return ErrWebhookNotFound
	}
	delete(m.hooks, id)
	return nil
}

func (m *mockRepository) DeleteWebhooks(_ context.Context, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.hooks[id]; ok {
			delete(m.hooks, id)
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) SetActive(_ context.Context, ids []int64, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if h, ok := m.hooks[id]; ok && h.IsActive != active {
			h.IsActive = active
			m.hooks[id] = h
			n++
		}
	}
	return n, nil
}

func (m *mockRepository) sorted() []domain.Webhook {
	out := make([]domain.Webhook, 0, len(m.hooks))
	for _, h := range m.hooks {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b domain.Webhook) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (m *mockRepository) ListWebhooks(_ context.Context, offset, limit int) ([]domain.Webhook, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	slices.Reverse(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := min(offset+limit, len(all))
	return all[offset:end], len(all), nil
}

func (m *mockRepository) FindActiveMatches(_ context.Context, sectionID int64, verb domain.Verb) ([]domain.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.matchErr != nil {
		return nil, m.matchErr
	}
	out := make([]domain.Webhook, 0)
	for _, h := range m.sorted() {
		if h.SectionID == sectionID && h.Verb == verb && h.IsActive {
			out = append(out, h)
		}
	}
	return out, nil
}

// staticSections resolves the listed section ids.
type staticSections map[int64]bool

func (s staticSections) SectionExists(_ context.Context, id int64) (bool, error) {
	return s[id], nil
}

// recordingListener captures every change.
type recordingListener struct {
	changes []Change
}

func (l *recordingListener) WebhookChanged(_ context.Context, c Change) {
	l.changes = append(l.changes, c)
}

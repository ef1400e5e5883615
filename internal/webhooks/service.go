// Package webhooks registers callback URLs against section mutations and
// delivers mutation notifications to them.
package webhooks

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bissquit/hookrelay/internal/domain"
)

// Field limits.
const (
	MaxLabelLength       = 64
	MaxCallbackURLLength = 256
)

// Pagination constants.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// WebhookInput holds the editable fields of a webhook.
// A nil IsActive means true on create and unchanged on update.
type WebhookInput struct {
	Label       string
	SectionID   int64
	Verb        domain.Verb
	CallbackURL string
	IsActive    *bool
}

// Service provides webhook management logic.
type Service struct {
	repo     Repository
	sections SectionResolver
	listener ChangeListener
}

// NewService creates a new webhooks service. listener may be nil.
func NewService(repo Repository, sections SectionResolver, listener ChangeListener) *Service {
	if listener == nil {
		listener = nopListener{}
	}
	return &Service{
		repo:     repo,
		sections: sections,
		listener: listener,
	}
}

// CreateWebhook validates input and stores a new webhook.
func (s *Service) CreateWebhook(ctx context.Context, input WebhookInput) (*domain.Webhook, error) {
	input.Label = strings.TrimSpace(input.Label)
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	hook := &domain.Webhook{
		Label:       input.Label,
		SectionID:   input.SectionID,
		Verb:        input.Verb,
		CallbackURL: input.CallbackURL,
		IsActive:    true,
	}
	if input.IsActive != nil {
		hook.IsActive = *input.IsActive
	}

	if err := s.repo.CreateWebhook(ctx, hook); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}

	s.listener.WebhookChanged(ctx, Change{Kind: ChangeCreated, WebhookIDs: []int64{hook.ID}})
	return hook, nil
}

// UpdateWebhook validates input and replaces the fields of webhook id.
func (s *Service) UpdateWebhook(ctx context.Context, id int64, input WebhookInput) (*domain.Webhook, error) {
	hook, err := s.repo.GetWebhookByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get webhook: %w", err)
	}

	input.Label = strings.TrimSpace(input.Label)
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	hook.Label = input.Label
	hook.SectionID = input.SectionID
	hook.Verb = input.Verb
	hook.CallbackURL = input.CallbackURL
	if input.IsActive != nil {
		hook.IsActive = *input.IsActive
	}

	if err := s.repo.UpdateWebhook(ctx, hook); err != nil {
		return nil, fmt.Errorf("update webhook: %w", err)
	}

	s.listener.WebhookChanged(ctx, Change{Kind: ChangeUpdated, WebhookIDs: []int64{hook.ID}})
	return hook, nil
}

// DeleteWebhook permanently removes webhook id.
func (s *Service) DeleteWebhook(ctx context.Context, id int64) error {
	if err := s.repo.DeleteWebhook(ctx, id); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	s.listener.WebhookChanged(ctx, Change{Kind: ChangeDeleted, WebhookIDs: []int64{id}})
	return nil
}

// DeleteWebhooks removes every listed webhook. Unknown ids are ignored.
func (s *Service) DeleteWebhooks(ctx context.Context, ids []int64) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.repo.DeleteWebhooks(ctx, ids); err != nil {
		return fmt.Errorf("delete webhooks: %w", err)
	}
	s.listener.WebhookChanged(ctx, Change{Kind: ChangeDeleted, WebhookIDs: ids})
	return nil
}

// SetActive enables or disables every listed webhook. Unknown ids are ignored
// and repeating the call has no further effect.
func (s *Service) SetActive(ctx context.Context, ids []int64, active bool) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.repo.SetActive(ctx, ids, active); err != nil {
		return fmt.Errorf("set webhooks active: %w", err)
	}

	kind := ChangeDisabled
	if active {
		kind = ChangeEnabled
	}
	s.listener.WebhookChanged(ctx, Change{Kind: kind, WebhookIDs: ids})
	return nil
}

// GetWebhook returns webhook id.
func (s *Service) GetWebhook(ctx context.Context, id int64) (*domain.Webhook, error) {
	hook, err := s.repo.GetWebhookByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get webhook: %w", err)
	}
	return hook, nil
}

// ListWebhooks returns a page of webhooks, newest first, and the total count.
func (s *Service) ListWebhooks(ctx context.Context, offset, limit int) ([]domain.Webhook, int, error) {
	offset, limit = NormalizePage(offset, limit)
	hooks, total, err := s.repo.ListWebhooks(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list webhooks: %w", err)
	}
	return hooks, total, nil
}

// FindActiveMatches returns the active webhooks for a section and verb, ordered by id.
func (s *Service) FindActiveMatches(ctx context.Context, sectionID int64, verb domain.Verb) ([]domain.Webhook, error) {
	hooks, err := s.repo.FindActiveMatches(ctx, sectionID, verb)
	if err != nil {
		return nil, fmt.Errorf("find active webhooks: %w", err)
	}
	return hooks, nil
}

// NormalizePage clamps list parameters to their allowed range.
func NormalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return offset, limit
}

func (s *Service) validate(ctx context.Context, input WebhookInput) error {
	if input.Label == "" || utf8.RuneCountInString(input.Label) > MaxLabelLength {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidLabel)
	}
	if !input.Verb.IsValid() {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidVerb)
	}
	if !isCallbackURL(input.CallbackURL) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidCallbackURL)
	}

	exists, err := s.sections.SectionExists(ctx, input.SectionID)
	if err != nil {
		return fmt.Errorf("resolve section: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %w", ErrValidation, ErrSectionNotFound)
	}
	return nil
}

func isCallbackURL(raw string) bool {
	if raw == "" || len(raw) > MaxCallbackURLLength {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func uniqueIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

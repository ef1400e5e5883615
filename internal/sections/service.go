// Package sections manages the content sections webhooks are registered against.
package sections

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bissquit/hookrelay/internal/domain"
)

// Section errors.
var (
	ErrSectionNotFound = errors.New("section not found")
	ErrHandleExists    = errors.New("section with this handle already exists")
	ErrInvalidHandle   = errors.New("invalid handle: must be lowercase letters, digits and dashes")
)

var handleRegexp = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Service provides section business logic.
type Service struct {
	repo Repository
}

// NewService creates a new sections service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateSection validates and stores a new section.
func (s *Service) CreateSection(ctx context.Context, section *domain.Section) error {
	section.Name = strings.TrimSpace(section.Name)
	if !handleRegexp.MatchString(section.Handle) {
		return ErrInvalidHandle
	}

	if err := s.repo.CreateSection(ctx, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// GetSection returns the section with the given id.
func (s *Service) GetSection(ctx context.Context, id int64) (*domain.Section, error) {
	section, err := s.repo.GetSectionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get section: %w", err)
	}
	return section, nil
}

// ListSections returns all sections ordered for display.
func (s *Service) ListSections(ctx context.Context) ([]domain.Section, error) {
	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// SectionExists reports whether a section with the given id exists.
func (s *Service) SectionExists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	ok, err := s.repo.SectionExists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check section exists: %w", err)
	}
	return ok, nil
}

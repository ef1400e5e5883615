package sections

import (
	"context"

	"github.com/bissquit/hookrelay/internal/domain"
)

// Repository defines the interface for section data operations.
type Repository interface {
	CreateSection(ctx context.Context, section *domain.Section) error
	GetSectionByID(ctx context.Context, id int64) (*domain.Section, error)
	ListSections(ctx context.Context) ([]domain.Section, error)
	SectionExists(ctx context.Context, id int64) (bool, error)
}

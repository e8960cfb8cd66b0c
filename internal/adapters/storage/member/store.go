package member

import (
	"context"
	"time"

	domain "gymroster/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter SearchFilter) ([]domain.Member, error)
	Count(ctx context.Context, filter SearchFilter) (int, error)
	Summary(ctx context.Context, today time.Time) (Summary, error)
	ListExpired(ctx context.Context, today time.Time, limit int) ([]domain.Member, error)
}

// SearchFilter carries the directory query. Status is one of the domain status values;
// Today decides which side of the expiry boundary a member falls on.
type SearchFilter struct {
	Search string
	Status string
	Today  time.Time
	Limit  int
	Offset int
}

// Summary holds membership counts as of one day.
type Summary struct {
	Total   int
	Active  int
	Expired int
}

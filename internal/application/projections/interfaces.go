package projections

import (
	"context"
	"time"

	"gymroster/internal/adapters/storage/member"
	domainMember "gymroster/internal/domain/member"
)

// MemberStore interface for member queries.
type MemberStore interface {
	Search(ctx context.Context, filter member.SearchFilter) ([]domainMember.Member, error)
	Count(ctx context.Context, filter member.SearchFilter) (int, error)
	ListExpired(ctx context.Context, today time.Time, limit int) ([]domainMember.Member, error)
}

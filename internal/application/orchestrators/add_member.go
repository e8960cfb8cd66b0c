package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gymroster/internal/domain/member"
)

// MemberStore defines the interface for member persistence.
type MemberStore interface {
	Save(ctx context.Context, m member.Member) error
	GetByID(ctx context.Context, id string) (member.Member, error)
	Delete(ctx context.Context, id string) error
}

// CacheInvalidator drops cached directory pages after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AddMemberInput carries input for the orchestrator.
type AddMemberInput struct {
	Name       string
	Phone      string
	JoinDate   time.Time
	PlanMonths int
}

// AddMemberDeps holds dependencies for AddMember. Cache, GenerateID and Now are optional.
type AddMemberDeps struct {
	MemberStore MemberStore
	Cache       CacheInvalidator
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteAddMember registers a member on a plan.
// PRE: Non-empty name and phone, join date set, plan of 1, 2, 3 or 6 months
// POST: Member stored with amount and expiry derived from the plan; cached pages invalidated
func ExecuteAddMember(ctx context.Context, input AddMemberInput, deps AddMemberDeps) (member.Member, error) {
	if input.JoinDate.IsZero() {
		return member.Member{}, errors.New("join date is required")
	}
	genID := deps.GenerateID
	if genID == nil {
		genID = func() string { return uuid.New().String() }
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	m, err := member.New(genID(), input.Name, input.Phone, input.JoinDate, input.PlanMonths, now())
	if err != nil {
		return member.Member{}, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	invalidate(ctx, deps.Cache)
	slog.Info("member_event", "event", "member_added", "member_id", m.ID, "plan_months", m.PlanMonths)
	return m, nil
}

// invalidate bumps the search cache generation. Failures only cost freshness until the TTL lapses.
func invalidate(ctx context.Context, c CacheInvalidator) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx); err != nil {
		slog.Warn("cache_error", "op", "invalidate", "error", err)
	}
}

package roster

import (
	"context"
	"errors"
)

// Failure classes surfaced by a Directory. Stale responses are not errors and never reach the caller.
var (
	ErrNetwork    = errors.New("directory unreachable")
	ErrValidation = errors.New("invalid member details")
	ErrNotFound   = errors.New("member not found")
)

// Directory is the membership service the roster queries.
type Directory interface {
	SearchDirectory(ctx context.Context, c Criteria) (ResultPage, error)
	DeleteMember(ctx context.Context, id string) error
	UpdateMember(ctx context.Context, id string, edit MemberEdit) error
	FetchSummary(ctx context.Context) (Summary, error)
}

// Message turns a failure into the text shown to staff.
func Message(op Op, err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrValidation):
		return "Name and phone are required"
	case errors.Is(err, ErrNotFound):
		return "Member no longer exists"
	}
	switch op {
	case OpDelete:
		return "Failed to delete member"
	case OpEdit:
		return "Failed to update member"
	case OpSummary:
		return "Failed to load dashboard data"
	}
	return "Failed to load members"
}

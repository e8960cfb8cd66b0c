package orchestrators

import (
	"context"
	"errors"
	"log/slog"
)

// EditMemberInput carries input for the edit orchestrator.
type EditMemberInput struct {
	MemberID string
	Name     string
	Phone    string
}

// EditMemberDeps holds dependencies for EditMember.
type EditMemberDeps struct {
	MemberStore MemberStore
	Cache       CacheInvalidator
}

// ExecuteEditMember changes a member's name and phone.
// PRE: MemberID must be non-empty; member must exist
// POST: Name and phone replaced; plan, amount and dates untouched
// INVARIANT: a blank name or phone is rejected and nothing is written
func ExecuteEditMember(ctx context.Context, input EditMemberInput, deps EditMemberDeps) error {
	if input.MemberID == "" {
		return errors.New("member ID is required")
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return err
	}
	if err := m.UpdateContact(input.Name, input.Phone); err != nil {
		return err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return err
	}

	invalidate(ctx, deps.Cache)
	slog.Info("member_event", "event", "member_edited", "member_id", input.MemberID)
	return nil
}

// DeleteMemberInput carries input for the delete orchestrator.
type DeleteMemberInput struct {
	MemberID string
}

// DeleteMemberDeps holds dependencies for DeleteMember.
type DeleteMemberDeps struct {
	MemberStore MemberStore
	Cache       CacheInvalidator
}

// ExecuteDeleteMember removes a member.
// PRE: MemberID must be non-empty
// POST: Member removed; returns an error wrapping member.ErrNotFound when it did not exist
func ExecuteDeleteMember(ctx context.Context, input DeleteMemberInput, deps DeleteMemberDeps) error {
	if input.MemberID == "" {
		return errors.New("member ID is required")
	}
	if err := deps.MemberStore.Delete(ctx, input.MemberID); err != nil {
		return err
	}

	invalidate(ctx, deps.Cache)
	slog.Info("member_event", "event", "member_deleted", "member_id", input.MemberID)
	return nil
}

package projections

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"gymroster/internal/adapters/storage/member"
	domainMember "gymroster/internal/domain/member"
)

// GetSummaryQuery carries query parameters.
type GetSummaryQuery struct {
	Today time.Time
}

// GetSummaryResult carries the dashboard counts.
type GetSummaryResult struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// GetSummaryDeps holds dependencies for GetSummary.
type GetSummaryDeps struct {
	MemberStore MemberStore
}

// QueryGetSummary counts active and expired members concurrently.
// PRE: none
// POST: Total == Active + Expired, all >= 0
func QueryGetSummary(ctx context.Context, query GetSummaryQuery, deps GetSummaryDeps) (GetSummaryResult, error) {
	today := query.Today
	if today.IsZero() {
		today = time.Now()
	}

	var result GetSummaryResult
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := deps.MemberStore.Count(gCtx, member.SearchFilter{Status: domainMember.StatusActive, Today: today})
		result.Active = n
		return err
	})
	g.Go(func() error {
		n, err := deps.MemberStore.Count(gCtx, member.SearchFilter{Status: domainMember.StatusExpired, Today: today})
		result.Expired = n
		return err
	})
	if err := g.Wait(); err != nil {
		return GetSummaryResult{}, err
	}
	result.Total = result.Active + result.Expired
	return result, nil
}

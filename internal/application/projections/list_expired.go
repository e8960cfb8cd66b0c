package projections

import (
	"context"
	"time"

	domainMember "gymroster/internal/domain/member"
)

// DefaultExpiredLimit caps the expired listing.
const DefaultExpiredLimit = 200

// ListExpiredQuery carries query parameters.
type ListExpiredQuery struct {
	Today time.Time
	Limit int
}

// ExpiredRow is one overdue member.
type ExpiredRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	ExpiryDate string `json:"expiry_date"`
	LateDays   int    `json:"late_days"`
}

// ListExpiredDeps holds dependencies for ListExpired.
type ListExpiredDeps struct {
	MemberStore MemberStore
}

// QueryListExpired lists members whose plan has lapsed.
// PRE: none
// POST: Rows are ordered by LateDays descending; every row has LateDays >= 1
func QueryListExpired(ctx context.Context, query ListExpiredQuery, deps ListExpiredDeps) ([]ExpiredRow, error) {
	today := query.Today
	if today.IsZero() {
		today = time.Now()
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultExpiredLimit
	}
	members, err := deps.MemberStore.ListExpired(ctx, today, limit)
	if err != nil {
		return nil, err
	}
	rows := make([]ExpiredRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, ExpiredRow{
			ID:         m.ID,
			Name:       m.Name,
			Phone:      m.Phone,
			ExpiryDate: m.ExpiryDate.Format(domainMember.DateLayout),
			LateDays:   m.LateDays(today),
		})
	}
	return rows, nil
}

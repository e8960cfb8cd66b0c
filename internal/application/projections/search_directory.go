package projections

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"gymroster/internal/adapters/cache"
	"gymroster/internal/adapters/storage/member"
	"gymroster/internal/application/listutil"
	domainMember "gymroster/internal/domain/member"
)

// SearchDirectoryQuery carries query parameters.
type SearchDirectoryQuery struct {
	Search   string
	Status   string
	Page     int
	PageSize int
	Today    time.Time
}

// DirectoryRow is one member as shown in the roster.
type DirectoryRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Plan       int    `json:"plan"`
	Amount     int    `json:"amount"`
	ExpiryDate string `json:"expiry_date"`
	LateDays   int    `json:"late_days"`
}

// DirectoryPage carries the query result. It is also the cached and wire form.
type DirectoryPage struct {
	Results      []DirectoryRow `json:"results"`
	CurrentPage  int            `json:"current_page"`
	TotalPages   int            `json:"total_pages"`
	TotalMembers int            `json:"total_members"`
}

// sharedSearchTimeout bounds a coalesced search once it no longer follows its first caller.
const sharedSearchTimeout = 10 * time.Second

// SearchDirectoryDeps holds dependencies for SearchDirectory.
// Cache and Flight are optional.
type SearchDirectoryDeps struct {
	MemberStore MemberStore
	Cache       cache.SearchCache
	Flight      *singleflight.Group
}

// QuerySearchDirectory returns one page of members matching the search text and status.
// PRE: none; missing or out-of-range values are normalised
// POST: 1 <= CurrentPage <= TotalPages; len(Results) <= PageSize; Results are newest first
// INVARIANT: identical concurrent queries share one store round trip
func QuerySearchDirectory(ctx context.Context, query SearchDirectoryQuery, deps SearchDirectoryDeps) (DirectoryPage, error) {
	query = normalizeSearch(query)
	key := cache.Key{
		Today:    query.Today,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
		Query:    query.Search,
	}
	if deps.Flight == nil {
		return searchDirectory(ctx, query, key, deps)
	}
	// The shared search outlives any one caller; each caller still gives up on its own ctx.
	ch := deps.Flight.DoChan(key.String(), func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedSearchTimeout)
		defer cancel()
		return searchDirectory(sctx, query, key, deps)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return DirectoryPage{}, res.Err
		}
		return res.Val.(DirectoryPage), nil
	case <-ctx.Done():
		return DirectoryPage{}, ctx.Err()
	}
}

func normalizeSearch(q SearchDirectoryQuery) SearchDirectoryQuery {
	if q.Today.IsZero() {
		q.Today = time.Now()
	}
	q.Today = domainMember.Day(q.Today)
	q.Status = domainMember.ParseStatus(q.Status)
	if q.PageSize < 1 || q.PageSize > listutil.MaxPageSize {
		q.PageSize = listutil.DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

func searchDirectory(ctx context.Context, query SearchDirectoryQuery, key cache.Key, deps SearchDirectoryDeps) (DirectoryPage, error) {
	gen, cached := int64(0), deps.Cache != nil
	if cached {
		var err error
		if gen, err = deps.Cache.Generation(ctx); err != nil {
			slog.Warn("cache_error", "op", "generation", "error", err)
			cached = false
		}
	}
	if cached {
		data, err := deps.Cache.Get(ctx, gen, key)
		if err == nil {
			var page DirectoryPage
			if err := json.Unmarshal(data, &page); err == nil {
				return page, nil
			}
			slog.Warn("cache_error", "op", "decode", "key", key.String())
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("cache_error", "op", "get", "error", err)
		}
	}

	filter := member.SearchFilter{Search: query.Search, Status: query.Status, Today: query.Today}
	total, err := deps.MemberStore.Count(ctx, filter)
	if err != nil {
		return DirectoryPage{}, err
	}
	info := listutil.NewPageInfo(query.Page, query.PageSize, total)
	filter.Limit = info.PageSize
	filter.Offset = info.Offset()
	members, err := deps.MemberStore.Search(ctx, filter)
	if err != nil {
		return DirectoryPage{}, err
	}

	page := DirectoryPage{
		Results:      make([]DirectoryRow, 0, len(members)),
		CurrentPage:  info.Page,
		TotalPages:   info.TotalPages,
		TotalMembers: info.Total,
	}
	for _, m := range members {
		page.Results = append(page.Results, DirectoryRow{
			ID:         m.ID,
			Name:       m.Name,
			Phone:      m.Phone,
			Plan:       m.PlanMonths,
			Amount:     m.Amount,
			ExpiryDate: m.ExpiryDate.Format(domainMember.DateLayout),
			LateDays:   m.LateDays(query.Today),
		})
	}

	if cached {
		if data, err := json.Marshal(page); err == nil {
			if err := deps.Cache.Set(ctx, gen, key, data); err != nil {
				slog.Warn("cache_error", "op", "set", "error", err)
			}
		}
	}
	return page, nil
}

package projections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/singleflight"

	"gymroster/internal/adapters/cache"
	"gymroster/internal/adapters/storage/member"
	domainMember "gymroster/internal/domain/member"
)

var testToday = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

type mockMemberStore struct {
	members  []domainMember.Member
	err      error
	searches atomic.Int32
	gate     chan struct{}
}

func (m *mockMemberStore) matching(filter member.SearchFilter) []domainMember.Member {
	var out []domainMember.Member
	for _, mem := range m.members {
		switch filter.Status {
		case domainMember.StatusActive:
			if !mem.IsActive(filter.Today) {
				continue
			}
		case domainMember.StatusExpired:
			if mem.IsActive(filter.Today) {
				continue
			}
		}
		q := strings.ToLower(filter.Search)
		if q != "" && !strings.Contains(strings.ToLower(mem.Name), q) && !strings.Contains(mem.Phone, q) {
			continue
		}
		out = append(out, mem)
	}
	return out
}

// Search returns the seeded members matching the filter, sliced by limit and offset.
// PRE: filter is valid
// POST: Returns at most filter.Limit members
func (m *mockMemberStore) Search(ctx context.Context, filter member.SearchFilter) ([]domainMember.Member, error) {
	m.searches.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	all := m.matching(filter)
	if filter.Offset >= len(all) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

// Count returns the number of seeded members matching the filter.
// PRE: filter is valid
// POST: Returns count >= 0
func (m *mockMemberStore) Count(_ context.Context, filter member.SearchFilter) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.matching(filter)), nil
}

// ListExpired returns expired seeded members in seed order.
// PRE: limit > 0
// POST: Returns only members expired as of today
func (m *mockMemberStore) ListExpired(_ context.Context, today time.Time, limit int) ([]domainMember.Member, error) {
	out := m.matching(member.SearchFilter{Status: domainMember.StatusExpired, Today: today})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, m.err
}

type mapCache struct {
	mu   sync.Mutex
	gen  int64
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *mapCache) Get(_ context.Context, gen int64, key cache.Key) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[fmt.Sprintf("%d:%s", gen, key)]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return d, nil
}

func (c *mapCache) Set(_ context.Context, gen int64, key cache.Key, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[fmt.Sprintf("%d:%s", gen, key)] = data
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return nil
}

func (c *mapCache) Close() error { return nil }

func seedDirectory(n int, expiryOffset func(i int) int) []domainMember.Member {
	out := make([]domainMember.Member, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domainMember.Member{
			ID:         fmt.Sprintf("m%02d", i),
			Name:       fmt.Sprintf("Member %02d", i),
			Phone:      fmt.Sprintf("02100%02d", i),
			PlanMonths: 1,
			Amount:     1000,
			ExpiryDate: testToday.AddDate(0, 0, expiryOffset(i)),
		})
	}
	return out
}

// TestQuerySearchDirectory_TenMembers verifies ten members yield two pages of eight and two.
func TestQuerySearchDirectory_TenMembers(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(10, func(int) int { return 5 })}
	deps := SearchDirectoryDeps{MemberStore: store}

	page, err := QuerySearchDirectory(context.Background(), SearchDirectoryQuery{Today: testToday}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalPages != 2 || len(page.Results) != 8 || page.TotalMembers != 10 {
		t.Errorf("got pages=%d results=%d total=%d, want 2/8/10", page.TotalPages, len(page.Results), page.TotalMembers)
	}

	page, _ = QuerySearchDirectory(context.Background(), SearchDirectoryQuery{Page: 2, Today: testToday}, deps)
	if page.CurrentPage != 2 || len(page.Results) != 2 {
		t.Errorf("page 2: got current=%d results=%d, want 2/2", page.CurrentPage, len(page.Results))
	}
}

// TestQuerySearchDirectory_ClampsPage verifies a page past the end returns the last page.
func TestQuerySearchDirectory_ClampsPage(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(9, func(int) int { return 5 })}
	page, err := QuerySearchDirectory(context.Background(), SearchDirectoryQuery{Page: 7, Today: testToday}, SearchDirectoryDeps{MemberStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.CurrentPage != 2 || len(page.Results) != 1 {
		t.Errorf("got current=%d results=%d, want 2/1", page.CurrentPage, len(page.Results))
	}
}

// TestQuerySearchDirectory_EmptyResult verifies an empty match reports a single empty page.
func TestQuerySearchDirectory_EmptyResult(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(3, func(int) int { return 5 })}
	page, err := QuerySearchDirectory(context.Background(), SearchDirectoryQuery{Search: "nobody", Today: testToday}, SearchDirectoryDeps{MemberStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.CurrentPage != 1 || page.TotalPages != 1 || page.Results == nil || len(page.Results) != 0 {
		t.Errorf("got %+v, want one empty page with a non-nil results slice", page)
	}
}

// TestQuerySearchDirectory_StatusAndLateDays verifies the expired filter and late-day computation.
func TestQuerySearchDirectory_StatusAndLateDays(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(4, func(i int) int { return 2 - i })}
	page, err := QuerySearchDirectory(context.Background(), SearchDirectoryQuery{Status: "expired", Today: testToday}, SearchDirectoryDeps{MemberStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(page.Results))
	}
	if page.Results[0].LateDays != 1 || page.Results[1].LateDays != 2 {
		t.Errorf("late days = %d,%d, want 1,2", page.Results[0].LateDays, page.Results[1].LateDays)
	}
	if page.Results[0].ExpiryDate != "2024-06-14" {
		t.Errorf("expiry = %s, want 2024-06-14", page.Results[0].ExpiryDate)
	}
}

// TestQuerySearchDirectory_CacheHitAndInvalidate verifies cached pages are served until invalidated.
func TestQuerySearchDirectory_CacheHitAndInvalidate(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(3, func(int) int { return 5 })}
	c := newMapCache()
	deps := SearchDirectoryDeps{MemberStore: store, Cache: c}
	q := SearchDirectoryQuery{Today: testToday}

	first, _ := QuerySearchDirectory(context.Background(), q, deps)
	store.members = store.members[:1]
	second, _ := QuerySearchDirectory(context.Background(), q, deps)
	if len(second.Results) != len(first.Results) || store.searches.Load() != 1 {
		t.Errorf("expected cached page: results=%d searches=%d", len(second.Results), store.searches.Load())
	}

	c.Invalidate(context.Background())
	third, _ := QuerySearchDirectory(context.Background(), q, deps)
	if len(third.Results) != 1 {
		t.Errorf("results after invalidate = %d, want 1", len(third.Results))
	}
}

// TestQuerySearchDirectory_CoalescesConcurrent verifies identical in-flight queries share one store call.
func TestQuerySearchDirectory_CoalescesConcurrent(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(3, func(int) int { return 5 }), gate: make(chan struct{})}
	deps := SearchDirectoryDeps{MemberStore: store, Flight: &singleflight.Group{}}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			QuerySearchDirectory(context.Background(), SearchDirectoryQuery{Search: "member", Today: testToday}, deps)
		}()
	}
	for store.searches.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	if n := store.searches.Load(); n >= 5 {
		t.Errorf("searches = %d, want fewer than 5", n)
	}
}

// TestQuerySearchDirectory_CancelledCallerLeavesOthers verifies one caller giving up does not fail the
// callers sharing its search.
func TestQuerySearchDirectory_CancelledCallerLeavesOthers(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(3, func(int) int { return 5 }), gate: make(chan struct{})}
	deps := SearchDirectoryDeps{MemberStore: store, Flight: &singleflight.Group{}}
	query := SearchDirectoryQuery{Search: "member", Today: testToday}

	type result struct {
		page DirectoryPage
		err  error
	}
	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan result, 1)
	go func() {
		page, err := QuerySearchDirectory(ctx, query, deps)
		first <- result{page, err}
	}()
	for store.searches.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	second := make(chan result, 1)
	go func() {
		page, err := QuerySearchDirectory(context.Background(), query, deps)
		second <- result{page, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if r := <-first; !errors.Is(r.err, context.Canceled) {
		t.Errorf("first caller err = %v, want context.Canceled", r.err)
	}

	close(store.gate)
	r := <-second
	if r.err != nil {
		t.Fatalf("second caller err = %v", r.err)
	}
	if len(r.page.Results) != 3 {
		t.Errorf("second caller results = %d, want 3", len(r.page.Results))
	}
	if n := store.searches.Load(); n != 1 {
		t.Errorf("searches = %d, want 1", n)
	}
}

// TestQuerySearchDirectory_StoreError verifies store failures propagate.
func TestQuerySearchDirectory_StoreError(t *testing.T) {
	boom := errors.New("disk gone")
	store := &mockMemberStore{err: boom}
	if _, err := QuerySearchDirectory(context.Background(), SearchDirectoryQuery{}, SearchDirectoryDeps{MemberStore: store}); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

// TestQueryGetSummary verifies total equals active plus expired.
func TestQueryGetSummary(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(5, func(i int) int { return 3 - i })}
	sum, err := QueryGetSummary(context.Background(), GetSummaryQuery{Today: testToday}, GetSummaryDeps{MemberStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Active != 3 || sum.Expired != 2 || sum.Total != 5 {
		t.Errorf("summary = %+v, want 5/3/2", sum)
	}
}

// TestQueryListExpired verifies rows carry late days.
func TestQueryListExpired(t *testing.T) {
	store := &mockMemberStore{members: seedDirectory(3, func(i int) int { return -10 * i })}
	rows, err := QueryListExpired(context.Background(), ListExpiredQuery{Today: testToday, Limit: 2}, ListExpiredDeps{MemberStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].LateDays != 10 || rows[1].LateDays != 20 {
		t.Errorf("rows = %+v, want late days 10 and 20", rows)
	}
}

package web

import (
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"gymroster/internal/adapters/cache"
	"gymroster/internal/adapters/http/middleware"
	"gymroster/internal/adapters/http/perf"
	memberStore "gymroster/internal/adapters/storage/member"
)

// Stores holds all storage dependencies.
type Stores struct {
	MemberStore memberStore.Store
	Cache       cache.SearchCache // optional
}

// Options tunes the middleware chain.
type Options struct {
	CSRFKey         []byte // 32 bytes
	SecureCookies   bool
	TrustedOrigins  []string
	RateLimitPerMin int // 0 disables limiting
	SlowRequest     time.Duration
	Now             func() time.Time
}

// api carries handler dependencies.
type api struct {
	stores    *Stores
	collector *perf.Collector
	flight    singleflight.Group
	now       func() time.Time
}

// NewMux wires HTTP handlers for the membership directory.
// PRE: s.MemberStore is set; opts.CSRFKey is 32 bytes
// POST: The returned close func stops the rate limiter sweeper
func NewMux(s *Stores, collector *perf.Collector, opts Options) (http.Handler, func()) {
	a := &api{stores: s, collector: collector, now: opts.Now}
	if a.now == nil {
		a.now = time.Now
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	var limiter *middleware.RateLimiter
	if opts.RateLimitPerMin > 0 {
		limiter = middleware.NewRateLimiter(opts.RateLimitPerMin, time.Minute)
	}

	// Timing -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	h := middleware.Chain(mux,
		middleware.RateLimit(limiter),
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.Timing(collector, opts.SlowRequest),
	)
	return h, func() {
		if limiter != nil {
			limiter.Close()
		}
	}
}

func (a *api) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/members/search", a.handleSearchMembers)
	mux.HandleFunc("GET /api/members/expired", a.handleExpiredMembers)
	mux.HandleFunc("POST /api/members", a.handleAddMember)
	mux.HandleFunc("PUT /api/members/{id}", a.handleEditMember)
	mux.HandleFunc("DELETE /api/members/{id}", a.handleDeleteMember)
	mux.HandleFunc("GET /api/dashboard", a.handleDashboard)
	mux.HandleFunc("GET /api/perf", a.handlePerf)
	mux.HandleFunc("GET /healthz", handleHealthz)
}

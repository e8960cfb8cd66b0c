package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned when no entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// Key identifies one directory search result page as of one day.
type Key struct {
	Today    time.Time
	Status   string
	Page     int
	PageSize int
	Query    string
}

// String renders the key without its namespace.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%d:%d:%s", k.Today.Format("2006-01-02"), k.Status, k.Page, k.PageSize, k.Query)
}

// SearchCache stores serialized search pages. Entries are written under the generation that
// was current when the read began, so a write racing an Invalidate lands in a dead generation.
type SearchCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, key Key) ([]byte, error)
	Set(ctx context.Context, gen int64, key Key, data []byte) error
	Invalidate(ctx context.Context) error
	Close() error
}

// NoopCache never stores anything. It is used when no redis address is configured.
type NoopCache struct{}

var _ SearchCache = NoopCache{}

func (NoopCache) Generation(context.Context) (int64, error) { return 0, nil }

func (NoopCache) Get(context.Context, int64, Key) ([]byte, error) { return nil, ErrCacheMiss }

func (NoopCache) Set(context.Context, int64, Key, []byte) error { return nil }

func (NoopCache) Invalidate(context.Context) error { return nil }

func (NoopCache) Close() error { return nil }

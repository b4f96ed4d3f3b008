package cache

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/resilience"
	pkgredis "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/redis"
)

// Guard wraps store so that, once it keeps failing, calls return
// resilience.ErrCircuitOpen at once instead of waiting on the network. The
// cache treats those errors like any other store error: a miss on Get and a
// logged no-op on Set. A missing key is not a failure.
func Guard(store Store, cfg resilience.CircuitBreakerConfig) Store {
	cfg.IsFailure = func(err error) bool {
		return err != nil && !pkgredis.IsNilError(err)
	}
	return &guardedStore{
		store:   store,
		breaker: resilience.NewCircuitBreaker("query-cache", cfg),
	}
}

type guardedStore struct {
	store   Store
	breaker *resilience.CircuitBreaker
}

func (g *guardedStore) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := g.breaker.Execute(func() error {
		var err error
		val, err = g.store.Get(ctx, key)
		return err
	})
	return val, err
}

func (g *guardedStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		return g.store.Set(ctx, key, value, ttl)
	})
}

func (g *guardedStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.breaker.Execute(func() error {
		var err error
		n, err = g.store.FlushByPattern(ctx, pattern)
		return err
	})
	return n, err
}

package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/updoot/discussion-backend/internal/api/metrics"
	"github.com/updoot/discussion-backend/internal/core/domain"
	"github.com/updoot/discussion-backend/internal/core/loader"
	"github.com/updoot/discussion-backend/internal/core/ports"
)

const loadersContextKey = "loaders"

// Loaders bundles the per-request batch loaders. A fresh set is built for
// every inbound request so cached entities never leak across requests.
type Loaders struct {
	Users   *loader.Loader[int64, domain.User]
	Updoots *loader.Loader[domain.UpdootKey, int]
}

// WithLoaders installs a fresh Loaders value into the request context.
func WithLoaders(users ports.UserRepository, updoots ports.UpdootRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(loadersContextKey, &Loaders{
				Users:   loader.New(observed("users", users.FindManyByIDs)),
				Updoots: loader.New(observed("updoots", updoots.FindManyByKeys)),
			})
			return next(c)
		}
	}
}

// observed wraps a batch fetch so every dispatch records its key count.
func observed[K comparable, V any](name string, fetch loader.BatchFunc[K, V]) loader.BatchFunc[K, V] {
	return func(ctx context.Context, keys []K) (map[K]V, error) {
		metrics.LoaderBatchSize.WithLabelValues(name).Observe(float64(len(keys)))
		return fetch(ctx, keys)
	}
}

// LoadersFromContext returns the loaders installed by WithLoaders.
func LoadersFromContext(c echo.Context) *Loaders {
	l, ok := c.Get(loadersContextKey).(*Loaders)
	if !ok {
		panic("middleware: loaders not in context")
	}
	return l
}

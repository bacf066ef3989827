package security

import (
	"sync"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

// LoginRateLimit bounds login attempts per client IP. The store is a
// fixed window counter in memory; there is no shared state to protect
// across processes in a single-instance deployment.
func LoginRateLimit(limit int, window time.Duration) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: newFixedWindowStore(limit, window),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(429, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	})
}

type fixedWindowStore struct {
	mu     sync.Mutex
	limit  int
	window time.Duration

	windowStart time.Time
	counts      map[string]int
}

func newFixedWindowStore(limit int, window time.Duration) *fixedWindowStore {
	return &fixedWindowStore{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
		counts:      make(map[string]int),
	}
}

func (s *fixedWindowStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.windowStart) > s.window {
		s.windowStart = time.Now()
		s.counts = make(map[string]int)
	}

	s.counts[identifier]++
	return s.counts[identifier] <= s.limit, nil
}

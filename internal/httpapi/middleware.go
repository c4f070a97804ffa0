package httpapi

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now().UTC()
			next.ServeHTTP(w, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("from", r.RemoteAddr),
				zap.Duration("dur", time.Since(start)))
		})
	}
}

// originLimiters keeps one token bucket per requesting origin. In practice
// there is one camera per origin, so the map stays small.
type originLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newOriginLimiters(limit rate.Limit, burst int) *originLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &originLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *originLimiters) allow(origin string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[origin]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[origin] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

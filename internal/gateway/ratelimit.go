// ABOUTME: Per-client throttle for the login and registration endpoints
// ABOUTME: Token-bucket limiters keyed by client address, held in a bounded LRU

package gateway

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/2389/campus-gateway/internal/config"
)

// loginThrottle limits credential attempts per client address. The least recently
// seen clients are evicted once MaxClients addresses are tracked.
type loginThrottle struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
	now      func() time.Time
	logger   *slog.Logger
}

// newLoginThrottle returns nil when throttling is disabled.
func newLoginThrottle(cfg config.LoginRateLimitConfig, logger *slog.Logger) (*loginThrottle, error) {
	if cfg.Disabled || cfg.RequestsPerMinute <= 0 {
		return nil, nil
	}

	maxClients := cfg.MaxClients
	if maxClients <= 0 {
		maxClients = config.DefaultMaxClients
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	cache, err := lru.New[string, *rate.Limiter](maxClients)
	if err != nil {
		return nil, err
	}

	return &loginThrottle{
		limiters: cache,
		limit:    rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:    burst,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// allow consumes one token for the client and reports whether it was available.
func (t *loginThrottle) allow(client string) bool {
	t.mu.Lock()
	limiter, ok := t.limiters.Get(client)
	if !ok {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters.Add(client, limiter)
	}
	t.mu.Unlock()

	return limiter.AllowN(t.now(), 1)
}

// Middleware rejects throttled clients with a bare 429. A nil throttle passes everything.
func (t *loginThrottle) Middleware(next http.Handler) http.Handler {
	if t == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		if !t.allow(client) {
			t.logger.Warn("credential attempts throttled", "client", client, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr is the connection's remote host. Forwarding headers are ignored so a
// client cannot pick its own throttle key.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

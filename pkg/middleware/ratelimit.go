package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/freightops/load-ledger-api/pkg/logger"
	"github.com/freightops/load-ledger-api/pkg/ratelimit"
)

// RateLimiterMiddleware applies a global token bucket plus a per-IP bucket
// to incoming requests
type RateLimiterMiddleware struct {
	globalLimiter     *ratelimit.TokenBucket
	ipLimiter         *ratelimit.KeyedLimiter
	logger            logger.Logger
	trustForwardedFor bool
	stop              chan struct{}
}

// RateLimiterConfig configures the rate limiter middleware
type RateLimiterConfig struct {
	GlobalMaxTokens   float64
	GlobalRefillRate  float64
	IPMaxTokens       float64
	IPRefillRate      float64
	TrustForwardedFor bool
}

// NewRateLimiterMiddleware creates a new rate limiter middleware and starts
// its idle-bucket sweep loop
func NewRateLimiterMiddleware(cfg *RateLimiterConfig, logger logger.Logger) *RateLimiterMiddleware {
	m := &RateLimiterMiddleware{
		globalLimiter:     ratelimit.NewTokenBucket(cfg.GlobalMaxTokens, cfg.GlobalRefillRate),
		ipLimiter:         ratelimit.NewKeyedLimiter(cfg.IPMaxTokens, cfg.IPRefillRate, 10*time.Minute),
		logger:            logger,
		trustForwardedFor: cfg.TrustForwardedFor,
		stop:              make(chan struct{}),
	}

	go m.sweepLoop()

	return m
}

// Middleware returns the http middleware function
func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.globalLimiter.Allow() {
			m.logger.Warn("Global rate limit exceeded", "method", r.Method, "path", r.URL.Path)

			w.Header().Set("Retry-After", "10")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("rate limit exceeded, please try again later"))
			return
		}

		ip := m.clientIP(r)

		if !m.ipLimiter.Allow(ip) {
			m.logger.Warn("IP rate limit exceeded", "method", r.Method, "path", r.URL.Path, "ip", ip)

			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("rate limit exceeded, please try again later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop terminates the sweep loop
func (m *RateLimiterMiddleware) Stop() {
	close(m.stop)
}

func (m *RateLimiterMiddleware) sweepLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.ipLimiter.Sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *RateLimiterMiddleware) clientIP(r *http.Request) string {
	if m.trustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			parts := strings.Split(fwd, ",")
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)

	if err != nil {
		return r.RemoteAddr
	}

	return host
}

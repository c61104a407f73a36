// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/busybee/internal/app/system/auth"
	"github.com/dalemusser/waffle/httputil"
	wafflelimit "github.com/dalemusser/waffle/pantry/ratelimit"
)

// Limiter allows limit requests per key every period, refilling steadily,
// with bursts of up to limit. It is safe for concurrent use.
type Limiter struct {
	keys       *wafflelimit.KeyLimiter
	retryAfter time.Duration
}

// New allows limit requests per key in every period.
func New(limit int, period time.Duration) *Limiter {
	perToken := period / time.Duration(limit)
	return &Limiter{
		keys:       wafflelimit.NewKeyLimiter(float64(limit)/period.Seconds(), limit, max(period, time.Second)),
		retryAfter: perToken,
	}
}

// Allow records a request for key and reports whether it may proceed.
func (l *Limiter) Allow(key string) bool {
	return l.keys.Allow(key)
}

// RetryAfter is how long a limited key waits for its next request.
func (l *Limiter) RetryAfter() time.Duration {
	return l.retryAfter
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// KeyFunc picks the bucket for a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// Middleware answers 429 with a JSON error and Retry-After once a key has
// used up its allowance.
func Middleware(l *Limiter, key KeyFunc) func(http.Handler) http.Handler {
	retry := strconv.Itoa(max(int(math.Ceil(l.retryAfter.Seconds())), 1))
	return wafflelimit.MiddlewareWithLimiter(l.keys, wafflelimit.Config{
		KeyFunc: wafflelimit.KeyFunc(key),
		Skip:    func(r *http.Request) bool { return key(r) == "" },
		OnLimited: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retry)
			httputil.JSONErrorSimple(w, http.StatusTooManyRequests, "too many requests, slow down")
		},
	})
}

// WritesByUser keys non-GET requests by the signed-in user, falling back
// to the client IP. Reads are not limited.
func WritesByUser(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ""
	}
	if u, ok := auth.CurrentUser(r); ok {
		return "user:" + u.ID
	}
	return "ip:" + ClientIP(r)
}

package security

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"snapfeed/pkg/logger"
)

// SecConfig configures the request middleware. The API is deliberately
// open: there is no credential check here, the session id in request
// bodies acts as the bearer credential.
type SecConfig struct {
	AllowedOrigins []string
	// MaxBodyBytes caps request bodies; required for the large inline
	// image payloads the upload endpoint accepts.
	MaxBodyBytes int64
	// RPS/Burst enable per-client rate limiting when RPS > 0.
	RPS   float64
	Burst int
}

// RequestMiddleware applies request logging, CORS headers, the body size
// cap and optional rate limiting in front of the API handlers.
func RequestMiddleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Centralized safe request logging (redacts sensitive headers)
			logger.LogRequest(r)

			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", corsOriginHeader(origin, cfg.AllowedOrigins))
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				// Cache preflight response for 10 minutes to reduce preflight traffic.
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if cfg.RPS > 0 && !limiters.Allow(clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				logger.Warn("rate_limited", "path", r.URL.Path, "remote", r.RemoteAddr)
				return
			}

			if cfg.MaxBodyBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// corsOriginHeader echoes the request origin only when the allow list names
// it explicitly; a wildcard list answers with "*".
func corsOriginHeader(origin string, allowed []string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
	}
	return origin
}

func clientIP(r *http.Request) string {
	// Expect direct connection; ignore X-Forwarded-For
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg SecConfig
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	burst := p.cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	l := rate.NewLimiter(rate.Limit(p.cfg.RPS), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

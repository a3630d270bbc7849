package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting configuration. The
// pipeline makes several upstream model calls per request, so the per-client
// budget is deliberately small.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerMinute: 30,
		BurstSize:         10,
	}
}

// RateLimit middleware for basic per-client rate limiting. In-memory only;
// a multi-instance deployment needs a shared store instead.
func RateLimit(next http.Handler) http.Handler {
	config := DefaultRateLimitConfig()
	limiter := NewSimpleRateLimiter(config.RequestsPerMinute, config.BurstSize)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)

		if !limiter.Allow(clientIP) {
			log.Warn().
				Str("client_ip", clientIP).
				Str("url", r.URL.String()).
				Msg("Rate limit exceeded")

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)

			errorResponse := map[string]interface{}{
				"error": map[string]interface{}{
					"reason": "rate limit exceeded, please try again later",
					"fault":  "client",
				},
			}
			if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the real client IP address.
func getClientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		// Take the first IP in the chain
		if commaIndex := strings.IndexByte(forwardedFor, ','); commaIndex > 0 {
			return strings.TrimSpace(forwardedFor[:commaIndex])
		}
		return forwardedFor
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return r.RemoteAddr
}

// SimpleRateLimiter is a token-bucket limiter keyed by client IP.
type SimpleRateLimiter struct {
	requestsPerMinute int
	burstSize         int

	mu      sync.Mutex
	clients map[string]*clientLimit
}

type clientLimit struct {
	tokens     int
	lastRefill time.Time
}

func NewSimpleRateLimiter(requestsPerMinute, burstSize int) *SimpleRateLimiter {
	return &SimpleRateLimiter{
		requestsPerMinute: requestsPerMinute,
		burstSize:         burstSize,
		clients:           make(map[string]*clientLimit),
	}
}

func (rl *SimpleRateLimiter) Allow(clientIP string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.clients[clientIP]
	if !exists {
		client = &clientLimit{
			tokens:     rl.burstSize,
			lastRefill: now,
		}
		rl.clients[clientIP] = client
	}

	// Refill tokens based on time passed
	timePassed := now.Sub(client.lastRefill)
	tokensToAdd := int(timePassed.Minutes() * float64(rl.requestsPerMinute))
	if tokensToAdd > 0 {
		client.tokens = min(client.tokens+tokensToAdd, rl.burstSize)
		client.lastRefill = now
	}

	if client.tokens > 0 {
		client.tokens--
		return true
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

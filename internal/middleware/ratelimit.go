package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openguild/guildpress/pkg/response"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleExpiry    = 10 * time.Minute
)

// clientLimiter is one client IP's token bucket.
type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter throttles unauthenticated endpoints per client IP. Idle
// entries are swept in the background so the map does not grow unbounded.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

// NewIPRateLimiter creates a limiter allowing rps requests per second with
// the given burst per client IP.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
	go rl.sweep()
	return rl
}

func (rl *IPRateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{bucket: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.bucket.Allow()
}

func (rl *IPRateLimiter) sweep() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for ip, cl := range rl.clients {
			if time.Since(cl.lastSeen) > limiterIdleExpiry {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware rejects over-limit requests with the standard error envelope.
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.TooManyRequests(c, "too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimit builds an IP rate limiter middleware with the given budget.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	return NewIPRateLimiter(rps, burst).Middleware()
}

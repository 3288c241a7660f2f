package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/escribo/planos-web/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// MsgTooManyRequests is shown to clients over their request rate
const MsgTooManyRequests = "Muitas requisições. Tente novamente em instantes."

// RateLimiter implements a simple in-memory rate limiter per IP address
type RateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.RWMutex
	r        rate.Limit // requests per second
	b        int        // burst size
}

// NewRateLimiter creates a new rate limiter. The cleanup goroutine stops when
// ctx is done.
// r: requests per second, b: burst size
func NewRateLimiter(ctx context.Context, r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}

	go rl.cleanupVisitors(ctx, time.Minute)

	return rl
}

// getVisitor returns the rate limiter for a given IP address
func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.r, rl.b)
		rl.visitors[ip] = limiter
	}

	return limiter
}

// cleanupVisitors drops limiters that have refilled completely
func (rl *RateLimiter) cleanupVisitors(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, limiter := range rl.visitors {
		if limiter.Tokens() >= float64(rl.b) {
			delete(rl.visitors, ip)
		}
	}
}

// Visitors returns the number of tracked client addresses
func (rl *RateLimiter) Visitors() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.visitors)
}

// Middleware returns a Gin middleware function for rate limiting that answers
// rejected requests with a JSON body
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return rl.MiddlewareWith(func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: MsgTooManyRequests})
	})
}

// MiddlewareWith is Middleware with a custom rejection. reject writes the
// response; the chain is aborted after it returns.
func (rl *RateLimiter) MiddlewareWith(reject func(c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := rl.getVisitor(ip)

		if !limiter.Allow() {
			_ = c.Error(fmt.Errorf("rate limit exceeded for %s", ip)) //nolint:errcheck
			reject(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

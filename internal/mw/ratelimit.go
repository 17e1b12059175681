package mw

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ClientRateLimiter keeps a token bucket per client IP. Buckets of idle clients expire.
type ClientRateLimiter struct {
	limiters *cache.Cache
	r        rate.Limit
	b        int
	idle     time.Duration
}

// NewClientRateLimiter creates a limiter allowing r requests per second with burst b.
func NewClientRateLimiter(r rate.Limit, b int, idle time.Duration) *ClientRateLimiter {
	return &ClientRateLimiter{
		limiters: cache.New(idle, 2*idle),
		r:        r,
		b:        b,
		idle:     idle,
	}
}

// Limiter returns the bucket for a client, creating it on first use.
func (l *ClientRateLimiter) Limiter(client string) *rate.Limiter {
	if v, found := l.limiters.Get(client); found {
		// Touch so active clients keep their bucket.
		l.limiters.Set(client, v, l.idle)
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(l.r, l.b)
	if err := l.limiters.Add(client, limiter, l.idle); err != nil {
		// Lost the race to another request from the same client.
		if v, found := l.limiters.Get(client); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Allow reports whether the client may make a request now.
func (l *ClientRateLimiter) Allow(client string) bool {
	return l.Limiter(client).Allow()
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(l *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

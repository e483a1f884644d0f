package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdle is how long an unused bucket is kept. It must exceed the time a
// bucket needs to refill, so dropping one never grants extra requests.
const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// UserRateLimiter keeps one token bucket per user. Buckets idle for longer
// than limiterIdle are swept on a later call.
type UserRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewUserRateLimiter allows perMinute requests per user with a burst of the same size.
func NewUserRateLimiter(perMinute int) *UserRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &UserRateLimiter{
		limiters:  make(map[string]*limiterEntry),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		idle:      limiterIdle,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *UserRateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.seen = now
	return e.lim
}

// sweep drops buckets not used within idle. Callers hold mu.
func (l *UserRateLimiter) sweep(now time.Time) {
	for key, e := range l.limiters {
		if now.Sub(e.seen) >= l.idle {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// Allow reports whether key may make another request now.
func (l *UserRateLimiter) Allow(key string) bool {
	now := l.now()
	return l.limiter(key, now).AllowN(now, 1)
}

// Len reports how many buckets are held.
func (l *UserRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware must run after AuthMiddleware; it falls back to the client IP.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}

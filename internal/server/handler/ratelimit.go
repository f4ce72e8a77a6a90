package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// limiterTTL is how long an idle client keeps its bucket.
	limiterTTL = 10 * time.Minute
	// sweepEvery is the janitor interval for dropping idle buckets.
	sweepEvery = 5 * time.Minute
)

// limiterPool hands out one token bucket per client IP and drops
// buckets that have gone idle.
type limiterPool struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(rps, burst int) *limiterPool {
	p := &limiterPool{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*clientBucket),
	}
	go p.janitor()
	return p
}

// allow reports whether ip may proceed, creating its bucket on first use.
func (p *limiterPool) allow(ip string) bool {
	p.mu.Lock()
	b, ok := p.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	p.mu.Unlock()

	return b.limiter.Allow()
}

func (p *limiterPool) janitor() {
	for {
		time.Sleep(sweepEvery)
		p.mu.Lock()
		for ip, b := range p.buckets {
			if time.Since(b.lastSeen) > limiterTTL {
				delete(p.buckets, ip)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimiter returns a Gin middleware that enforces per-IP token-bucket
// rate limiting. rps is the steady-state requests per second; burst is
// the maximum burst size.
func RateLimiter(rps, burst int) gin.HandlerFunc {
	pool := newLimiterPool(rps, burst)

	return func(c *gin.Context) {
		if !pool.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

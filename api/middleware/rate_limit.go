package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/angelmondragon/rxguard-backend/api/responses"
	"github.com/angelmondragon/rxguard-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

const bucketSweepEvery = 10 * time.Minute

// clientBuckets holds one token bucket per client. Idle clients (full
// buckets) are dropped lazily on access.
type clientBuckets struct {
	rate      float64
	capacity  int64
	mu        sync.Mutex
	buckets   map[string]*ratelimit.Bucket
	lastSweep time.Time
}

func newClientBuckets(cfg config.RateLimitConfig) *clientBuckets {
	return &clientBuckets{
		rate:      cfg.RequestsPerSecond,
		capacity:  cfg.Burst,
		buckets:   make(map[string]*ratelimit.Bucket),
		lastSweep: time.Now(),
	}
}

func (c *clientBuckets) get(key string) *ratelimit.Bucket {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now := time.Now(); now.Sub(c.lastSweep) > bucketSweepEvery {
		for k, b := range c.buckets {
			if b.Available() == b.Capacity() {
				delete(c.buckets, k)
			}
		}
		c.lastSweep = now
	}

	bucket, ok := c.buckets[key]
	if !ok {
		bucket = ratelimit.NewBucketWithRate(c.rate, c.capacity)
		c.buckets[key] = bucket
	}
	return bucket
}

// RateLimit applies a per-client token bucket. Clients are keyed by actor
// when one is known, otherwise by remote host, so it must run after Actor.
func RateLimit(cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	buckets := newClientBuckets(cfg)
	limit := strconv.FormatInt(cfg.Burst, 10)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := buckets.get(clientKey(r))

			w.Header().Set("X-RateLimit-Limit", limit)
			if bucket.TakeAvailable(1) < 1 {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", "1")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests; slow down"))
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if actorID := ActorIDFromContext(r.Context()); actorID != nil {
		return "actor:" + actorID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

package edge

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const idleLimiterTTL = 10 * time.Minute

// actorLimiter is a token bucket per actor. Idle buckets are swept on
// access.
type actorLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	actors    map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newActorLimiter(perSecond float64, burst int) *actorLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &actorLimiter{
		limit:  limit,
		burst:  burst,
		actors: make(map[string]*visitor),
		now:    time.Now,
	}
}

func (l *actorLimiter) allow(actor string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleLimiterTTL {
		for id, v := range l.actors {
			if now.Sub(v.lastSeen) > idleLimiterTTL {
				delete(l.actors, id)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.actors[actor]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.actors[actor] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

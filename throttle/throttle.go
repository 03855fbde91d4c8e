package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adepafin/adepa_backend/config"
)

const dateLayout = "2006-01-02"

// Decision is the outcome of one gate check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

const (
	ReasonOk       = "ok"
	ReasonSpacing  = "min_spacing"
	ReasonDailyCap = "daily_cap"
)

// Limiter gates outbound actions per logical key: a minimum interval
// between consecutive actions plus a hard cap per calendar day. State
// lives in redis when available so the gate holds across instances;
// without redis it falls back to an in-process map.
type Limiter struct {
	prefix      string
	minInterval time.Duration
	dailyCap    int64

	now func() time.Time

	mu       sync.Mutex
	lastSeen map[string]time.Time
	dayCount map[string]int64
	dayStamp map[string]string
}

func NewLimiter(prefix string, minInterval time.Duration, dailyCap int64) *Limiter {
	return &Limiter{
		prefix:      prefix,
		minInterval: minInterval,
		dailyCap:    dailyCap,
		now:         time.Now,
		lastSeen:    map[string]time.Time{},
		dayCount:    map[string]int64{},
		dayStamp:    map[string]string{},
	}
}

// Check performs check-and-increment as one step: an allowed decision
// has already consumed a slot, so the caller must perform the action.
func (l *Limiter) Check(ctx context.Context, key string) (Decision, error) {
	if config.GetRedisDB() == nil {
		return l.checkLocal(key), nil
	}
	return l.checkRedis(ctx, key)
}

func (l *Limiter) checkLocal(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	day := now.Format(dateLayout)
	if l.dayStamp[key] != day {
		l.dayStamp[key] = day
		l.dayCount[key] = 0
	}

	if l.dailyCap > 0 && l.dayCount[key] >= l.dailyCap {
		return Decision{Allowed: false, RetryAfter: untilNextDay(now), Reason: ReasonDailyCap}
	}

	if last, ok := l.lastSeen[key]; ok {
		if elapsed := now.Sub(last); elapsed < l.minInterval {
			return Decision{Allowed: false, RetryAfter: l.minInterval - elapsed, Reason: ReasonSpacing}
		}
	}

	l.lastSeen[key] = now
	l.dayCount[key]++
	return Decision{Allowed: true, Reason: ReasonOk}
}

func (l *Limiter) checkRedis(ctx context.Context, key string) (Decision, error) {
	rdb := config.GetRedisDB()
	now := l.now()

	dailyKey := fmt.Sprintf("Throttle:%s:%s:%s", l.prefix, key, now.Format(dateLayout))
	if l.dailyCap > 0 {
		count, err := rdb.Incr(ctx, dailyKey).Result()
		if err != nil {
			return Decision{}, err
		}
		if count == 1 {
			rdb.Expire(ctx, dailyKey, untilNextDay(now))
		}
		if count > l.dailyCap {
			return Decision{Allowed: false, RetryAfter: untilNextDay(now), Reason: ReasonDailyCap}, nil
		}
	}

	spacingKey := fmt.Sprintf("Throttle:%s:%s:last", l.prefix, key)
	set, err := rdb.SetNX(ctx, spacingKey, 1, l.minInterval).Result()
	if err != nil {
		return Decision{}, err
	}
	if !set {
		remaining, err := rdb.PTTL(ctx, spacingKey).Result()
		if err != nil || remaining < 0 {
			remaining = l.minInterval
		}
		if l.dailyCap > 0 {
			rdb.Decr(ctx, dailyKey)
		}
		return Decision{Allowed: false, RetryAfter: remaining, Reason: ReasonSpacing}, nil
	}

	return Decision{Allowed: true, Reason: ReasonOk}, nil
}

func untilNextDay(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}

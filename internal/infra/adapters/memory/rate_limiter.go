package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/domain/models"
)

// RateLimiter token bucket на пару (actor, class)
type RateLimiter interface {
	Allow(actorID string, class models.ActionClass) bool
	Status(actorID string, class models.ActionClass) (models.BucketStatus, bool)
	Reset(actorID string)

	// Sweep удаляет бакеты без активности дольше retention, возвращает сколько удалено
	Sweep() int
	Run(ctx context.Context, interval time.Duration)
}

type bucketKey struct {
	actorID string
	class   models.ActionClass
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	limits    map[models.ActionClass]models.RateLimit
	retention time.Duration
	now       func() time.Time

	buckets map[bucketKey]*bucket

	mu sync.Mutex
}

func NewRateLimiter(limits map[models.ActionClass]models.RateLimit, retention time.Duration, now func() time.Time) RateLimiter {
	if limits == nil {
		limits = models.DefaultRateLimits()
	}
	if retention <= 0 {
		retention = time.Hour
	}
	if now == nil {
		now = time.Now
	}

	return &rateLimiter{
		limits:    limits,
		retention: retention,
		now:       now,
		buckets:   make(map[bucketKey]*bucket, 64),
	}
}

// Allow неизвестный класс пропускается
func (l *rateLimiter) Allow(actorID string, class models.ActionClass) bool {
	limit, ok := l.limits[class]
	if !ok {
		slog.Warn("unknown rate limit class", slog.String(constant.ActionClass, string(class)))
		return true
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	key := bucketKey{actorID: actorID, class: class}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(limit.PerSecond), limit.Burst)}
		l.buckets[key] = b
	}

	b.lastSeen = now

	return b.limiter.AllowN(now, 1)
}

// Status текущее количество токенов. false, если бакета еще нет.
func (l *rateLimiter) Status(actorID string, class models.ActionClass) (models.BucketStatus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketKey{actorID: actorID, class: class}]
	if !ok {
		return models.BucketStatus{}, false
	}

	return models.BucketStatus{
		Tokens:    b.limiter.TokensAt(l.now()),
		MaxTokens: b.limiter.Burst(),
		PerSecond: float64(b.limiter.Limit()),
	}, true
}

func (l *rateLimiter) Reset(actorID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.buckets {
		if key.actorID == actorID {
			delete(l.buckets, key)
		}
	}
}

func (l *rateLimiter) Sweep() int {
	cutoff := l.now().Add(-l.retention)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0

	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}

	return removed
}

// Run периодическая очистка до отмены ctx
func (l *rateLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				slog.Debug("rate limit buckets swept", slog.Int("removed", removed))
			}
		}
	}
}

// Package memory 提供内存版仓储实现
package memory

import (
	"context"
	"sync"
	"time"

	"lumen-lms-api/internal/domain/service"
)

type windowCounter struct {
	bucket string
	count  int
}

// RateLimiter 内存版固定窗口限流器
// 每个用户维护分钟/小时/天三个计数器，桶标识变化即视为窗口翻转
type RateLimiter struct {
	mu     sync.Mutex
	limits service.RateLimits
	now    func() time.Time
	users  map[string]*[3]windowCounter
}

// NewRateLimiter 创建内存限流器
func NewRateLimiter(limits service.RateLimits) *RateLimiter {
	return &RateLimiter{
		limits: limits,
		now:    time.Now,
		users:  make(map[string]*[3]windowCounter),
	}
}

// WithClock 注入时钟，测试用
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

var _ service.RateLimiter = (*RateLimiter)(nil)

var memWindows = []struct {
	window service.RateWindow
	layout string
}{
	{service.RateWindowMinute, "200601021504"},
	{service.RateWindowHour, "2006010215"},
	{service.RateWindowDay, "20060102"},
}

// CheckAndIncrement 检查三个窗口后同时自增
func (l *RateLimiter) CheckAndIncrement(ctx context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	counters := l.countersLocked(userID, now)
	limits := [3]int{l.limits.PerMinute, l.limits.PerHour, l.limits.PerDay}

	for i, limit := range limits {
		if limit > 0 && counters[i].count >= limit {
			return &service.RateLimitExceededError{
				UserID:            userID,
				Window:            memWindows[i].window,
				Limit:             limit,
				Current:           counters[i].count,
				RetryAfterSeconds: memRetryAfter(now, memWindows[i].window),
			}
		}
	}
	for i := range counters {
		counters[i].count++
	}
	return nil
}

// Usage 返回当前三个窗口的计数
func (l *RateLimiter) Usage(ctx context.Context, userID string) (*service.RateUsage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	counters := l.countersLocked(userID, l.now().UTC())
	return &service.RateUsage{
		Minute: counters[0].count,
		Hour:   counters[1].count,
		Day:    counters[2].count,
	}, nil
}

// countersLocked 取用户的三个计数器，桶翻转时清零；调用方需持锁
func (l *RateLimiter) countersLocked(userID string, now time.Time) *[3]windowCounter {
	counters, ok := l.users[userID]
	if !ok {
		counters = &[3]windowCounter{}
		l.users[userID] = counters
	}
	for i, w := range memWindows {
		bucket := now.Format(w.layout)
		if counters[i].bucket != bucket {
			counters[i] = windowCounter{bucket: bucket}
		}
	}
	return counters
}

func memRetryAfter(now time.Time, window service.RateWindow) int {
	var boundary time.Time
	switch window {
	case service.RateWindowMinute:
		boundary = now.Truncate(time.Minute).Add(time.Minute)
	case service.RateWindowHour:
		boundary = now.Truncate(time.Hour).Add(time.Hour)
	default:
		boundary = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	}
	secs := int(boundary.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Package redis 提供 Redis 限流与令牌吊销实现
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"lumen-lms-api/internal/domain/service"
)

// checkAndIncrScript 固定窗口限流脚本
// KEYS[1..3] 依次为分钟/小时/天的窗口键，ARGV[1..3] 为对应上限（0 表示不限），
// ARGV[4..6] 为各键的过期秒数。任一窗口超限时返回 {0, 窗口序号, 当前计数}
// 且不做任何自增；全部通过时三个窗口同时 +1，返回 {1, c1, c2, c3}
var checkAndIncrScript = redis.NewScript(`
local counts = {}
for i = 1, 3 do
    local limit = tonumber(ARGV[i])
    local current = tonumber(redis.call('GET', KEYS[i]) or '0')
    if limit > 0 and current >= limit then
        return {0, i, current}
    end
    counts[i] = current
end
local result = {1}
for i = 1, 3 do
    local n = redis.call('INCR', KEYS[i])
    if n == 1 then
        redis.call('EXPIRE', KEYS[i], tonumber(ARGV[i + 3]))
    end
    result[i + 1] = n
end
return result
`)

// rateWindows 窗口序号与元数据的固定映射，顺序与脚本 KEYS 一致
var rateWindows = []struct {
	window service.RateWindow
	suffix string
	layout string
	ttl    time.Duration
}{
	{service.RateWindowMinute, "m", "200601021504", 2 * time.Minute},
	{service.RateWindowHour, "h", "2006010215", 2 * time.Hour},
	{service.RateWindowDay, "d", "20060102", 48 * time.Hour},
}

// RateLimiter 固定窗口限流器
// 每个用户在分钟/小时/天三个窗口各有一个计数键，键名携带窗口桶，
// 窗口翻转由键名切换完成，过期仅做垃圾回收
type RateLimiter struct {
	client *Client
	limits service.RateLimits
	now    func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client, limits service.RateLimits) *RateLimiter {
	return &RateLimiter{
		client: client,
		limits: limits,
		now:    time.Now,
	}
}

var _ service.RateLimiter = (*RateLimiter)(nil)

// CheckAndIncrement 原子检查并自增三个窗口
func (l *RateLimiter) CheckAndIncrement(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "ratelimit.CheckAndIncrement")
	span.SetAttributes(attribute.String("ratelimit.user_id", userID))
	defer span.End()

	now := l.now().UTC()
	keys := l.keys(userID, now)
	limits := []int{l.limits.PerMinute, l.limits.PerHour, l.limits.PerDay}

	args := []interface{}{
		limits[0], limits[1], limits[2],
		int(rateWindows[0].ttl.Seconds()),
		int(rateWindows[1].ttl.Seconds()),
		int(rateWindows[2].ttl.Seconds()),
	}

	result, err := checkAndIncrScript.Run(ctx, l.client.rdb, keys, args...).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("rate limit script failed: %w", err)
	}

	if len(result) >= 3 && result[0] == 0 {
		idx := int(result[1]) - 1
		w := rateWindows[idx]
		span.SetAttributes(attribute.String("ratelimit.exceeded_window", string(w.window)))
		return &service.RateLimitExceededError{
			UserID:            userID,
			Window:            w.window,
			Limit:             limits[idx],
			Current:           int(result[2]),
			RetryAfterSeconds: retryAfter(now, w.window),
		}
	}
	return nil
}

// Usage 返回当前三个窗口的计数
func (l *RateLimiter) Usage(ctx context.Context, userID string) (*service.RateUsage, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Usage")
	span.SetAttributes(attribute.String("ratelimit.user_id", userID))
	defer span.End()

	keys := l.keys(userID, l.now().UTC())
	values, err := l.client.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read rate usage: %w", err)
	}

	counts := make([]int, 3)
	for i, v := range values {
		if s, ok := v.(string); ok {
			fmt.Sscanf(s, "%d", &counts[i])
		}
	}
	return &service.RateUsage{Minute: counts[0], Hour: counts[1], Day: counts[2]}, nil
}

// keys 生成三个窗口键，顺序与脚本 KEYS 一致
func (l *RateLimiter) keys(userID string, now time.Time) []string {
	keys := make([]string, len(rateWindows))
	for i, w := range rateWindows {
		keys[i] = fmt.Sprintf("rl:%s:%s:%s", userID, w.suffix, now.Format(w.layout))
	}
	return keys
}

// retryAfter 距窗口边界的剩余秒数，向上取整且至少为 1
func retryAfter(now time.Time, window service.RateWindow) int {
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

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen-lms-api/internal/domain/service"
)

func TestRateLimiterMinuteCeiling(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 30, 20, 0, time.UTC)
	limiter := NewRateLimiter(service.RateLimits{PerMinute: 3, PerHour: 100, PerDay: 500}).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.CheckAndIncrement(ctx, "user-1"))
	}

	err := limiter.CheckAndIncrement(ctx, "user-1")
	var rle *service.RateLimitExceededError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, service.RateWindowMinute, rle.Window)
	assert.Equal(t, 3, rle.Limit)
	assert.Equal(t, 3, rle.Current)
	assert.Equal(t, 40, rle.RetryAfterSeconds)

	// 被拒绝的请求不计数
	usage, err := limiter.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, usage.Minute)
}

func TestRateLimiterWindowRollover(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 30, 50, 0, time.UTC)
	limiter := NewRateLimiter(service.RateLimits{PerMinute: 2, PerHour: 100, PerDay: 500}).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, limiter.CheckAndIncrement(ctx, "user-1"))
	require.NoError(t, limiter.CheckAndIncrement(ctx, "user-1"))
	require.Error(t, limiter.CheckAndIncrement(ctx, "user-1"))

	// 下一分钟计数归零，小时与天计数延续
	now = now.Add(20 * time.Second)
	require.NoError(t, limiter.CheckAndIncrement(ctx, "user-1"))

	usage, err := limiter.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Minute)
	assert.Equal(t, 3, usage.Hour)
	assert.Equal(t, 3, usage.Day)
}

func TestRateLimiterHourCeiling(t *testing.T) {
	now := time.Date(2026, 9, 15, 10, 59, 0, 0, time.UTC)
	limiter := NewRateLimiter(service.RateLimits{PerMinute: 0, PerHour: 2, PerDay: 500}).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, limiter.CheckAndIncrement(ctx, "user-1"))
	require.NoError(t, limiter.CheckAndIncrement(ctx, "user-1"))

	err := limiter.CheckAndIncrement(ctx, "user-1")
	var rle *service.RateLimitExceededError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, service.RateWindowHour, rle.Window)
	assert.Equal(t, 60, rle.RetryAfterSeconds)
}

func TestRateLimiterZeroMeansUnlimited(t *testing.T) {
	limiter := NewRateLimiter(service.RateLimits{}).
		WithClock(func() time.Time { return time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC) })
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, limiter.CheckAndIncrement(ctx, "user-1"))
	}
}

func TestRateLimiterUsersIndependent(t *testing.T) {
	limiter := NewRateLimiter(service.RateLimits{PerMinute: 1, PerHour: 10, PerDay: 10}).
		WithClock(func() time.Time { return time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC) })
	ctx := context.Background()

	require.NoError(t, limiter.CheckAndIncrement(ctx, "user-1"))
	require.Error(t, limiter.CheckAndIncrement(ctx, "user-1"))
	require.NoError(t, limiter.CheckAndIncrement(ctx, "user-2"))
}

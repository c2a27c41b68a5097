// Package service 定义跨层稳定契约（port）
package service

import (
	"context"
	"fmt"
)

// RateWindow 固定窗口类型
type RateWindow string

const (
	RateWindowMinute RateWindow = "minute"
	RateWindowHour   RateWindow = "hour"
	RateWindowDay    RateWindow = "day"
)

// RateLimits 三个窗口的上限
// 0 表示对应窗口不限
type RateLimits struct {
	PerMinute int `json:"per_minute"`
	PerHour   int `json:"per_hour"`
	PerDay    int `json:"per_day"`
}

// RateUsage 当前窗口内的计数快照
type RateUsage struct {
	Minute int `json:"minute"`
	Hour   int `json:"hour"`
	Day    int `json:"day"`
}

// RateLimitExceededError 短窗口限流命中
type RateLimitExceededError struct {
	UserID  string
	Window  RateWindow
	Limit   int
	Current int
	// RetryAfterSeconds 距窗口边界的剩余秒数
	RetryAfterSeconds int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded: user=%s window=%s current=%d limit=%d", e.UserID, e.Window, e.Current, e.Limit)
}

// RateLimiter 固定窗口限流器接口
// CheckAndIncrement 必须原子地完成：先检查三个窗口上限，
// 任一超限则不自增并返回 *RateLimitExceededError；
// 全部通过则三个窗口同时 +1。窗口按墙钟边界翻转，无需后台任务
type RateLimiter interface {
	CheckAndIncrement(ctx context.Context, userID string) error

	// Usage 返回当前三个窗口的计数（introspection 端点使用）
	Usage(ctx context.Context, userID string) (*RateUsage, error)
}

package quota

import (
	"math"

	"github.com/shopspring/decimal"

	"lumen-lms-api/internal/domain/entity"
)

// FeatureStats 单功能用量统计
type FeatureStats struct {
	Used        int     `json:"used"`
	Limit       int     `json:"limit"`
	Percent     float64 `json:"percent"`
	TokensUsed  int64   `json:"tokens_used"`
	TokensLimit int64   `json:"tokens_limit"`
}

// CostStats 费用统计
type CostStats struct {
	Used    string  `json:"used"`
	Limit   string  `json:"limit"`
	Percent float64 `json:"percent"`
}

// UsageStats 月度用量统计（introspection 端点的响应体）
type UsageStats struct {
	Month    string                             `json:"month"`
	Features map[entity.AIFeature]*FeatureStats `json:"features"`
	Cost     CostStats                          `json:"cost"`
}

// Percent 计算用量百分比，四舍五入到一位小数
// limit <= 0（含不限量标记）按 0% 展示
func Percent(used, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Round(float64(used)/float64(limit)*1000) / 10
}

// CostPercent 费用百分比，同样保留一位小数
func CostPercent(used, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	ratio, _ := used.Div(limit).Mul(decimal.NewFromInt(100)).Float64()
	return math.Round(ratio*10) / 10
}

// Stats 汇总配额记录的用量统计
func (l *Ledger) Stats(q *entity.UsageQuota) *UsageStats {
	features := make(map[entity.AIFeature]*FeatureStats, len(entity.AIFeatures))
	for _, feature := range entity.AIFeatures {
		usage := q.FeatureUsageOf(feature)
		features[feature] = &FeatureStats{
			Used:        usage.Used,
			Limit:       usage.Limit,
			Percent:     Percent(int64(usage.Used), int64(usage.Limit)),
			TokensUsed:  usage.TokensUsed,
			TokensLimit: usage.TokensLimit,
		}
	}
	return &UsageStats{
		Month:    q.Month,
		Features: features,
		Cost: CostStats{
			Used:    q.CostUsed.StringFixed(4),
			Limit:   q.CostLimit.StringFixed(4),
			Percent: CostPercent(q.CostUsed, q.CostLimit),
		},
	}
}

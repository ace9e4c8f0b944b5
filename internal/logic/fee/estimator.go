// Package fee 从近期验证者数据估算网络优先费单价（micro-lamports / CU）。
package fee

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/pkg/jsonrpc"
)

// sample 对应 getRecentPrioritizationFees 返回的单条样本
type sample struct {
	Slot              uint64 `json:"slot"`
	PrioritizationFee uint64 `json:"prioritizationFee"`
}

type Estimator struct {
	rpc *jsonrpc.Client
}

func NewEstimator(endpoint string, timeout time.Duration) *Estimator {
	return &Estimator{rpc: jsonrpc.NewClient(endpoint, timeout)}
}

// Estimate 按账户集合拉取近期优先费样本并给出推荐单价。
// percentile 取值 0–100，按上游要求放大 100 倍传输（基点刻度）。
// 推荐值取样本中位数加固定偏移；样本为空时回退 defaultPrice。
// 网络失败返回 FeeEstimationError（仅在调用方提供 override 时可恢复）。
func (e *Estimator) Estimate(ctx context.Context, accountKeys []string, percentile uint32, defaultPrice uint64) (uint64, error) {
	if percentile > 100 {
		return 0, fmt.Errorf("percentile out of range: %d", percentile)
	}

	params := []any{
		accountKeys,
		map[string]any{"percentile": percentile * 100},
	}
	var samples []sample
	if err := e.rpc.Call(ctx, "getRecentPrioritizationFees", params, &samples); err != nil {
		return 0, &errs.FeeEstimationError{Err: err}
	}

	fees := make([]uint64, 0, len(samples))
	for _, s := range samples {
		fees = append(fees, s.PrioritizationFee)
	}
	median, ok := Median(fees)
	if !ok {
		return defaultPrice, nil
	}
	return median + consts.PriorityFeeOffset, nil
}

// Median 升序排序后取中位数：奇数个取中间元素，偶数个取中间两元素均值。
// 空集返回 (0, false)，由调用方决定兜底值。
func Median(fees []uint64) (uint64, bool) {
	if len(fees) == 0 {
		return 0, false
	}
	sorted := make([]uint64, len(fees))
	copy(sorted, fees)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// FinalUnitPrice 把市场信号与经济下限合成为 builder 实际使用的单价：
// max(recommended × 1.2, minTotalFee / units × 1e6)，再夹到 priorityLimit。
// 市场项防低估，下限项保证小交易的总费不低于目标值。
func FinalUnitPrice(recommended, estimatedUnits, priorityLimit uint64) uint64 {
	if priorityLimit == 0 {
		priorityLimit = consts.DefaultPriorityLimit
	}

	price := uint64(math.Ceil(float64(recommended) * 1.2))
	if estimatedUnits > 0 {
		floor := uint64(math.Ceil(float64(consts.MinTotalFeeLamports) / float64(estimatedUnits) * 1e6))
		if floor > price {
			price = floor
		}
	}
	if price > priorityLimit {
		price = priorityLimit
	}
	return price
}

package fee

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	// 奇数个取中间元素
	m, ok := Median([]uint64{300, 100, 200})
	require.True(t, ok)
	assert.Equal(t, uint64(200), m)

	// 偶数个取中间两元素均值
	m, ok = Median([]uint64{100, 200})
	require.True(t, ok)
	assert.Equal(t, uint64(150), m)

	// 单元素
	m, ok = Median([]uint64{7})
	require.True(t, ok)
	assert.Equal(t, uint64(7), m)

	// 空集交给调用方兜底
	_, ok = Median(nil)
	assert.False(t, ok, "空集不给中位数")

	// 排序不改动入参
	fees := []uint64{300, 100, 200}
	Median(fees)
	assert.Equal(t, []uint64{300, 100, 200}, fees, "入参切片不应该被排序")
}

func TestFinalUnitPrice(t *testing.T) {
	// 市场项占优：100000 × 1.2 = 120000 > 下限项 100000
	assert.Equal(t, uint64(120_000), FinalUnitPrice(100_000, 100_000, 0))

	// 下限项占优：小交易要保证总费不低于目标，10000/5000×1e6 = 2e6
	assert.Equal(t, uint64(2_000_000), FinalUnitPrice(100, 5_000, 0))

	// 夹到调用方给的上限
	assert.Equal(t, uint64(500_000), FinalUnitPrice(100, 5_000, 500_000))

	// 上限为 0 时取内置默认
	assert.Equal(t, uint64(consts.DefaultPriorityLimit), FinalUnitPrice(100_000_000_000, 100_000, 0))

	// units 为 0 时跳过下限项，只看市场项
	assert.Equal(t, uint64(120), FinalUnitPrice(100, 0, 0))
}

// 一次完整估算：检查 wire 参数与中位数 + 偏移的合成
func TestEstimate(t *testing.T) {
	var gotParams []json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getRecentPrioritizationFees", req.Method)
		gotParams = req.Params

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[
			{"slot":100,"prioritizationFee":300},
			{"slot":101,"prioritizationFee":100},
			{"slot":102,"prioritizationFee":200}
		]}`))
	}))
	defer srv.Close()

	e := NewEstimator(srv.URL, 5*time.Second)
	price, err := e.Estimate(context.Background(), []string{"E4SfgGV2v9GLYsEoxpCfU2S1nKGBg1Zr4uDb6USdrkx6"}, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(200+consts.PriorityFeeOffset), price, "推荐价 = 中位数 + 固定偏移")

	// 分位参数放大 100 倍传输
	require.Len(t, gotParams, 2)
	var opts struct {
		Percentile uint32 `json:"percentile"`
	}
	require.NoError(t, json.Unmarshal(gotParams[1], &opts))
	assert.Equal(t, uint32(5000), opts.Percentile, "50 分位在 wire 上应该是 5000")
}

// 样本为空时回退调用方给的兜底单价，不叠加偏移
func TestEstimate_EmptySamples(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[]}`))
	}))
	defer srv.Close()

	e := NewEstimator(srv.URL, 5*time.Second)
	price, err := e.Estimate(context.Background(), nil, 50, 12345)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), price, "空样本应该原样返回兜底单价")
}

// 网络失败返回 FeeEstimationError
func TestEstimate_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := NewEstimator(srv.URL, 5*time.Second)
	_, err := e.Estimate(context.Background(), nil, 50, 0)
	var feeErr *errs.FeeEstimationError
	assert.ErrorAs(t, err, &feeErr, "网络失败应该分类为 FeeEstimationError")
}

// 分位超界直接拒绝，不发请求
func TestEstimate_PercentileOutOfRange(t *testing.T) {
	e := NewEstimator("http://127.0.0.1:0", time.Second)
	_, err := e.Estimate(context.Background(), nil, 101, 0)
	assert.ErrorContains(t, err, "percentile out of range")
}

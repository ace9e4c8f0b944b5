// Package builder 编排完整的智能交易构建流程：
// 校验 → 取 blockhash → 模拟测算 CU → 估算/合成单价 → 前插 compute-budget 指令 → 序列化。
package builder

import (
	"context"
	"fmt"
	"math"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/logic/fee"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/compute_budget"
	"github.com/blocto/solana-go-sdk/rpc"
	soltypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// BlockhashFetcher 由 client.Client 满足
type BlockhashFetcher interface {
	GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error)
}

// ComputeEstimator 参见 internal/logic/compute
type ComputeEstimator interface {
	Estimate(ctx context.Context, instrs []soltypes.Instruction, payer common.PublicKey, tables []soltypes.AddressLookupTableAccount) (uint64, error)
}

// FeeEstimator 参见 internal/logic/fee
type FeeEstimator interface {
	Estimate(ctx context.Context, accountKeys []string, percentile uint32, defaultPrice uint64) (uint64, error)
}

type Builder struct {
	chain   BlockhashFetcher
	compute ComputeEstimator
	fee     FeeEstimator
}

func New(chain BlockhashFetcher, compute ComputeEstimator, feeEst FeeEstimator) *Builder {
	return &Builder{chain: chain, compute: compute, fee: feeEst}
}

// Params 为单次构建的全部输入；每次调用独立，组件间不共享可变状态
type Params struct {
	Instructions  []soltypes.Instruction
	Payer         common.PublicKey
	LookupTables  []soltypes.AddressLookupTableAccount
	AccountKeys   []string // 优先费采样涉及的账户（base58）
	PriorityLimit uint64   // 单价绝对上限（micro-lamports），0 表示默认值
	Percentile    uint32   // 优先费采样分位 0–100
	DefaultPrice  uint64   // 样本为空时的兜底单价
	OverridePrice *uint64  // 非 nil 时跳过费率估算，直接采用该单价
}

// Result 为构建产物：base58 编码的未签名交易及定价明细
type Result struct {
	Transaction string // base58 编码、签名位以零占位的完整交易
	UnitLimit   uint32
	UnitPrice   uint64
	Blockhash   string
	Versioned   bool
}

// Build 执行一次完整构建。
// CU 估算失败整体中止，绝不携带猜测预算出单；
// 费率估算失败仅在调用方提供 override 时可绕过（此时根本不会发起估算）。
func (b *Builder) Build(ctx context.Context, p Params) (*Result, error) {
	if len(p.Instructions) == 0 {
		return nil, errs.ErrInvalidTransfer
	}
	// compute-budget 指令由本组件独占生成，出现在输入里是调用方错误
	for _, ix := range p.Instructions {
		if ix.ProgramID == consts.ComputeBudgetProgram {
			return nil, errs.ErrComputeBudgetOwned
		}
	}

	// 费率采样与模拟互不依赖，先行并发发起；单价合成要等模拟出的 CU，放在后面
	type feeReply struct {
		recommended uint64
		err         error
	}
	var feeCh chan feeReply
	if p.OverridePrice == nil {
		feeCh = make(chan feeReply, 1)
		go func() {
			recommended, err := b.fee.Estimate(ctx, p.AccountKeys, p.Percentile, p.DefaultPrice)
			feeCh <- feeReply{recommended: recommended, err: err}
		}()
	}

	latest, err := b.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("getLatestBlockhash: %w", err)
	}

	tables := p.LookupTables
	if len(tables) == 0 {
		tables = nil
	}
	units, err := b.compute.Estimate(ctx, p.Instructions, p.Payer, tables)
	if err != nil {
		return nil, err
	}
	unitLimit := UnitBudget(units)

	var unitPrice uint64
	if p.OverridePrice != nil {
		unitPrice = *p.OverridePrice
	} else {
		reply := <-feeCh
		if reply.err != nil {
			return nil, reply.err
		}
		unitPrice = fee.FinalUnitPrice(reply.recommended, units, p.PriorityLimit)
	}

	final := PrependComputeBudget(p.Instructions, unitLimit, unitPrice)

	msg := soltypes.NewMessage(soltypes.NewMessageParam{
		FeePayer:                   p.Payer,
		Instructions:               final,
		RecentBlockhash:            latest.Blockhash,
		AddressLookupTableAccounts: tables,
	})
	raw, err := serializeUnsigned(msg)
	if err != nil {
		return nil, err
	}

	return &Result{
		Transaction: base58.Encode(raw),
		UnitLimit:   unitLimit,
		UnitPrice:   unitPrice,
		Blockhash:   latest.Blockhash,
		Versioned:   tables != nil,
	}, nil
}

// UnitBudget 由模拟消耗推导生产预算：max(1000, ceil(units × 1.3))，
// 顶格不超过协议上限
func UnitBudget(measured uint64) uint32 {
	budget := uint64(math.Ceil(float64(measured) * consts.ComputeUnitMargin))
	if budget < uint64(consts.ComputeUnitFloor) {
		budget = uint64(consts.ComputeUnitFloor)
	}
	if budget > uint64(consts.MaxComputeUnits) {
		budget = uint64(consts.MaxComputeUnits)
	}
	return uint32(budget)
}

// PrependComputeBudget 把 compute-budget 指令插到指令列表最前，
// 最终顺序固定为 [SetComputeUnitLimit, SetComputeUnitPrice, ...转账指令]。
// 顺序敏感，勿改：对应的单测锁定了该顺序。
func PrependComputeBudget(instrs []soltypes.Instruction, unitLimit uint32, unitPrice uint64) []soltypes.Instruction {
	out := make([]soltypes.Instruction, 0, len(instrs)+2)
	out = append(out, compute_budget.SetComputeUnitLimit(compute_budget.SetComputeUnitLimitParam{Units: unitLimit}))
	out = append(out, compute_budget.SetComputeUnitPrice(compute_budget.SetComputeUnitPriceParam{MicroLamports: unitPrice}))
	out = append(out, instrs...)
	return out
}

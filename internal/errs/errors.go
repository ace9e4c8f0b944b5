// Package errs 定义交易构建管线的错误分类。
// 所有来自网络的原始错误（RPC / indexer / HTTP）必须在组件边界内
// 转换为这里的结构化错误，原始 JSON 不允许向上层泄漏。
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransfer 转账描述列表为空或单条描述非法
	ErrInvalidTransfer = errors.New("invalid transfer: empty or malformed transfer list")

	// ErrComputeBudgetOwned 调用方传入了 compute-budget 指令（该类指令由 builder 独占生成）
	ErrComputeBudgetOwned = errors.New("compute budget instructions are owned by the builder")

	// ErrEstimationUnavailable 模拟成功但未返回 unitsConsumed，视为"无法估算"而非 0
	ErrEstimationUnavailable = errors.New("simulation returned no consumed units")

	// ErrRouteNotFound 主备两级都未能给出可用报价
	ErrRouteNotFound = errors.New("no swap route found on primary or fallback backend")
)

// SimulationError 表示模拟执行时链上程序返回的结构化错误（程序地址 + 错误码）
type SimulationError struct {
	ProgramID string // 出错指令对应的程序地址（base58，可能为空）
	Code      uint32 // 链上自定义错误码
	Detail    string // 无法解析为 Custom 错误码时的归一化描述
}

func (e *SimulationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("simulation failed: program=%s: %s", e.ProgramID, e.Detail)
	}
	return fmt.Sprintf("simulation failed: program=%s code=%d", e.ProgramID, e.Code)
}

// FeeEstimationError 表示优先费样本拉取失败；仅当调用方显式提供 override 价格时可恢复
type FeeEstimationError struct {
	Err error
}

func (e *FeeEstimationError) Error() string {
	return fmt.Sprintf("priority fee estimation failed: %v", e.Err)
}

func (e *FeeEstimationError) Unwrap() error { return e.Err }

// AssetResolutionError 表示 NFT / mint 的链上或 indexer 数据无法解析
type AssetResolutionError struct {
	Asset string // mint 或 asset 地址（base58）
	Err   error
}

func (e *AssetResolutionError) Error() string {
	return fmt.Sprintf("asset %s resolution failed: %v", e.Asset, e.Err)
}

func (e *AssetResolutionError) Unwrap() error { return e.Err }

// ProofTruncationError 表示 canopy 深度超过了 indexer 返回的 proof 长度
type ProofTruncationError struct {
	ProofLen    int
	CanopyDepth int
}

func (e *ProofTruncationError) Error() string {
	return fmt.Sprintf("canopy depth %d exceeds proof length %d", e.CanopyDepth, e.ProofLen)
}

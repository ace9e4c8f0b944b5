// Package compute 通过集群模拟测量候选交易的真实计算单元消耗。
package compute

import (
	"context"
	"encoding/json"
	"fmt"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/errs"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/compute_budget"
	"github.com/blocto/solana-go-sdk/rpc"
	soltypes "github.com/blocto/solana-go-sdk/types"
)

// Simulator 是估算器依赖的模拟能力（由 client.Client 满足）
type Simulator interface {
	SimulateTransactionWithConfig(ctx context.Context, tx soltypes.Transaction, cfg client.SimulateTransactionConfig) (client.SimulateTransaction, error)
}

type Estimator struct {
	sim Simulator
}

func NewEstimator(sim Simulator) *Estimator {
	return &Estimator{sim: sim}
}

// Estimate 模拟执行并返回消耗的计算单元。
// 模拟报告链上程序错误时返回结构化 SimulationError；
// 模拟成功但缺失 unitsConsumed 视为"无法估算"而非 0。
func (e *Estimator) Estimate(ctx context.Context, instrs []soltypes.Instruction, payer common.PublicKey, tables []soltypes.AddressLookupTableAccount) (uint64, error) {
	probe, programIDs := buildProbe(instrs, payer, tables)

	value, err := e.sim.SimulateTransactionWithConfig(ctx, probe, client.SimulateTransactionConfig{
		SigVerify:              false,
		ReplaceRecentBlockhash: true,
		Commitment:             rpc.CommitmentConfirmed,
	})
	if err != nil {
		return 0, fmt.Errorf("simulateTransaction: %w", err)
	}
	if value.Err != nil {
		return 0, decodeSimulationError(value.Err, programIDs)
	}
	if value.UnitConsumed == nil {
		return 0, errs.ErrEstimationUnavailable
	}
	return *value.UnitConsumed, nil
}

// buildProbe 构造一次性探测交易：占位 blockhash + 顶格 compute limit，
// 保证被测程序逻辑不会在测量阶段被限额截断。签名全部以零占位，
// 配合 sigVerify=false 提交。返回值附带探测指令的程序地址表，供错误定位。
func buildProbe(instrs []soltypes.Instruction, payer common.PublicKey, tables []soltypes.AddressLookupTableAccount) (soltypes.Transaction, []string) {
	probeInstrs := make([]soltypes.Instruction, 0, len(instrs)+1)
	probeInstrs = append(probeInstrs, compute_budget.SetComputeUnitLimit(compute_budget.SetComputeUnitLimitParam{
		Units: consts.MaxComputeUnits,
	}))
	probeInstrs = append(probeInstrs, instrs...)

	programIDs := make([]string, len(probeInstrs))
	for i, ix := range probeInstrs {
		programIDs[i] = ix.ProgramID.ToBase58()
	}

	if len(tables) == 0 {
		tables = nil // 与生产序列化保持同一格式：无 lookup table 时为 legacy
	}
	msg := soltypes.NewMessage(soltypes.NewMessageParam{
		FeePayer:                   payer,
		Instructions:               probeInstrs,
		RecentBlockhash:            consts.PlaceholderBlockhash,
		AddressLookupTableAccounts: tables,
	})

	sigs := make([]soltypes.Signature, msg.Header.NumRequireSignatures)
	for i := range sigs {
		sigs[i] = make(soltypes.Signature, 64)
	}
	return soltypes.Transaction{Signatures: sigs, Message: msg}, programIDs
}

// decodeSimulationError 把模拟返回的原始错误归一化为结构化 SVM 错误，
// 原始 JSON 不向上层泄漏。
// 常见形态：{"InstructionError":[1,{"Custom":6001}]}、{"InstructionError":[1,"InvalidAccountData"]}、"AccountNotFound"
func decodeSimulationError(raw any, programIDs []string) error {
	blob, err := json.Marshal(raw)
	if err != nil {
		return &errs.SimulationError{Detail: fmt.Sprintf("%v", raw)}
	}

	var wrapper struct {
		InstructionError []json.RawMessage `json:"InstructionError"`
	}
	if err := json.Unmarshal(blob, &wrapper); err != nil || len(wrapper.InstructionError) != 2 {
		var name string
		if json.Unmarshal(blob, &name) == nil {
			return &errs.SimulationError{Detail: name}
		}
		return &errs.SimulationError{Detail: string(blob)}
	}

	var idx int
	_ = json.Unmarshal(wrapper.InstructionError[0], &idx)
	programID := ""
	if idx >= 0 && idx < len(programIDs) {
		programID = programIDs[idx]
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(wrapper.InstructionError[1], &obj) == nil {
		if rawCode, ok := obj["Custom"]; ok {
			var code uint32
			if json.Unmarshal(rawCode, &code) == nil {
				return &errs.SimulationError{ProgramID: programID, Code: code}
			}
		}
		return &errs.SimulationError{ProgramID: programID, Detail: string(wrapper.InstructionError[1])}
	}
	var name string
	if json.Unmarshal(wrapper.InstructionError[1], &name) == nil {
		return &errs.SimulationError{ProgramID: programID, Detail: name}
	}
	return &errs.SimulationError{ProgramID: programID, Detail: string(wrapper.InstructionError[1])}
}

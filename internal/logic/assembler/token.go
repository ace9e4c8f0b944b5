package assembler

import (
	"context"
	"encoding/binary"
	"fmt"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/logic/transfer"

	"github.com/blocto/solana-go-sdk/common"
	soltypes "github.com/blocto/solana-go-sdk/types"
)

// SPL Token 指令编号（Token v1 与 Token-2022 共用布局）
const tokenInstructionTransferChecked = 12

// assembleToken 装配 SPL 代币转账：
// 动态解析 token program（Token v1 / Token-2022 并存，绝不假定单一程序），
// 目标 ATA 仅在链上读确认缺失时才追加创建指令，最后发一条 transfer-checked。
// NFT mint 走本路径时由上游置 Amount=1 / Decimals=0。
func (a *Assembler) assembleToken(ctx context.Context, from, to common.PublicKey, d *transfer.Descriptor) ([]soltypes.Instruction, error) {
	prog := d.Program
	if !consts.IsSPLTokenProgram(prog) {
		var err error
		prog, err = a.resolveTokenProgram(ctx, d.Mint)
		if err != nil {
			return nil, err
		}
	}

	srcATA, err := deriveAssociatedTokenAccount(from, d.Mint, prog)
	if err != nil {
		return nil, fmt.Errorf("derive source ata: %w", err)
	}
	dstATA, err := deriveAssociatedTokenAccount(to, d.Mint, prog)
	if err != nil {
		return nil, fmt.Errorf("derive destination ata: %w", err)
	}

	var instrs []soltypes.Instruction
	exists, err := a.accountExists(ctx, dstATA)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: d.Mint.ToBase58(), Err: err}
	}
	if !exists {
		instrs = append(instrs, createATAIdempotent(from, to, dstATA, d.Mint, prog))
	}

	instrs = append(instrs, transferChecked(srcATA, d.Mint, dstATA, from, d.Amount, d.Decimals, prog))
	return instrs, nil
}

// resolveTokenProgram 读取 mint 账户的 owner 判定归属的 token 程序
func (a *Assembler) resolveTokenProgram(ctx context.Context, mint common.PublicKey) (common.PublicKey, error) {
	info, err := a.chain.GetAccountInfo(ctx, mint.ToBase58())
	if err != nil {
		return common.PublicKey{}, &errs.AssetResolutionError{Asset: mint.ToBase58(), Err: err}
	}
	if !consts.IsSPLTokenProgram(info.Owner) {
		return common.PublicKey{}, &errs.AssetResolutionError{
			Asset: mint.ToBase58(),
			Err:   fmt.Errorf("mint owner %s is not a token program", info.Owner.ToBase58()),
		}
	}
	return info.Owner, nil
}

// deriveAssociatedTokenAccount 按 (owner, tokenProgram, mint) 派生 ATA 地址。
// 不用 SDK 的 FindAssociatedTokenAddress：它把 token program 固化为 v1，
// Token-2022 的派生种子会算错。
func deriveAssociatedTokenAccount(owner, mint, tokenProgram common.PublicKey) (common.PublicKey, error) {
	ata, _, err := common.FindProgramAddress(
		[][]byte{owner.Bytes(), tokenProgram.Bytes(), mint.Bytes()},
		consts.AssociatedTokenProgram,
	)
	if err != nil {
		return common.PublicKey{}, err
	}
	return ata, nil
}

// createATAIdempotent 手工构造幂等建户指令。
// SDK 的 builder 同样把 accounts 里的 token program 固化为 v1，无法覆盖 Token-2022。
func createATAIdempotent(funder, owner, ata, mint, tokenProgram common.PublicKey) soltypes.Instruction {
	return soltypes.Instruction{
		ProgramID: consts.AssociatedTokenProgram,
		Accounts: []soltypes.AccountMeta{
			{PubKey: funder, IsSigner: true, IsWritable: true},
			{PubKey: ata, IsWritable: true},
			{PubKey: owner},
			{PubKey: mint},
			{PubKey: consts.SystemProgram},
			{PubKey: tokenProgram},
		},
		Data: []byte{1}, // CreateIdempotent
	}
}

// transferChecked 手工构造 transfer-checked：携带 decimals 供链上校验
func transferChecked(src, mint, dst, owner common.PublicKey, amount uint64, decimals uint8, tokenProgram common.PublicKey) soltypes.Instruction {
	data := make([]byte, 0, 10)
	data = append(data, tokenInstructionTransferChecked)
	data = binary.LittleEndian.AppendUint64(data, amount)
	data = append(data, decimals)
	return soltypes.Instruction{
		ProgramID: tokenProgram,
		Accounts: []soltypes.AccountMeta{
			{PubKey: src, IsWritable: true},
			{PubKey: mint},
			{PubKey: dst, IsWritable: true},
			{PubKey: owner, IsSigner: true},
		},
		Data: data,
	}
}

package assembler

import (
	"fmt"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/logic/transfer"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	soltypes "github.com/blocto/solana-go-sdk/types"
)

// assembleNative 装配原生 SOL 转账。
// 普通转账只需一条 system transfer；收款方要求 wrapped 形态时，
// 指令顺序必须是 [create-ata-idempotent, system-transfer, sync-native]：
// sync 先于 transfer 执行时金额不会计入 token 余额，且链上不报错。
func (a *Assembler) assembleNative(from, to common.PublicKey, d *transfer.Descriptor) ([]soltypes.Instruction, error) {
	if !d.Wrapped {
		return []soltypes.Instruction{
			system.Transfer(system.TransferParam{From: from, To: to, Amount: d.Amount}),
		}, nil
	}

	ata, err := deriveAssociatedTokenAccount(to, consts.WSOLMint, consts.TokenProgram)
	if err != nil {
		return nil, fmt.Errorf("derive wsol ata for %s: %w", to.ToBase58(), err)
	}

	return []soltypes.Instruction{
		createATAIdempotent(from, to, ata, consts.WSOLMint, consts.TokenProgram),
		system.Transfer(system.TransferParam{From: from, To: ata, Amount: d.Amount}),
		token.SyncNative(token.SyncNativeParam{Account: ata}),
	}, nil
}

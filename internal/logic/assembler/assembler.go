// Package assembler 把逻辑转账描述装配为链上指令序列。
// 指令顺序严格跟随描述输入顺序，不做重排与跨描述合并。
package assembler

import (
	"context"
	"fmt"

	"wallet-tx-sol/internal/das"
	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/logic/transfer"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	soltypes "github.com/blocto/solana-go-sdk/types"
)

// ChainReader 是装配器依赖的链上只读能力（由 client.Client 满足）
type ChainReader interface {
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
}

type Assembler struct {
	chain ChainReader
	das   das.Fetcher
}

func New(chain ChainReader, dasClient das.Fetcher) *Assembler {
	return &Assembler{chain: chain, das: dasClient}
}

// Assemble 将 transfers 逐条装配为指令并按输入顺序拼接。
// transfers 为空或含非法描述时返回 ErrInvalidTransfer。
func (a *Assembler) Assemble(ctx context.Context, from, to common.PublicKey, transfers []*transfer.Descriptor) ([]soltypes.Instruction, error) {
	if len(transfers) == 0 {
		return nil, errs.ErrInvalidTransfer
	}

	instrs := make([]soltypes.Instruction, 0, len(transfers)*2)
	for i, d := range transfers {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: transfer[%d]: %s", errs.ErrInvalidTransfer, i, err)
		}

		var (
			out []soltypes.Instruction
			err error
		)
		switch d.Kind {
		case transfer.AssetNative:
			out, err = a.assembleNative(from, to, d)
		case transfer.AssetToken:
			out, err = a.assembleToken(ctx, from, to, d)
		case transfer.AssetCompressedNft:
			out, err = a.assembleCompressedNft(ctx, from, to, d)
		case transfer.AssetCoreNft:
			out, err = a.assembleCoreNft(ctx, from, to, d)
		default:
			err = fmt.Errorf("%w: transfer[%d]: unknown asset kind %d", errs.ErrInvalidTransfer, i, uint8(d.Kind))
		}
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, out...)
	}
	return instrs, nil
}

// accountExists 通过链上读判断账户是否已存在（不存在的账户返回零值 AccountInfo）
func (a *Assembler) accountExists(ctx context.Context, addr common.PublicKey) (bool, error) {
	info, err := a.chain.GetAccountInfo(ctx, addr.ToBase58())
	if err != nil {
		return false, fmt.Errorf("getAccountInfo %s: %w", addr.ToBase58(), err)
	}
	return info.Owner != (common.PublicKey{}), nil
}

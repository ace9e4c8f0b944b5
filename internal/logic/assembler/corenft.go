package assembler

import (
	"context"
	"fmt"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/logic/transfer"
	itypes "wallet-tx-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	soltypes "github.com/blocto/solana-go-sdk/types"
)

// MPL-Core TransferV1 的指令判别字节
const mplCoreTransferV1 = 14

// assembleCoreNft 装配 MPL-Core NFT 转移：单条固定布局指令，
// 数据为 [discriminator, compressionProof=None]，不携带压缩证明
// （压缩形态是另一套极少出现的编码，本路径不产生）。
// 可选账户缺省时按惯例以程序自身地址占位。
func (a *Assembler) assembleCoreNft(ctx context.Context, from, to common.PublicKey, d *transfer.Descriptor) ([]soltypes.Instruction, error) {
	assetID := d.Mint.ToBase58()
	asset, err := a.das.GetAsset(ctx, assetID)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: err}
	}

	// collection 从 grouping 中提取；无集合时以程序地址占位
	collection := consts.MplCoreProgram
	for _, g := range asset.Grouping {
		if g.GroupKey == "collection" && g.GroupValue != "" {
			collection, err = itypes.TryPubkeyFromBase58(g.GroupValue)
			if err != nil {
				return nil, &errs.AssetResolutionError{Asset: assetID, Err: fmt.Errorf("bad collection address: %w", err)}
			}
			break
		}
	}

	ix := soltypes.Instruction{
		ProgramID: consts.MplCoreProgram,
		Accounts: []soltypes.AccountMeta{
			{PubKey: d.Mint, IsWritable: true},               // asset
			{PubKey: collection},                             // collection（可选）
			{PubKey: from, IsSigner: true, IsWritable: true}, // payer
			{PubKey: consts.MplCoreProgram},                  // authority（缺省 → payer 即 authority）
			{PubKey: to},                                     // new owner
			{PubKey: consts.SystemProgram},                   // system program
			{PubKey: consts.MplCoreProgram},                  // log wrapper（缺省）
		},
		Data: []byte{mplCoreTransferV1, 0}, // Option<CompressionProof> = None
	}
	return []soltypes.Instruction{ix}, nil
}

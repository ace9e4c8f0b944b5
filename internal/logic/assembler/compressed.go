package assembler

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/das"
	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/logic/transfer"
	itypes "wallet-tx-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	soltypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
)

// Bubblegum transfer 指令的 anchor 判别码
var bubblegumTransferDiscriminator = []byte{163, 52, 200, 231, 140, 3, 69, 186}

// bubblegumTransferArgs 为判别码之后的 borsh 载荷
type bubblegumTransferArgs struct {
	Root        [32]uint8
	DataHash    [32]uint8
	CreatorHash [32]uint8
	Nonce       uint64
	Index       uint32
}

// assembleCompressedNft 装配压缩 NFT 转移。
// 资产元数据与 merkle proof 相互独立，并发拉取后汇合，任一失败即中止；
// proof 按树上 canopy 深度截断后作为只读非签名账户追加在固定账户之后。
func (a *Assembler) assembleCompressedNft(ctx context.Context, from, to common.PublicKey, d *transfer.Descriptor) ([]soltypes.Instruction, error) {
	assetID := d.Mint.ToBase58()

	var (
		wg       sync.WaitGroup
		asset    *das.Asset
		assetErr error
		proof    *das.AssetProof
		proofErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		asset, assetErr = a.das.GetAsset(ctx, assetID)
	}()
	go func() {
		defer wg.Done()
		proof, proofErr = a.das.GetAssetProof(ctx, assetID)
	}()
	wg.Wait()

	if assetErr != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: assetErr}
	}
	if proofErr != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: proofErr}
	}
	if !asset.Compression.Compressed {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: errors.New("asset is not compressed")}
	}

	leafOwner, err := itypes.TryPubkeyFromBase58(asset.Ownership.Owner)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: fmt.Errorf("bad owner address: %w", err)}
	}
	if leafOwner != from {
		return nil, &errs.AssetResolutionError{
			Asset: assetID,
			Err:   fmt.Errorf("asset owned by %s, not sender", asset.Ownership.Owner),
		}
	}
	leafDelegate := leafOwner
	if asset.Ownership.Delegated && asset.Ownership.Delegate != "" {
		leafDelegate, err = itypes.TryPubkeyFromBase58(asset.Ownership.Delegate)
		if err != nil {
			return nil, &errs.AssetResolutionError{Asset: assetID, Err: fmt.Errorf("bad delegate address: %w", err)}
		}
	}

	tree, err := itypes.TryPubkeyFromBase58(proof.TreeID)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: fmt.Errorf("bad tree address: %w", err)}
	}
	root, err := decodeHash32(proof.Root)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: fmt.Errorf("bad proof root: %w", err)}
	}
	dataHash, err := decodeHash32(asset.Compression.DataHash)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: fmt.Errorf("bad data hash: %w", err)}
	}
	creatorHash, err := decodeHash32(asset.Compression.CreatorHash)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: fmt.Errorf("bad creator hash: %w", err)}
	}

	canopy, err := a.treeCanopyDepth(ctx, tree)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: err}
	}
	proofKeys, err := itypes.TryPubkeysFromBase58(proof.Proof)
	if err != nil {
		return nil, &errs.AssetResolutionError{Asset: assetID, Err: fmt.Errorf("bad proof path: %w", err)}
	}
	truncated, err := truncateProof(proofKeys, canopy)
	if err != nil {
		return nil, err
	}

	// tree authority = PDA([merkleTree], bubblegum)
	treeAuthority, _, err := common.FindProgramAddress([][]byte{tree.Bytes()}, consts.BubblegumProgram)
	if err != nil {
		return nil, fmt.Errorf("derive tree authority: %w", err)
	}

	payload, err := borsh.Serialize(bubblegumTransferArgs{
		Root:        root,
		DataHash:    dataHash,
		CreatorHash: creatorHash,
		Nonce:       asset.Compression.LeafID,
		Index:       uint32(asset.Compression.LeafID),
	})
	if err != nil {
		return nil, fmt.Errorf("serialize bubblegum transfer args: %w", err)
	}
	data := make([]byte, 0, len(bubblegumTransferDiscriminator)+len(payload))
	data = append(data, bubblegumTransferDiscriminator...)
	data = append(data, payload...)

	accounts := make([]soltypes.AccountMeta, 0, 8+len(truncated))
	accounts = append(accounts,
		soltypes.AccountMeta{PubKey: treeAuthority},
		soltypes.AccountMeta{PubKey: leafOwner, IsSigner: true},
		soltypes.AccountMeta{PubKey: leafDelegate},
		soltypes.AccountMeta{PubKey: to},
		soltypes.AccountMeta{PubKey: tree, IsWritable: true},
		soltypes.AccountMeta{PubKey: consts.SPLNoopProgram},
		soltypes.AccountMeta{PubKey: consts.AccountCompressionProgram},
		soltypes.AccountMeta{PubKey: consts.SystemProgram},
	)
	for _, p := range truncated {
		accounts = append(accounts, soltypes.AccountMeta{PubKey: p}) // 只读、非签名
	}

	return []soltypes.Instruction{{
		ProgramID: consts.BubblegumProgram,
		Accounts:  accounts,
		Data:      data,
	}}, nil
}

// truncateProof 去掉 proof 末尾 canopy 覆盖的部分；canopy 超过 proof 长度为致命错误
func truncateProof(proof []common.PublicKey, canopyDepth int) ([]common.PublicKey, error) {
	if canopyDepth > len(proof) {
		return nil, &errs.ProofTruncationError{ProofLen: len(proof), CanopyDepth: canopyDepth}
	}
	return proof[:len(proof)-canopyDepth], nil
}

// treeCanopyDepth 读取 merkle 树账户并推导 canopy 深度
func (a *Assembler) treeCanopyDepth(ctx context.Context, tree common.PublicKey) (int, error) {
	info, err := a.chain.GetAccountInfo(ctx, tree.ToBase58())
	if err != nil {
		return 0, fmt.Errorf("getAccountInfo merkle tree %s: %w", tree.ToBase58(), err)
	}
	if len(info.Data) == 0 {
		return 0, fmt.Errorf("merkle tree account %s not found", tree.ToBase58())
	}
	return canopyDepthFromAccount(info.Data)
}

// canopyDepthFromAccount 按 spl-account-compression 的账户布局推导 canopy 深度：
// header(56) = accountType(1) + version(1) + maxBufferSize(u32) + maxDepth(u32) + authority(32) + creationSlot(u64) + padding(6)
// body = 24 + maxBufferSize*(40 + 32*maxDepth) + 40 + 32*maxDepth
// 其后全部为 canopy 节点，每节点 32 字节，节点数 = 2^(depth+1) - 2
func canopyDepthFromAccount(data []byte) (int, error) {
	const headerLen = 56
	if len(data) < headerLen {
		return 0, fmt.Errorf("merkle tree account too short: %d bytes", len(data))
	}
	maxBufferSize := int(binary.LittleEndian.Uint32(data[2:6]))
	maxDepth := int(binary.LittleEndian.Uint32(data[6:10]))
	if maxDepth <= 0 || maxDepth > 30 {
		return 0, fmt.Errorf("implausible merkle tree depth %d", maxDepth)
	}

	bodyLen := 24 + maxBufferSize*(40+32*maxDepth) + 40 + 32*maxDepth
	canopyBytes := len(data) - headerLen - bodyLen
	if canopyBytes < 0 {
		return 0, fmt.Errorf("merkle tree account shorter than computed body: len=%d body=%d", len(data), bodyLen)
	}

	nodes := canopyBytes / 32
	depth := 0
	for (1<<(depth+1))-2 < nodes {
		depth++
	}
	if (1<<(depth+1))-2 != nodes {
		return 0, fmt.Errorf("unexpected canopy node count %d", nodes)
	}
	return depth, nil
}

func decodeHash32(s string) ([32]uint8, error) {
	var out [32]uint8
	raw, err := base58.Decode(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("invalid hash length: got %d, want 32", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

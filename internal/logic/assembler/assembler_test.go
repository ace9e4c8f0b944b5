package assembler

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"wallet-tx-sol/internal/consts"
	"wallet-tx-sol/internal/das"
	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/logic/transfer"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testFrom = common.PublicKeyFromString("E4SfgGV2v9GLYsEoxpCfU2S1nKGBg1Zr4uDb6USdrkx6")
	testTo   = common.PublicKeyFromString("7dGbd2QZcCKcTndnHcTL8q7SMVXAkp688NTQYwrRCrar")
	testMint = common.PublicKeyFromString("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

// fakeChain 以内存 map 模拟链上账户状态
type fakeChain struct {
	accounts map[string]client.AccountInfo
	err      error
}

func (f *fakeChain) GetAccountInfo(_ context.Context, addr string) (client.AccountInfo, error) {
	if f.err != nil {
		return client.AccountInfo{}, f.err
	}
	return f.accounts[addr], nil
}

// fakeDas 以固定返回模拟 indexer
type fakeDas struct {
	asset    *das.Asset
	assetErr error
	proof    *das.AssetProof
	proofErr error
}

func (f *fakeDas) GetAsset(_ context.Context, _ string) (*das.Asset, error) {
	return f.asset, f.assetErr
}

func (f *fakeDas) GetAssetProof(_ context.Context, _ string) (*das.AssetProof, error) {
	return f.proof, f.proofErr
}

// 空列表与非法描述都应该拒绝
func TestAssemble_InvalidInput(t *testing.T) {
	a := New(&fakeChain{}, &fakeDas{})

	_, err := a.Assemble(context.Background(), testFrom, testTo, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidTransfer, "空列表应该返回 ErrInvalidTransfer")

	_, err = a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetNative, Amount: 0},
	})
	assert.ErrorIs(t, err, errs.ErrInvalidTransfer, "非法描述应该包装为 ErrInvalidTransfer")
}

// 普通 SOL 转账只产出一条 system transfer
func TestAssemble_NativePlain(t *testing.T) {
	a := New(&fakeChain{}, &fakeDas{})

	instrs, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetNative, Amount: 1_000_000},
	})
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, consts.SystemProgram, instrs[0].ProgramID)
}

// wrapped SOL 的指令顺序固定：建户 → 转账 → sync-native
func TestAssemble_NativeWrappedOrder(t *testing.T) {
	a := New(&fakeChain{}, &fakeDas{})

	instrs, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetNative, Amount: 1_000_000, Wrapped: true},
	})
	require.NoError(t, err)
	require.Len(t, instrs, 3, "wrapped 转账应该产出 3 条指令")

	assert.Equal(t, consts.AssociatedTokenProgram, instrs[0].ProgramID, "第一条应该是建 ATA")
	assert.Equal(t, []byte{1}, instrs[0].Data, "建户必须走幂等变体")
	assert.Equal(t, consts.SystemProgram, instrs[1].ProgramID, "第二条应该是 system transfer")
	assert.Equal(t, consts.TokenProgram, instrs[2].ProgramID, "第三条应该是 sync-native")
	assert.Equal(t, []byte{17}, instrs[2].Data, "SyncNative 的指令编号是 17")

	// transfer 的收款方必须是 WSOL ATA 而不是钱包地址
	wsolATA, err := deriveAssociatedTokenAccount(testTo, consts.WSOLMint, consts.TokenProgram)
	require.NoError(t, err)
	assert.Equal(t, wsolATA, instrs[1].Accounts[1].PubKey, "SOL 应该打入 WSOL ATA")
	assert.Equal(t, wsolATA, instrs[2].Accounts[0].PubKey, "sync-native 作用于同一 ATA")
}

// 目标 ATA 缺失时追加建户指令，已存在时只发 transfer-checked
func TestAssemble_TokenCreatesATAOnlyWhenMissing(t *testing.T) {
	dstATA, err := deriveAssociatedTokenAccount(testTo, testMint, consts.TokenProgram)
	require.NoError(t, err)

	chain := &fakeChain{accounts: map[string]client.AccountInfo{
		testMint.ToBase58(): {Owner: consts.TokenProgram},
	}}
	a := New(chain, &fakeDas{})

	d := &transfer.Descriptor{Kind: transfer.AssetToken, Mint: testMint, Decimals: 6, Amount: 1_500_000}

	// ATA 缺失：建户 + 转账
	instrs, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{d})
	require.NoError(t, err)
	require.Len(t, instrs, 2, "目标 ATA 缺失时应该追加建户指令")
	assert.Equal(t, consts.AssociatedTokenProgram, instrs[0].ProgramID)
	assert.Equal(t, consts.TokenProgram, instrs[1].ProgramID)

	// transfer-checked 编码：指令号 12 + 金额 u64 LE + decimals
	data := instrs[1].Data
	require.Len(t, data, 10)
	assert.Equal(t, byte(tokenInstructionTransferChecked), data[0])
	assert.Equal(t, uint64(1_500_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, byte(6), data[9])

	// ATA 已存在：只发 transfer-checked
	chain.accounts[dstATA.ToBase58()] = client.AccountInfo{Owner: consts.TokenProgram}
	instrs, err = a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{d})
	require.NoError(t, err)
	require.Len(t, instrs, 1, "目标 ATA 已存在时不应该重复建户")
	assert.Equal(t, consts.TokenProgram, instrs[0].ProgramID)
}

// token program 从 mint owner 动态解析，Token-2022 的派生跟着走
func TestAssemble_TokenResolvesToken2022(t *testing.T) {
	chain := &fakeChain{accounts: map[string]client.AccountInfo{
		testMint.ToBase58(): {Owner: consts.TokenProgram2022},
	}}
	a := New(chain, &fakeDas{})

	instrs, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetToken, Mint: testMint, Decimals: 9, Amount: 1},
	})
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, consts.TokenProgram2022, instrs[1].ProgramID, "transfer-checked 应该发给 Token-2022")

	// 建户指令的最后一个账户是所属 token program
	accounts := instrs[0].Accounts
	assert.Equal(t, consts.TokenProgram2022, accounts[len(accounts)-1].PubKey, "ATA 派生必须带 Token-2022")
}

// mint owner 不是 token 程序时拒绝
func TestAssemble_TokenBadMintOwner(t *testing.T) {
	chain := &fakeChain{accounts: map[string]client.AccountInfo{
		testMint.ToBase58(): {Owner: consts.SystemProgram},
	}}
	a := New(chain, &fakeDas{})

	_, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetToken, Mint: testMint, Amount: 1},
	})
	var resErr *errs.AssetResolutionError
	assert.ErrorAs(t, err, &resErr, "非 token mint 应该返回 AssetResolutionError")
}

// 多条描述的指令按输入顺序拼接，不重排
func TestAssemble_PreservesOrder(t *testing.T) {
	chain := &fakeChain{accounts: map[string]client.AccountInfo{
		testMint.ToBase58(): {Owner: consts.TokenProgram},
	}}
	a := New(chain, &fakeDas{})

	instrs, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetNative, Amount: 500},
		{Kind: transfer.AssetToken, Mint: testMint, Decimals: 6, Amount: 100},
	})
	require.NoError(t, err)
	require.Len(t, instrs, 3)
	assert.Equal(t, consts.SystemProgram, instrs[0].ProgramID, "native 指令应该排在最前")
	assert.Equal(t, consts.AssociatedTokenProgram, instrs[1].ProgramID)
	assert.Equal(t, consts.TokenProgram, instrs[2].ProgramID)
}

// core NFT：单条固定布局指令
func TestAssemble_CoreNft(t *testing.T) {
	collection := common.PublicKeyFromString("4Rf9mGD7FeYknun5JczX5nGLTfQuS1GRjNVfkEMKE92b")
	dasStub := &fakeDas{asset: &das.Asset{
		ID:        testMint.ToBase58(),
		Ownership: das.Ownership{Owner: testFrom.ToBase58()},
		Grouping:  []das.Grouping{{GroupKey: "collection", GroupValue: collection.ToBase58()}},
	}}
	a := New(&fakeChain{}, dasStub)

	instrs, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetCoreNft, Mint: testMint, Amount: 1},
	})
	require.NoError(t, err)
	require.Len(t, instrs, 1)

	ix := instrs[0]
	assert.Equal(t, consts.MplCoreProgram, ix.ProgramID)
	assert.Equal(t, []byte{mplCoreTransferV1, 0}, ix.Data, "数据应该是判别字节 + Option None")
	require.Len(t, ix.Accounts, 7)
	assert.Equal(t, testMint, ix.Accounts[0].PubKey, "第一个账户是 asset")
	assert.True(t, ix.Accounts[0].IsWritable)
	assert.Equal(t, collection, ix.Accounts[1].PubKey, "grouping 里的集合应该被带上")
	assert.Equal(t, testFrom, ix.Accounts[2].PubKey)
	assert.True(t, ix.Accounts[2].IsSigner, "payer 必须签名")
	assert.Equal(t, testTo, ix.Accounts[4].PubKey)
}

// core NFT 无集合时以程序地址占位
func TestAssemble_CoreNftNoCollection(t *testing.T) {
	dasStub := &fakeDas{asset: &das.Asset{
		ID:        testMint.ToBase58(),
		Ownership: das.Ownership{Owner: testFrom.ToBase58()},
	}}
	a := New(&fakeChain{}, dasStub)

	instrs, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetCoreNft, Mint: testMint, Amount: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, consts.MplCoreProgram, instrs[0].Accounts[1].PubKey, "无集合时以程序地址占位")
}

// 构造一个符合 spl-account-compression 布局的 merkle 树账户
func buildTreeAccount(maxDepth, maxBufferSize, canopyDepth int) []byte {
	bodyLen := 24 + maxBufferSize*(40+32*maxDepth) + 40 + 32*maxDepth
	canopyNodes := (1 << (canopyDepth + 1)) - 2
	data := make([]byte, 56+bodyLen+canopyNodes*32)
	binary.LittleEndian.PutUint32(data[2:6], uint32(maxBufferSize))
	binary.LittleEndian.PutUint32(data[6:10], uint32(maxDepth))
	return data
}

func TestCanopyDepthFromAccount(t *testing.T) {
	depth, err := canopyDepthFromAccount(buildTreeAccount(14, 64, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, depth, "无 canopy 时深度为 0")

	depth, err = canopyDepthFromAccount(buildTreeAccount(14, 64, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, depth)

	depth, err = canopyDepthFromAccount(buildTreeAccount(3, 8, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, depth)

	// 截断的账户数据应该报错而不是给出假深度
	_, err = canopyDepthFromAccount(make([]byte, 10))
	assert.Error(t, err, "过短的账户应该报错")
}

func TestTruncateProof(t *testing.T) {
	proof := make([]common.PublicKey, 14)

	out, err := truncateProof(proof, 0)
	require.NoError(t, err)
	assert.Len(t, out, 14)

	out, err = truncateProof(proof, 3)
	require.NoError(t, err)
	assert.Len(t, out, 11, "canopy 覆盖的尾部应该被截掉")

	_, err = truncateProof(proof, 15)
	var truncErr *errs.ProofTruncationError
	assert.ErrorAs(t, err, &truncErr, "canopy 超过 proof 长度是致命错误")
	assert.Equal(t, 14, truncErr.ProofLen)
	assert.Equal(t, 15, truncErr.CanopyDepth)
}

// 压缩 NFT 全链路：元数据 + proof → 单条 bubblegum 指令
func TestAssemble_CompressedNft(t *testing.T) {
	tree := common.PublicKeyFromString("5Y9L5R2wJ3sJCzGwDvgkpbyGSZUmnvAaPaoDYYKmVPMd")
	zeroHash := "11111111111111111111111111111111" // 32 字节零值的 base58

	proofNodes := make([]string, 14)
	for i := range proofNodes {
		proofNodes[i] = common.PublicKeyFromBytes([]byte(fmt.Sprintf("proof-node-%02d-%s", i, "aaaaaaaaaaaaaaaaa"))).ToBase58()
	}

	dasStub := &fakeDas{
		asset: &das.Asset{
			ID: testMint.ToBase58(),
			Compression: das.Compression{
				Compressed:  true,
				Tree:        tree.ToBase58(),
				LeafID:      42,
				DataHash:    zeroHash,
				CreatorHash: zeroHash,
			},
			Ownership: das.Ownership{Owner: testFrom.ToBase58()},
		},
		proof: &das.AssetProof{
			Root:   zeroHash,
			Proof:  proofNodes,
			TreeID: tree.ToBase58(),
		},
	}
	chain := &fakeChain{accounts: map[string]client.AccountInfo{
		tree.ToBase58(): {
			Owner: consts.AccountCompressionProgram,
			Data:  buildTreeAccount(14, 64, 3),
		},
	}}
	a := New(chain, dasStub)

	instrs, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetCompressedNft, Mint: testMint, Amount: 1},
	})
	require.NoError(t, err)
	require.Len(t, instrs, 1)

	ix := instrs[0]
	assert.Equal(t, consts.BubblegumProgram, ix.ProgramID)

	// 8 个固定账户 + 截断后的 11 个 proof 账户
	require.Len(t, ix.Accounts, 8+11, "proof 应该按 canopy 深度截断")
	assert.Equal(t, testFrom, ix.Accounts[1].PubKey, "leaf owner 是发送方")
	assert.True(t, ix.Accounts[1].IsSigner)
	assert.Equal(t, testTo, ix.Accounts[3].PubKey)
	assert.Equal(t, tree, ix.Accounts[4].PubKey)
	assert.True(t, ix.Accounts[4].IsWritable, "merkle 树账户可写")
	for _, meta := range ix.Accounts[8:] {
		assert.False(t, meta.IsSigner, "proof 账户既不签名")
		assert.False(t, meta.IsWritable, "也不可写")
	}

	// 数据 = 判别码(8) + root(32) + dataHash(32) + creatorHash(32) + nonce(8) + index(4)
	require.Len(t, ix.Data, 8+32+32+32+8+4)
	assert.Equal(t, bubblegumTransferDiscriminator, ix.Data[:8])
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(ix.Data[104:112]), "nonce 取 leaf_id")
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(ix.Data[112:116]), "index 取 leaf_id")
}

// 持有人不是发送方时直接拒绝
func TestAssemble_CompressedNftWrongOwner(t *testing.T) {
	zeroHash := "11111111111111111111111111111111"
	dasStub := &fakeDas{
		asset: &das.Asset{
			ID:          testMint.ToBase58(),
			Compression: das.Compression{Compressed: true, DataHash: zeroHash, CreatorHash: zeroHash},
			Ownership:   das.Ownership{Owner: testTo.ToBase58()},
		},
		proof: &das.AssetProof{Root: zeroHash, TreeID: testMint.ToBase58()},
	}
	a := New(&fakeChain{}, dasStub)

	_, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetCompressedNft, Mint: testMint, Amount: 1},
	})
	var resErr *errs.AssetResolutionError
	assert.ErrorAs(t, err, &resErr, "非持有人转移应该返回 AssetResolutionError")
}

// indexer 任一路失败都应该中止
func TestAssemble_CompressedNftIndexerFailure(t *testing.T) {
	dasStub := &fakeDas{
		asset:    &das.Asset{ID: testMint.ToBase58(), Compression: das.Compression{Compressed: true}},
		proofErr: errors.New("indexer timeout"),
	}
	a := New(&fakeChain{}, dasStub)

	_, err := a.Assemble(context.Background(), testFrom, testTo, []*transfer.Descriptor{
		{Kind: transfer.AssetCompressedNft, Mint: testMint, Amount: 1},
	})
	var resErr *errs.AssetResolutionError
	assert.ErrorAs(t, err, &resErr, "proof 拉取失败应该返回 AssetResolutionError")
}

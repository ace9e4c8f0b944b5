package consts

import (
	"wallet-tx-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
)

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	// Programs
	SystemProgramStr          = "11111111111111111111111111111111"
	TokenProgramStr           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenProgram2022Str       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	ComputeBudgetProgramStr   = "ComputeBudget111111111111111111111111111111"

	// NFT Programs
	BubblegumProgramStr          = "BGUMAp9Gq7iTEuizy4pqaxsTyUCBK68MDfK752saRPUY"
	MplCoreProgramStr            = "CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d"
	SPLNoopProgramStr            = "noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV"
	AccountCompressionProgramStr = "cmtDvXumGCrqC1Age74AVPhSRVXJMd8PJS91L8KbNCK"

	// 原生 SOL 的 wrapped 形态
	WSOLMintStr = "So11111111111111111111111111111111111111112"
)

var (
	// Programs
	SystemProgram          = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram           = types.PubkeyFromBase58(TokenProgramStr)
	TokenProgram2022       = types.PubkeyFromBase58(TokenProgram2022Str)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)
	ComputeBudgetProgram   = types.PubkeyFromBase58(ComputeBudgetProgramStr)

	// NFT Programs
	BubblegumProgram          = types.PubkeyFromBase58(BubblegumProgramStr)
	MplCoreProgram            = types.PubkeyFromBase58(MplCoreProgramStr)
	SPLNoopProgram            = types.PubkeyFromBase58(SPLNoopProgramStr)
	AccountCompressionProgram = types.PubkeyFromBase58(AccountCompressionProgramStr)

	WSOLMint = types.PubkeyFromBase58(WSOLMintStr)
)

// IsSPLTokenProgram 判断是否为标准 SPL Token 程序（Token v1 或 Token-2022）
func IsSPLTokenProgram(programID common.PublicKey) bool {
	return programID == TokenProgram || programID == TokenProgram2022
}

// Package transfer 定义跨四类资产的转账描述模型。
package transfer

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

// AssetKind 是封闭的资产形态枚举，装配器按其做穷举分派。
// 禁止在运行期做开放式类型判断来扩展新形态。
type AssetKind uint8

const (
	AssetNative        AssetKind = iota // 原生 SOL
	AssetToken                          // SPL 同质化代币（含 Token-2022）
	AssetCompressedNft                  // 压缩 NFT（状态在 merkle 树上）
	AssetCoreNft                        // MPL-Core NFT
)

func (k AssetKind) String() string {
	switch k {
	case AssetNative:
		return "native"
	case AssetToken:
		return "token"
	case AssetCompressedNft:
		return "compressed_nft"
	case AssetCoreNft:
		return "core_nft"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Descriptor 表示一条逻辑转账："把资产 X 从 A 转给 B"。
// NFT 的数量恒为 1，Amount 字段对 NFT 无意义。
type Descriptor struct {
	Kind     AssetKind
	Mint     common.PublicKey // mint / asset 地址（native 时为零值）
	Program  common.PublicKey // 资产所属程序；token 场景由链上 mint owner 动态解析，可为零值
	Decimals uint8            // 仅 fungible 有意义
	Amount   uint64           // 基础单位整数数量；NFT 固定视为 1
	Wrapped  bool             // native 专用：收款方要求 wrapped SOL（打入 WSOL ATA）
}

// Validate 校验单条描述的静态不变量
func (d *Descriptor) Validate() error {
	switch d.Kind {
	case AssetNative:
		if d.Amount == 0 {
			return fmt.Errorf("native transfer amount must be positive")
		}
	case AssetToken:
		if d.Mint == (common.PublicKey{}) {
			return fmt.Errorf("token transfer requires mint address")
		}
		if d.Amount == 0 {
			return fmt.Errorf("token transfer amount must be positive")
		}
	case AssetCompressedNft, AssetCoreNft:
		if d.Mint == (common.PublicKey{}) {
			return fmt.Errorf("%s transfer requires asset address", d.Kind)
		}
		if d.Amount > 1 {
			return fmt.Errorf("%s transfer quantity is always 1, got %d", d.Kind, d.Amount)
		}
	default:
		return fmt.Errorf("unknown asset kind %d", uint8(d.Kind))
	}
	return nil
}

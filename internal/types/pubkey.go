package types

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// TryPubkeyFromBase58 解析 base58 字符串为公钥，失败时返回 error（用于不信任输入路径）。
// SDK 自带的 common.PublicKeyFromString 会静默吞掉解析错误，外部输入一律走这里。
func TryPubkeyFromBase58(s string) (common.PublicKey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	if len(data) != 32 {
		return common.PublicKey{}, fmt.Errorf("invalid pubkey length: got %d, want 32, input=%q", len(data), s)
	}
	var p common.PublicKey
	copy(p[:], data)
	return p, nil
}

// PubkeyFromBase58 解析内置常量用，输入非法直接 panic
func PubkeyFromBase58(s string) common.PublicKey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

// TryPubkeysFromBase58 批量解析，任一失败即整体失败
func TryPubkeysFromBase58(strs []string) ([]common.PublicKey, error) {
	result := make([]common.PublicKey, 0, len(strs))
	for _, s := range strs {
		p, err := TryPubkeyFromBase58(s)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

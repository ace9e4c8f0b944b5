package builder

import (
	"fmt"

	soltypes "github.com/blocto/solana-go-sdk/types"
)

// serializeUnsigned 以零签名占位序列化交易，签名由外部 signer 事后填充。
// lookup table 非空时 NewMessage 产出 v0 报文，序列化结果即 version-0 交易；
// 否则为 legacy 交易。
func serializeUnsigned(msg soltypes.Message) ([]byte, error) {
	sigs := make([]soltypes.Signature, msg.Header.NumRequireSignatures)
	for i := range sigs {
		sigs[i] = make(soltypes.Signature, 64)
	}
	tx := soltypes.Transaction{Signatures: sigs, Message: msg}
	raw, err := tx.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	return raw, nil
}

package handler

// TransferItem 为 API 层的单条转账描述
type TransferItem struct {
	Kind     string `json:"kind"`               // native / token / compressed_nft / core_nft
	Mint     string `json:"mint,omitempty"`     // mint / asset 地址（native 可省略）
	Decimals uint8  `json:"decimals,omitempty"` // 仅 token 需要
	Amount   uint64 `json:"amount,omitempty"`   // 基础单位数量；NFT 可省略（恒为 1）
	Wrapped  bool   `json:"wrapped,omitempty"`  // native 专用：打入收款方 WSOL ATA
}

// LookupTableItem 为调用方提供的 address lookup table 内容
type LookupTableItem struct {
	Key       string   `json:"key"`
	Addresses []string `json:"addresses"`
}

type BuildTransferRequest struct {
	From          string            `json:"from"`
	To            string            `json:"to"`
	Transfers     []TransferItem    `json:"transfers"`
	LookupTables  []LookupTableItem `json:"lookup_tables,omitempty"`
	Percentile    uint32            `json:"percentile,omitempty"`     // 0 取配置默认
	PriorityLimit uint64            `json:"priority_limit,omitempty"` // 0 取配置默认
	PriceOverride *uint64           `json:"price_override,omitempty"` // 指定时跳过费率估算
}

type BuildTransferResponse struct {
	Transaction string `json:"transaction"` // base58 编码的未签名交易
	UnitLimit   uint32 `json:"unit_limit"`
	UnitPrice   uint64 `json:"unit_price"`
	Blockhash   string `json:"blockhash"`
	Versioned   bool   `json:"versioned"`
}

type SwapQuoteRequest struct {
	InputMint   string `json:"input_mint"`
	OutputMint  string `json:"output_mint"`
	Amount      uint64 `json:"amount"`
	SlippageBps uint32 `json:"slippage_bps,omitempty"`
}

type SwapQuoteResponse struct {
	Source         string  `json:"source"` // primary / fallback
	InputMint      string  `json:"input_mint"`
	OutputMint     string  `json:"output_mint"`
	InAmount       uint64  `json:"in_amount"`
	OutAmount      uint64  `json:"out_amount"`
	PriceImpactPct float64 `json:"price_impact_pct"`
}

type errorResponse struct {
	Error string `json:"error"`
}

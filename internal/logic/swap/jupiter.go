package swap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/ratelimit"
)

// JupiterClient 调公共聚合器（降级路径）。
// 公共端点有配额限制，本地限流避免被封。
type JupiterClient struct {
	endpoint string
	http     *http.Client
	limiter  ratelimit.Limiter
}

func NewJupiterClient(endpoint string, rps int, timeout time.Duration) *JupiterClient {
	if rps <= 0 {
		rps = 10
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JupiterClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		limiter:  ratelimit.New(rps),
	}
}

// jupiterQuoteResponse 里的数量字段为十进制字符串
type jupiterQuoteResponse struct {
	InputMint      string `json:"inputMint"`
	OutputMint     string `json:"outputMint"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`
}

func (c *JupiterClient) Quote(ctx context.Context, req QuoteRequest) (*Route, error) {
	c.limiter.Take()

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatUint(req.Amount, 10))
	q.Set("slippageBps", strconv.FormatUint(uint64(req.SlippageBps), 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build public quote request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("public quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("public quote: unexpected status %d", resp.StatusCode)
	}

	var out jupiterQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode public quote: %w", err)
	}

	inAmount, err := strconv.ParseUint(out.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse inAmount %q: %w", out.InAmount, err)
	}
	outAmount, err := strconv.ParseUint(out.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse outAmount %q: %w", out.OutAmount, err)
	}
	impact, _ := strconv.ParseFloat(out.PriceImpactPct, 64) // 缺失时按 0 处理

	return &Route{
		InputMint:      out.InputMint,
		OutputMint:     out.OutputMint,
		InAmount:       inAmount,
		OutAmount:      outAmount,
		PriceImpactPct: impact,
	}, nil
}

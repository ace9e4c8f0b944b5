package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// BackendClient 调内部报价后端（主路径）
type BackendClient struct {
	endpoint string
	http     *http.Client
}

func NewBackendClient(endpoint string, timeout time.Duration) *BackendClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type backendQuoteRequest struct {
	InputMint   string `json:"inputMint"`
	OutputMint  string `json:"outputMint"`
	Amount      uint64 `json:"amount"`
	SlippageBps uint32 `json:"slippageBps"`
}

type backendQuoteResponse struct {
	InputMint      string  `json:"inputMint"`
	OutputMint     string  `json:"outputMint"`
	InAmount       uint64  `json:"inAmount"`
	OutAmount      uint64  `json:"outAmount"`
	PriceImpactPct float64 `json:"priceImpactPct"`
}

func (c *BackendClient) Quote(ctx context.Context, req QuoteRequest) (*Route, error) {
	body, err := json.Marshal(backendQuoteRequest{
		InputMint:   req.InputMint,
		OutputMint:  req.OutputMint,
		Amount:      req.Amount,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal quote request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/quote", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend quote: unexpected status %d", resp.StatusCode)
	}

	var out backendQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode backend quote: %w", err)
	}
	if out.OutAmount == 0 {
		return nil, fmt.Errorf("backend quote: empty route")
	}
	return &Route{
		InputMint:      out.InputMint,
		OutputMint:     out.OutputMint,
		InAmount:       out.InAmount,
		OutAmount:      out.OutAmount,
		PriceImpactPct: out.PriceImpactPct,
	}, nil
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/logic/swap"
	"wallet-tx-sol/internal/svc"
	"wallet-tx-sol/pkg/logger"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// SwapQuoteHandler 两级路由报价
func SwapQuoteHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf("[api] swap quote panic: %v\nstack: %s", rec, debug.Stack())
				writeError(w, http.StatusInternalServerError, fmt.Errorf("internal error"))
			}
		}()

		var req SwapQuoteRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if req.InputMint == "" || req.OutputMint == "" || req.Amount == 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("input_mint, output_mint and amount are required"))
			return
		}

		result, err := svcCtx.Router.Quote(r.Context(), swap.QuoteRequest{
			InputMint:   req.InputMint,
			OutputMint:  req.OutputMint,
			Amount:      req.Amount,
			SlippageBps: req.SlippageBps,
		})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, errs.ErrRouteNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err)
			return
		}

		httpx.OkJson(w, SwapQuoteResponse{
			Source:         string(result.Source),
			InputMint:      result.Route.InputMint,
			OutputMint:     result.Route.OutputMint,
			InAmount:       result.Route.InAmount,
			OutAmount:      result.Route.OutAmount,
			PriceImpactPct: result.Route.PriceImpactPct,
		})
	}
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/internal/logic/builder"
	"wallet-tx-sol/internal/logic/transfer"
	"wallet-tx-sol/internal/mq"
	"wallet-tx-sol/internal/svc"
	itypes "wallet-tx-sol/internal/types"
	"wallet-tx-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/common"
	soltypes "github.com/blocto/solana-go-sdk/types"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// TransferHandler 装配并构建一笔多资产转账交易
func TransferHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf("[api] transfer panic: %v\nstack: %s", rec, debug.Stack())
				writeError(w, http.StatusInternalServerError, fmt.Errorf("internal error"))
			}
		}()

		var req BuildTransferRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		from, err := itypes.TryPubkeyFromBase58(req.From)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad from address: %w", err))
			return
		}
		to, err := itypes.TryPubkeyFromBase58(req.To)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad to address: %w", err))
			return
		}

		descriptors, err := toDescriptors(req.Transfers)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		tables, err := toLookupTables(req.LookupTables)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		start := time.Now()
		ctx := r.Context()

		instrs, err := svcCtx.Assembler.Assemble(ctx, from, to, descriptors)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		percentile := req.Percentile
		if percentile == 0 {
			percentile = svcCtx.Config.FeeConf.Percentile
		}
		priorityLimit := req.PriorityLimit
		if priorityLimit == 0 {
			priorityLimit = svcCtx.Config.FeeConf.PriorityLimit
		}

		result, err := svcCtx.Builder.Build(ctx, builder.Params{
			Instructions:  instrs,
			Payer:         from,
			LookupTables:  tables,
			AccountKeys:   feeAccountKeys(req, descriptors),
			PriorityLimit: priorityLimit,
			Percentile:    percentile,
			DefaultPrice:  svcCtx.Config.FeeConf.DefaultPrice,
			OverridePrice: req.PriceOverride,
		})
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}

		svcCtx.Auditor.Publish(mq.BuildAuditRecord{
			Payer:      req.From,
			UnitLimit:  result.UnitLimit,
			UnitPrice:  result.UnitPrice,
			TxSize:     len(result.Transaction),
			Versioned:  result.Versioned,
			DurationMs: time.Since(start).Milliseconds(),
			BuiltAt:    time.Now().Unix(),
		})

		httpx.OkJson(w, BuildTransferResponse{
			Transaction: result.Transaction,
			UnitLimit:   result.UnitLimit,
			UnitPrice:   result.UnitPrice,
			Blockhash:   result.Blockhash,
			Versioned:   result.Versioned,
		})
	}
}

// toDescriptors 把 API 描述转换为内部模型；NFT 数量统一归一为 1
func toDescriptors(items []TransferItem) ([]*transfer.Descriptor, error) {
	descriptors := make([]*transfer.Descriptor, 0, len(items))
	for i, item := range items {
		d := &transfer.Descriptor{
			Decimals: item.Decimals,
			Amount:   item.Amount,
			Wrapped:  item.Wrapped,
		}
		switch item.Kind {
		case "native":
			d.Kind = transfer.AssetNative
		case "token":
			d.Kind = transfer.AssetToken
		case "compressed_nft":
			d.Kind = transfer.AssetCompressedNft
			d.Amount = 1
		case "core_nft":
			d.Kind = transfer.AssetCoreNft
			d.Amount = 1
		default:
			return nil, fmt.Errorf("transfer[%d]: unknown kind %q", i, item.Kind)
		}
		if item.Mint != "" {
			mint, err := itypes.TryPubkeyFromBase58(item.Mint)
			if err != nil {
				return nil, fmt.Errorf("transfer[%d]: bad mint: %w", i, err)
			}
			d.Mint = mint
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func toLookupTables(items []LookupTableItem) ([]soltypes.AddressLookupTableAccount, error) {
	if len(items) == 0 {
		return nil, nil
	}
	tables := make([]soltypes.AddressLookupTableAccount, 0, len(items))
	for i, item := range items {
		key, err := itypes.TryPubkeyFromBase58(item.Key)
		if err != nil {
			return nil, fmt.Errorf("lookup_tables[%d]: bad key: %w", i, err)
		}
		addresses, err := itypes.TryPubkeysFromBase58(item.Addresses)
		if err != nil {
			return nil, fmt.Errorf("lookup_tables[%d]: %w", i, err)
		}
		tables = append(tables, soltypes.AddressLookupTableAccount{Key: key, Addresses: addresses})
	}
	return tables, nil
}

// feeAccountKeys 汇集优先费采样涉及的账户：双方地址加所有 mint
func feeAccountKeys(req BuildTransferRequest, descriptors []*transfer.Descriptor) []string {
	keys := make([]string, 0, len(descriptors)+2)
	keys = append(keys, req.From, req.To)
	for _, d := range descriptors {
		if d.Mint != (common.PublicKey{}) {
			keys = append(keys, d.Mint.ToBase58())
		}
	}
	return keys
}

// statusFor 按错误分类映射 HTTP 状态码
func statusFor(err error) int {
	var simErr *errs.SimulationError
	var feeErr *errs.FeeEstimationError
	var assetErr *errs.AssetResolutionError
	var proofErr *errs.ProofTruncationError
	switch {
	case errors.Is(err, errs.ErrInvalidTransfer), errors.Is(err, errs.ErrComputeBudgetOwned):
		return http.StatusBadRequest
	case errors.As(err, &simErr), errors.As(err, &proofErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &assetErr):
		return http.StatusNotFound
	case errors.As(err, &feeErr), errors.Is(err, errs.ErrEstimationUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	httpx.WriteJson(w, status, errorResponse{Error: err.Error()})
}

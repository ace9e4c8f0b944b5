// Package swap 为上层兑换调用提供两级报价路由：
// 先走内部报价后端，任何失败恰好降级公共上游一次，不做退避重试循环。
package swap

import (
	"context"
	"fmt"

	"wallet-tx-sol/internal/errs"
	"wallet-tx-sol/pkg/logger"
)

// RouteSource 显式标记结果来自哪一级，降级路径必须对调用方可见
type RouteSource string

const (
	RouteSourcePrimary  RouteSource = "primary"
	RouteSourceFallback RouteSource = "fallback"
)

// QuoteRequest 为一次报价请求
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64 // 输入资产基础单位数量
	SlippageBps uint32
}

// Route 为任一后端归一化后的报价结果
type Route struct {
	InputMint      string
	OutputMint     string
	InAmount       uint64
	OutAmount      uint64
	PriceImpactPct float64
}

// RouteResult 携带报价与其来源
type RouteResult struct {
	Source RouteSource
	Route  *Route
}

// Quoter 为单个后端的报价能力
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (*Route, error)
}

type Router struct {
	primary  Quoter
	fallback Quoter
}

func NewRouter(primary, fallback Quoter) *Router {
	return &Router{primary: primary, fallback: fallback}
}

// Quote 两级路由：主后端成功即返回；任何失败降级公共上游恰好一次。
// 降级后仍无结果为终态 ErrRouteNotFound。
func (r *Router) Quote(ctx context.Context, req QuoteRequest) (*RouteResult, error) {
	route, err := r.primary.Quote(ctx, req)
	if err == nil && route != nil {
		return &RouteResult{Source: RouteSourcePrimary, Route: route}, nil
	}
	if err != nil {
		logger.Warnf("[SwapRouter] 主后端报价失败，降级公共端点: %v", err)
	}

	route, err = r.fallback.Quote(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrRouteNotFound, err)
	}
	if route == nil {
		return nil, errs.ErrRouteNotFound
	}
	return &RouteResult{Source: RouteSourceFallback, Route: route}, nil
}

package handler

import (
	"net/http"

	"wallet-tx-sol/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

// RegisterHandlers 注册全部 API 路由
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodPost,
			Path:    "/api/tx/transfer",
			Handler: TransferHandler(svcCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/api/swap/quote",
			Handler: SwapQuoteHandler(svcCtx),
		},
	})
}

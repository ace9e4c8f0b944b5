package svc

import (
	"time"

	"wallet-tx-sol/internal/config"
	"wallet-tx-sol/internal/das"
	"wallet-tx-sol/internal/logic/assembler"
	"wallet-tx-sol/internal/logic/builder"
	"wallet-tx-sol/internal/logic/compute"
	"wallet-tx-sol/internal/logic/fee"
	"wallet-tx-sol/internal/logic/swap"
	"wallet-tx-sol/internal/mq"
	"wallet-tx-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
)

// ServiceContext 汇集交易构建服务的全部依赖。
// RPC 连接显式注入各组件，不存在任何全局/隐式连接状态。
type ServiceContext struct {
	Config    config.Config
	Client    *client.Client
	Das       *das.Client
	Assembler *assembler.Assembler
	Builder   *builder.Builder
	Router    *swap.Router
	Auditor   *mq.AuditPublisher
}

// NewServiceContext 创建服务上下文
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	rpcClient := client.NewClient(c.RpcConf.Endpoint)

	dasClient := das.NewClient(c.IndexerConf.Endpoint, time.Duration(c.IndexerConf.TimeoutS)*time.Second)

	asm := assembler.New(rpcClient, dasClient)
	computeEst := compute.NewEstimator(rpcClient)
	// 带 percentile 参数的 getRecentPrioritizationFees 为 RPC 扩展方法，直连端点
	feeEst := fee.NewEstimator(c.RpcConf.Endpoint, time.Duration(c.RpcConf.TimeoutS)*time.Second)
	txBuilder := builder.New(rpcClient, computeEst, feeEst)

	swapTimeout := time.Duration(c.SwapConf.TimeoutS) * time.Second
	router := swap.NewRouter(
		swap.NewBackendClient(c.SwapConf.BackendEndpoint, swapTimeout),
		swap.NewJupiterClient(c.SwapConf.PublicEndpoint, c.SwapConf.PublicRps, swapTimeout),
	)

	ctx := &ServiceContext{
		Config:    c,
		Client:    rpcClient,
		Das:       dasClient,
		Assembler: asm,
		Builder:   txBuilder,
		Router:    router,
	}

	if c.KafkaConf.Enabled {
		producer, err := mq.NewKafkaProducer(c.KafkaConf.ToKafkaOption())
		if err != nil {
			logger.Errorf("[svc] Kafka producer 初始化失败: %v", err)
			return nil, err
		}
		ctx.Auditor = mq.NewAuditPublisher(producer, c.KafkaConf.Topic,
			time.Duration(c.KafkaConf.TimeoutMs)*time.Millisecond)
	}

	logger.Infof("[svc] 服务上下文初始化完成")
	return ctx, nil
}

// Close 释放服务上下文持有的资源
func (ctx *ServiceContext) Close() {
	if ctx.Auditor != nil {
		ctx.Auditor.Close()
	}
}

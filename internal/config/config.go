package config

import (
	"fmt"
	"os"

	"wallet-tx-sol/internal/mq"
	"wallet-tx-sol/pkg/logger"

	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RpcConfig 表示 Solana RPC 节点配置
type RpcConfig struct {
	Endpoint string `yaml:"endpoint"`  // RPC 节点地址，例如 https://api.mainnet-beta.solana.com
	TimeoutS int    `yaml:"timeout_s"` // 单次 RPC 调用超时（秒）
}

// IndexerConfig 表示 DAS indexer（压缩/Core NFT 查询）配置
type IndexerConfig struct {
	Endpoint string `yaml:"endpoint"`  // indexer 地址（JSON-RPC POST）
	TimeoutS int    `yaml:"timeout_s"` // 单次查询超时（秒）
}

// FeeConfig 表示优先费估算配置
type FeeConfig struct {
	Percentile    uint32 `yaml:"percentile"`     // 采样分位 0–100（未指定走该默认值）
	PriorityLimit uint64 `yaml:"priority_limit"` // 单 CU 价格绝对上限（micro-lamports），0 取内置默认
	DefaultPrice  uint64 `yaml:"default_price"`  // 样本为空时的兜底单价（micro-lamports）
}

// SwapConfig 表示兑换路由的两级后端配置
type SwapConfig struct {
	BackendEndpoint string `yaml:"backend_endpoint"` // 内部报价后端（主路径）
	PublicEndpoint  string `yaml:"public_endpoint"`  // 公共聚合器（降级路径）
	PublicRps       int    `yaml:"public_rps"`       // 公共端点限流（每秒请求数）
	TimeoutS        int    `yaml:"timeout_s"`        // 单次报价超时（秒）
}

// KafkaAuditConfig 表示构建审计事件的 Kafka 配置
type KafkaAuditConfig struct {
	Enabled    bool   `yaml:"enabled"`    // 关闭时不初始化生产者
	Brokers    string `yaml:"brokers"`    // broker 地址，多个用英文逗号分隔
	Topic      string `yaml:"topic"`      // 审计事件 topic
	Partitions int    `yaml:"partitions"` // topic 分区数
	BatchSize  int    `yaml:"batch_size"` // 批处理大小（单位字节）
	LingerMs   int    `yaml:"linger_ms"`  // 批处理最大延迟（毫秒）
	TimeoutMs  int    `yaml:"timeout_ms"` // 单条事件等待 ack 的超时（毫秒）
}

func (c *KafkaAuditConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:    c.Brokers,
		BatchSize:  c.BatchSize,
		LingerMs:   c.LingerMs,
		Topic:      c.Topic,
		Partitions: c.Partitions,
	}
}

// Config 是主配置结构体，用于驱动交易构建服务
type Config struct {
	LogConf     LogConfig        `yaml:"logger"`      // 日志配置
	RpcConf     RpcConfig        `yaml:"rpc"`         // Solana RPC 配置
	IndexerConf IndexerConfig    `yaml:"indexer"`     // DAS indexer 配置
	FeeConf     FeeConfig        `yaml:"fee"`         // 优先费估算配置
	SwapConf    SwapConfig       `yaml:"swap"`        // 兑换路由配置
	KafkaConf   KafkaAuditConfig `yaml:"kafka_audit"` // 审计事件配置

	// HTTP API 监听配置
	Api struct {
		Host string `yaml:"host"` // 监听地址
		Port int    `yaml:"port"` // 监听端口
	} `yaml:"api"`
}

// MustLoad 读取并解析 yaml 配置，失败直接 panic（启动期错误没有恢复余地）
func MustLoad(path string, c *Config) {
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("read config %s: %w", path, err))
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		panic(fmt.Errorf("parse config %s: %w", path, err))
	}
}

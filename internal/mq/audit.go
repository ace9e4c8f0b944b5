package mq

import (
	"encoding/json"
	"time"

	"wallet-tx-sol/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// BuildAuditRecord 为一次成功构建的审计事件，仅记录定价与规模，不含任何密钥材料
type BuildAuditRecord struct {
	Payer      string `json:"payer"`
	UnitLimit  uint32 `json:"unit_limit"`
	UnitPrice  uint64 `json:"unit_price"`
	TxSize     int    `json:"tx_size"`
	Versioned  bool   `json:"versioned"`
	DurationMs int64  `json:"duration_ms"`
	BuiltAt    int64  `json:"built_at"`
}

// AuditPublisher 把审计事件异步发往 Kafka。
// 发送是尽力而为：失败只记日志，绝不影响构建主链路。
type AuditPublisher struct {
	producer *kafka.Producer
	topic    string
	timeout  time.Duration
}

func NewAuditPublisher(producer *kafka.Producer, topic string, timeout time.Duration) *AuditPublisher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AuditPublisher{producer: producer, topic: topic, timeout: timeout}
}

// Publish 发送一条审计事件并在后台等待 ack
func (p *AuditPublisher) Publish(record BuildAuditRecord) {
	if p == nil || p.producer == nil {
		return
	}

	value, err := json.Marshal(record)
	if err != nil {
		logger.Errorf("[mq] 审计事件序列化失败: %v", err)
		return
	}

	deliveryChan := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Value: value,
	}, deliveryChan)
	if err != nil {
		logger.Warnf("[mq] 审计事件入队失败: %v", err)
		return
	}

	// 后台等待投递结果，超时后 drain 避免回调阻塞
	go func() {
		select {
		case e, ok := <-deliveryChan:
			if !ok {
				logger.Warnf("[mq] delivery channel closed unexpectedly")
				return
			}
			msg, ok := e.(*kafka.Message)
			if !ok {
				logger.Warnf("[mq] invalid message type: %T", e)
				return
			}
			if msg.TopicPartition.Error != nil {
				logger.Warnf("[mq] 审计事件投递失败: %v", msg.TopicPartition.Error)
			}
		case <-time.After(p.timeout):
			go safeDrain(deliveryChan)
			logger.Warnf("[mq] 审计事件投递超时 (>%v)", p.timeout)
		}
	}()
}

// Close flush 未投递的事件并关闭生产者
func (p *AuditPublisher) Close() {
	if p == nil || p.producer == nil {
		return
	}
	p.producer.Flush(int(p.timeout / time.Millisecond))
	p.producer.Close()
}

// safeDrain 确保 deliveryChan 被 drain，避免 Kafka 回调阻塞
func safeDrain(ch <-chan kafka.Event) {
	defer func() {
		_ = recover() // deliveryChan 已被回收导致 panic 的极端场景，吞掉
	}()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
	}
}

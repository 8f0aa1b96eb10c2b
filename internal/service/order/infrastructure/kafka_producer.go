package infrastructure

import (
	"context"
	"encoding/json"

	"sky-takeout/internal/pkg/mq"
	"sky-takeout/internal/service/order/domain"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// StatusEventProducer 把订单状态变更事件写入 kafka，key 为订单号
type StatusEventProducer struct {
	writer *kafka.Writer
}

func NewStatusEventProducer(writer *kafka.Writer) *StatusEventProducer {
	return &StatusEventProducer{writer: writer}
}

func (p *StatusEventProducer) Notify(ctx context.Context, event *domain.OrderStatusChanged) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal status event")
	}
	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	if err := mq.ProduceMessage(ctx, p.writer, []byte(event.Number), eventBytes); err != nil {
		return errors.Wrapf(err, "failed to produce status event for order %d", event.OrderID)
	}
	return nil
}

// Close 关闭底层的 Kafka writer
func (p *StatusEventProducer) Close() error {
	return p.writer.Close()
}

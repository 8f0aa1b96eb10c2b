// internal/service/order/interfaces/status_event_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/pkg/mq"
	"sky-takeout/internal/service/order/domain"
	"sky-takeout/internal/service/order/infrastructure"

	"github.com/segmentio/kafka-go"
)

// MessageReader 是 kafka.Reader 的方法子集
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StatusEventConsumer 消费订单状态变更事件并推送给本实例的管理端连接。
// 每个实例使用独立的消费者组，保证所有实例都能收到全部事件。
type StatusEventConsumer struct {
	reader MessageReader
	hub    infrastructure.Broadcaster
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStatusEventConsumer(reader MessageReader, hub infrastructure.Broadcaster) *StatusEventConsumer {
	return &StatusEventConsumer{reader: reader, hub: hub}
}

// Start 开始监听 Kafka 主题，ctx 取消后退出
func (c *StatusEventConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Ctx(ctx).Info().Msg("✅ Status event consumer started")
		for {
			// 使用 FetchMessage 而不是 ReadMessage，以便更好地控制退出逻辑
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Ctx(ctx).Info().Msg("🛑 Status event consumer shutting down")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("could not read message, retrying")
				select {
				case <-time.After(time.Second): // 避免快速失败循环
				case <-ctx.Done():
					return
				}
				continue
			}

			c.processMessage(mq.ExtractTraceContext(ctx, msg.Headers), msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to commit message")
			}
		}
	}()
}

// Stop 停止消费循环并关闭 reader
func (c *StatusEventConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		logger.Ctx(context.Background()).Warn().Err(err).Msg("failed to close kafka reader")
	}
}

func (c *StatusEventConsumer) processMessage(ctx context.Context, msg kafka.Message) {
	var event domain.OrderStatusChanged
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// 格式错误的消息直接跳过
		logger.Ctx(ctx).Error().Err(err).Str("key", string(msg.Key)).Msg("failed to unmarshal status event")
		return
	}
	message, err := infrastructure.EncodePushMessage(&event)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("order_id", event.OrderID).Msg("failed to encode push message")
		return
	}
	sent := c.hub.Broadcast(message)
	logger.Ctx(ctx).Debug().Int64("order_id", event.OrderID).Int("clients", sent).Msg("status event pushed")
}

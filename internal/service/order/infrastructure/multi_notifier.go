package infrastructure

import (
	"context"

	"sky-takeout/internal/service/order/domain"

	"go.uber.org/multierr"
)

// MultiNotifier 依次调用所有 notifier，一个失败不影响其余
type MultiNotifier []domain.Notifier

func (m MultiNotifier) Notify(ctx context.Context, event *domain.OrderStatusChanged) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.Notify(ctx, event))
	}
	return err
}

// internal/service/order/application/reconciler.go
package application

import (
	"context"
	"sync/atomic"
	"time"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/pkg/metrics"
	"sky-takeout/internal/service/order/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	RuleUnpaidOrders      = "unpaid-orders"
	RuleStalledDeliveries = "stalled-deliveries"

	PaymentTimeoutReason = "payment timeout"
)

// Rule 描述一次巡检: 把处于 From 且下单超过 MaxAge 的订单推进到 To
type Rule struct {
	Name   string
	From   domain.Status
	To     domain.Status
	MaxAge time.Duration
	// Reason 只在 To 为 CANCELLED 时写入 cancel_reason
	Reason string
	// Guard 为空表示不做额外过滤
	Guard domain.Guard
}

// UnpaidOrdersRule 超过 15 分钟未支付的订单自动取消
func UnpaidOrdersRule() Rule {
	return Rule{
		Name:   RuleUnpaidOrders,
		From:   domain.StatusPendingPayment,
		To:     domain.StatusCancelled,
		MaxAge: 15 * time.Minute,
		Reason: PaymentTimeoutReason,
	}
}

// StalledDeliveriesRule 派送超过 60 天的订单自动完成
func StalledDeliveriesRule() Rule {
	return Rule{
		Name:   RuleStalledDeliveries,
		From:   domain.StatusDeliveryInProgress,
		To:     domain.StatusCompleted,
		MaxAge: 60 * 24 * time.Hour,
	}
}

// SweepResult 统计一次巡检的结果
type SweepResult struct {
	Matched int
	Updated int
	Skipped int // 被 Guard 过滤掉
	Failed  int
}

// Reconciler 负责周期性地推进停滞的订单
type Reconciler struct {
	repo        domain.OrderRepository
	notifier    domain.Notifier
	metrics     *metrics.Reconcile
	tracer      trace.Tracer
	now         func() time.Time
	concurrency int

	unpaid   Rule
	delivery Rule
}

type Option func(*Reconciler)

func WithNotifier(n domain.Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

func WithMetrics(m *metrics.Reconcile) Option {
	return func(r *Reconciler) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithConcurrency 限制同一次巡检中并行更新的订单数
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithUnpaidRule(rule Rule) Option {
	return func(r *Reconciler) { r.unpaid = rule }
}

func WithDeliveryRule(rule Rule) Option {
	return func(r *Reconciler) { r.delivery = rule }
}

func NewReconciler(repo domain.OrderRepository, opts ...Option) *Reconciler {
	r := &Reconciler{
		repo:        repo,
		tracer:      otel.Tracer("order-reconciler"),
		now:         time.Now,
		concurrency: 8,
		unpaid:      UnpaidOrdersRule(),
		delivery:    StalledDeliveriesRule(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReconcileUnpaidOrders 取消支付超时的订单
func (r *Reconciler) ReconcileUnpaidOrders(ctx context.Context) (SweepResult, error) {
	return r.Sweep(ctx, r.unpaid)
}

// ReconcileStalledDeliveries 完成长期处于派送中的订单
func (r *Reconciler) ReconcileStalledDeliveries(ctx context.Context) (SweepResult, error) {
	return r.Sweep(ctx, r.delivery)
}

// Sweep 执行一次巡检。只有查询失败才返回错误，单个订单的失败记录日志后跳过。
func (r *Reconciler) Sweep(ctx context.Context, rule Rule) (SweepResult, error) {
	ctx, span := r.tracer.Start(ctx, "reconciler.Sweep", trace.WithAttributes(
		attribute.String("rule", rule.Name),
		attribute.String("from", rule.From.String()),
		attribute.String("to", rule.To.String()),
	))
	defer span.End()

	ctx = logger.With(ctx, map[string]string{"rule": rule.Name, "sweep_id": uuid.NewString()})
	l := logger.Ctx(ctx)

	start := r.now()
	cutoff := start.Add(-rule.MaxAge)
	defer r.observeDuration(rule.Name, start)

	orders, err := r.repo.FindByStatusOlderThan(ctx, rule.From, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query orders")
		l.Error().Err(err).Time("cutoff", cutoff).Msg("sweep aborted, order store query failed")
		return SweepResult{}, errors.Wrapf(err, "find %s orders older than %s", rule.From, cutoff.Format(time.DateTime))
	}

	result := SweepResult{Matched: len(orders)}
	if len(orders) == 0 {
		l.Debug().Time("cutoff", cutoff).Msg("no orders matched")
		r.observeResult(rule.Name, result)
		return result, nil
	}

	var updated, skipped, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, order := range orders {
		g.Go(func() error {
			// 单个订单 panic 只记为失败，不影响其它订单和进程
			defer func() {
				if p := recover(); p != nil {
					l.Error().Int64("order_id", order.ID).Interface("panic", p).Msg("order processing panicked")
					failed.Add(1)
				}
			}()
			switch r.apply(ctx, rule, order) {
			case outcomeUpdated:
				updated.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Updated = int(updated.Load())
	result.Skipped = int(skipped.Load())
	result.Failed = int(failed.Load())

	span.SetAttributes(
		attribute.Int("matched", result.Matched),
		attribute.Int("updated", result.Updated),
		attribute.Int("failed", result.Failed),
	)
	r.observeResult(rule.Name, result)

	level := zerolog.InfoLevel
	if result.Failed > 0 {
		level = zerolog.WarnLevel
	}
	l.WithLevel(level).Int("matched", result.Matched).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("sweep finished")
	return result, nil
}

type outcome int

const (
	outcomeUpdated outcome = iota
	outcomeSkipped
	outcomeFailed
)

// apply 处理单个订单，订单之间互不影响
func (r *Reconciler) apply(ctx context.Context, rule Rule, order *domain.Order) outcome {
	l := logger.Ctx(ctx).With().Int64("order_id", order.ID).Str("number", order.Number).Logger()

	if rule.Guard != nil {
		ok, err := rule.Guard.Allow(order)
		if err != nil {
			l.Error().Err(err).Msg("guard evaluation failed")
			return outcomeFailed
		}
		if !ok {
			l.Debug().Msg("order filtered out by guard")
			return outcomeSkipped
		}
	}

	from := order.Status
	at := r.now()
	if err := order.TransitionTo(rule.To, rule.Reason, at); err != nil {
		l.Error().Err(err).Msg("order transition rejected")
		return outcomeFailed
	}

	if err := r.repo.Update(ctx, order); err != nil {
		if errors.Is(err, domain.ErrOrderConflict) {
			l.Warn().Msg("order changed concurrently, will be re-evaluated next sweep")
		} else {
			l.Error().Err(err).Msg("failed to persist order")
		}
		return outcomeFailed
	}

	if r.notifier != nil {
		event := &domain.OrderStatusChanged{
			EventID: uuid.NewString(),
			OrderID: order.ID,
			Number:  order.Number,
			UserID:  order.UserID,
			From:    from,
			To:      order.Status,
			Reason:  order.CancelReason,
			Rule:    rule.Name,
			At:      at,
		}
		if err := r.notifier.Notify(ctx, event); err != nil {
			l.Warn().Err(err).Msg("failed to publish status change")
		}
	}
	return outcomeUpdated
}

func (r *Reconciler) observeResult(rule string, result SweepResult) {
	if r.metrics == nil {
		return
	}
	r.metrics.Orders.WithLabelValues(rule, "updated").Add(float64(result.Updated))
	r.metrics.Orders.WithLabelValues(rule, "skipped").Add(float64(result.Skipped))
	r.metrics.Orders.WithLabelValues(rule, "failed").Add(float64(result.Failed))
	r.metrics.LastSweep.WithLabelValues(rule).Set(float64(r.now().Unix()))
}

func (r *Reconciler) observeDuration(rule string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.SweepDuration.WithLabelValues(rule).Observe(r.now().Sub(start).Seconds())
}

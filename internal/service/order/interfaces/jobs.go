// internal/service/order/interfaces/jobs.go
package interfaces

import (
	"context"
	"time"

	"sky-takeout/internal/pkg/config"
	"sky-takeout/internal/pkg/schedule"
	"sky-takeout/internal/service/order/application"
	"sky-takeout/internal/service/order/infrastructure/rule"

	"github.com/pkg/errors"
)

// BuildRules 根据配置生成两条巡检规则，未配置的字段保持默认值。
// now 供过滤表达式计算 order.age，应与 Reconciler 的时钟一致
func BuildRules(cfg config.SchedulerConfig, now func() time.Time) (unpaid, delivery application.Rule, err error) {
	unpaid = application.UnpaidOrdersRule()
	delivery = application.StalledDeliveriesRule()

	if err = applySweepConfig(&unpaid, cfg.Unpaid, now); err != nil {
		return unpaid, delivery, errors.Wrap(err, "unpaid rule")
	}
	if err = applySweepConfig(&delivery, cfg.Delivery, now); err != nil {
		return unpaid, delivery, errors.Wrap(err, "delivery rule")
	}
	return unpaid, delivery, nil
}

func applySweepConfig(r *application.Rule, sweep config.SweepConfig, now func() time.Time) error {
	if sweep.MaxAge > 0 {
		r.MaxAge = sweep.MaxAge.Std()
	}
	if sweep.Reason != "" && r.Reason != "" {
		r.Reason = sweep.Reason
	}
	if sweep.Filter != "" {
		guard, err := rule.NewCELGuard(sweep.Filter, now)
		if err != nil {
			return err
		}
		r.Guard = guard
	}
	return nil
}

// RegisterJobs 把启用的巡检注册到调度器
func RegisterJobs(s *schedule.Scheduler, r *application.Reconciler, cfg config.SchedulerConfig) error {
	jobs := []struct {
		name  string
		sweep config.SweepConfig
		run   func(ctx context.Context) (application.SweepResult, error)
	}{
		{application.RuleUnpaidOrders, cfg.Unpaid, r.ReconcileUnpaidOrders},
		{application.RuleStalledDeliveries, cfg.Delivery, r.ReconcileStalledDeliveries},
	}

	for _, job := range jobs {
		if !job.sweep.Enabled {
			continue
		}
		trigger, err := triggerFor(job.sweep)
		if err != nil {
			return errors.Wrapf(err, "job %s", job.name)
		}
		run := job.run
		if err := s.Add(schedule.Job{
			Name:    job.name,
			Trigger: trigger,
			Run: func(ctx context.Context) error {
				_, err := run(ctx)
				return err
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func triggerFor(sweep config.SweepConfig) (schedule.Trigger, error) {
	if sweep.DailyAt != "" {
		return schedule.DailyAt(sweep.DailyAt)
	}
	return schedule.Every(sweep.Interval.Std()), nil
}

// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reconcile 是订单巡检相关指标
type Reconcile struct {
	Orders        *prometheus.CounterVec
	SweepDuration *prometheus.HistogramVec
	LastSweep     *prometheus.GaugeVec
}

// Jobs 是定时任务相关指标
type Jobs struct {
	Runs *prometheus.CounterVec
}

// NewReconcile 在 reg 上注册巡检指标，reg 为 nil 时不注册
func NewReconcile(reg prometheus.Registerer) *Reconcile {
	factory := promauto.With(reg)
	return &Reconcile{
		Orders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sky_reconcile_orders_total",
			Help: "Orders processed by reconcile sweeps, by rule and result.",
		}, []string{"rule", "result"}),
		SweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sky_reconcile_sweep_duration_seconds",
			Help:    "Duration of reconcile sweeps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"rule"}),
		LastSweep: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sky_reconcile_last_sweep_timestamp",
			Help: "Unix time of the last finished sweep.",
		}, []string{"rule"}),
	}
}

func NewJobs(reg prometheus.Registerer) *Jobs {
	return &Jobs{
		Runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sky_job_runs_total",
			Help: "Scheduled job runs, by job and result.",
		}, []string{"job", "result"}),
	}
}

// Handler 暴露 gatherer 中的指标
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

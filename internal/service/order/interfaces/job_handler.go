// internal/service/order/interfaces/job_handler.go
package interfaces

import (
	"context"
	"net/http"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/pkg/result"
	"sky-takeout/internal/pkg/schedule"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// JobRunner 由 schedule.Scheduler 实现
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
	Jobs() []string
}

// JobHandler 提供手动触发巡检的管理接口
type JobHandler struct {
	runner JobRunner
}

func NewJobHandler(runner JobRunner) *JobHandler {
	return &JobHandler{runner: runner}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *JobHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/jobs", h.listJobs)
	mux.HandleFunc("POST /admin/jobs/{name}/run", h.runJob)
}

func (h *JobHandler) listJobs(w http.ResponseWriter, r *http.Request) {
	result.OK(w, r, h.runner.Jobs())
}

func (h *JobHandler) runJob(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx, span := otel.Tracer("order-jobs").Start(r.Context(), "jobs.RunNow")
	defer span.End()
	span.SetAttributes(attribute.String("job", name))

	// 客户端断开不应中断正在进行的巡检
	err := h.runner.RunNow(context.WithoutCancel(ctx), name)
	switch {
	case err == nil:
		result.OK(w, r, map[string]string{"job": name})
	case errors.Is(err, schedule.ErrJobNotFound):
		result.Fail(w, r, http.StatusNotFound, "job not found: "+name)
	case errors.Is(err, schedule.ErrJobRunning):
		result.Fail(w, r, http.StatusConflict, "job is already running: "+name)
	default:
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("job", name).Msg("manual job run failed")
		result.Fail(w, r, http.StatusInternalServerError, err.Error())
	}
}

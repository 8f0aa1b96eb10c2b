// internal/service/report/interfaces/http_handler.go
package interfaces

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/pkg/result"
	"sky-takeout/internal/service/report/application"
	"sky-takeout/internal/service/report/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportUseCase 由 application.ReportService 实现
type ReportUseCase interface {
	TurnoverStatistics(ctx context.Context, begin, end time.Time) (*application.TurnoverReport, error)
	UserStatistics(ctx context.Context, begin, end time.Time) (*application.UserReport, error)
	OrderStatistics(ctx context.Context, begin, end time.Time) (*application.OrderReport, error)
	SalesTop10(ctx context.Context, begin, end time.Time) (*application.SalesTop10Report, error)
	TodayBusinessData(ctx context.Context) (*domain.BusinessData, error)
	Export(ctx context.Context, w io.Writer) error
}

// ReportHandler 提供管理端的数据统计接口
type ReportHandler struct {
	service  ReportUseCase
	location *time.Location
}

func NewReportHandler(service ReportUseCase) *ReportHandler {
	return &ReportHandler{service: service, location: time.Local}
}

func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/report/turnoverStatistics", h.withRange(func(ctx context.Context, begin, end time.Time) (any, error) {
		return h.service.TurnoverStatistics(ctx, begin, end)
	}))
	mux.HandleFunc("GET /admin/report/userStatistics", h.withRange(func(ctx context.Context, begin, end time.Time) (any, error) {
		return h.service.UserStatistics(ctx, begin, end)
	}))
	mux.HandleFunc("GET /admin/report/ordersStatistics", h.withRange(func(ctx context.Context, begin, end time.Time) (any, error) {
		return h.service.OrderStatistics(ctx, begin, end)
	}))
	mux.HandleFunc("GET /admin/report/top10", h.withRange(func(ctx context.Context, begin, end time.Time) (any, error) {
		return h.service.SalesTop10(ctx, begin, end)
	}))
	mux.HandleFunc("GET /admin/report/export", h.export)
	mux.HandleFunc("GET /admin/workspace/businessData", h.businessData)
}

type rangeQuery func(ctx context.Context, begin, end time.Time) (any, error)

// withRange 解析 begin/end 参数（兼容 beginTime/endTime），格式 yyyy-MM-dd
func (h *ReportHandler) withRange(query rangeQuery) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		begin, err := h.parseDate(r, "begin", "beginTime")
		if err != nil {
			result.Fail(w, r, http.StatusBadRequest, err.Error())
			return
		}
		end, err := h.parseDate(r, "end", "endTime")
		if err != nil {
			result.Fail(w, r, http.StatusBadRequest, err.Error())
			return
		}

		data, err := query(r.Context(), begin, end)
		switch {
		case err == nil:
			result.OK(w, r, data)
		case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrRangeTooLong):
			result.Fail(w, r, http.StatusBadRequest, err.Error())
		default:
			logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("report query failed")
			result.Fail(w, r, http.StatusInternalServerError, "internal error")
		}
	}
}

func (h *ReportHandler) parseDate(r *http.Request, names ...string) (time.Time, error) {
	for _, name := range names {
		if v := r.URL.Query().Get(name); v != "" {
			t, err := time.ParseInLocation(time.DateOnly, v, h.location)
			if err != nil {
				return time.Time{}, errors.Errorf("invalid %s %q, expected yyyy-MM-dd", name, v)
			}
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("missing query parameter %s", names[0])
}

func (h *ReportHandler) businessData(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.TodayBusinessData(r.Context())
	if err != nil {
		result.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	result.OK(w, r, data)
}

// export 先写入内存再输出，出错时还能返回 JSON 错误
func (h *ReportHandler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("report export failed")
		result.Fail(w, r, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="business-report.xlsx"`)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("failed to stream report")
	}
}

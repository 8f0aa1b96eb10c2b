// internal/service/report/application/service.go
package application

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/service/report/domain"
)

const topLimit = 10

var tracer = otel.Tracer("report-service")

type TurnoverReport struct {
	DateList     string `json:"dateList"`
	TurnoverList string `json:"turnoverList"`
}

type UserReport struct {
	DateList      string `json:"dateList"`
	NewUserList   string `json:"newUserList"`
	TotalUserList string `json:"totalUserList"`
}

type OrderReport struct {
	DateList            string  `json:"dateList"`
	OrderCountList      string  `json:"orderCountList"`
	ValidOrderCountList string  `json:"validOrderCountList"`
	TotalOrderCount     int     `json:"totalOrderCount"`
	ValidOrderCount     int     `json:"validOrderCount"`
	OrderCompletionRate float64 `json:"orderCompletionRate"`
}

type SalesTop10Report struct {
	NameList   string `json:"nameList"`
	NumberList string `json:"numberList"`
}

// ReportService 按天聚合营业数据
type ReportService struct {
	store domain.Store
	now   func() time.Time
}

type Option func(*ReportService)

func WithClock(now func() time.Time) Option {
	return func(s *ReportService) { s.now = now }
}

func NewReportService(store domain.Store, opts ...Option) *ReportService {
	s := &ReportService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReportService) TurnoverStatistics(ctx context.Context, begin, end time.Time) (*TurnoverReport, error) {
	ctx, span := tracer.Start(ctx, "ReportService.TurnoverStatistics")
	defer span.End()

	days, err := domain.DateRange(begin, end)
	if err != nil {
		return nil, err
	}
	amounts, err := domain.Collect(ctx, days, func(ctx context.Context, day time.Time) (decimal.Decimal, error) {
		from, to := domain.DayBounds(day)
		return s.store.Turnover(ctx, from, to)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect turnover")
	}
	return &TurnoverReport{
		DateList:     joinDays(days),
		TurnoverList: join(amounts, func(d decimal.Decimal) string { return d.StringFixed(2) }),
	}, nil
}

func (s *ReportService) UserStatistics(ctx context.Context, begin, end time.Time) (*UserReport, error) {
	ctx, span := tracer.Start(ctx, "ReportService.UserStatistics")
	defer span.End()

	days, err := domain.DateRange(begin, end)
	if err != nil {
		return nil, err
	}
	type userCount struct{ added, total int }
	counts, err := domain.Collect(ctx, days, func(ctx context.Context, day time.Time) (userCount, error) {
		from, to := domain.DayBounds(day)
		total, err := s.store.CountUsers(ctx, time.Time{}, to)
		if err != nil {
			return userCount{}, err
		}
		added, err := s.store.CountUsers(ctx, from, to)
		if err != nil {
			return userCount{}, err
		}
		return userCount{added: added, total: total}, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect user counts")
	}
	return &UserReport{
		DateList:      joinDays(days),
		NewUserList:   join(counts, func(c userCount) string { return strconv.Itoa(c.added) }),
		TotalUserList: join(counts, func(c userCount) string { return strconv.Itoa(c.total) }),
	}, nil
}

func (s *ReportService) OrderStatistics(ctx context.Context, begin, end time.Time) (*OrderReport, error) {
	ctx, span := tracer.Start(ctx, "ReportService.OrderStatistics")
	defer span.End()

	days, err := domain.DateRange(begin, end)
	if err != nil {
		return nil, err
	}
	type orderCount struct{ all, valid int }
	counts, err := domain.Collect(ctx, days, func(ctx context.Context, day time.Time) (orderCount, error) {
		from, to := domain.DayBounds(day)
		all, err := s.store.CountOrders(ctx, from, to, false)
		if err != nil {
			return orderCount{}, err
		}
		valid, err := s.store.CountOrders(ctx, from, to, true)
		if err != nil {
			return orderCount{}, err
		}
		return orderCount{all: all, valid: valid}, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect order counts")
	}

	report := &OrderReport{
		DateList:            joinDays(days),
		OrderCountList:      join(counts, func(c orderCount) string { return strconv.Itoa(c.all) }),
		ValidOrderCountList: join(counts, func(c orderCount) string { return strconv.Itoa(c.valid) }),
	}
	for _, c := range counts {
		report.TotalOrderCount += c.all
		report.ValidOrderCount += c.valid
	}
	report.OrderCompletionRate = domain.CompletionRate(report.ValidOrderCount, report.TotalOrderCount)
	return report, nil
}

func (s *ReportService) SalesTop10(ctx context.Context, begin, end time.Time) (*SalesTop10Report, error) {
	ctx, span := tracer.Start(ctx, "ReportService.SalesTop10")
	defer span.End()

	if _, err := domain.DateRange(begin, end); err != nil {
		return nil, err
	}
	_, to := domain.DayBounds(end)
	sales, err := s.store.SalesTop(ctx, domain.Day(begin), to, topLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sales top")
	}
	return &SalesTop10Report{
		NameList:   join(sales, func(g domain.GoodsSales) string { return g.Name }),
		NumberList: join(sales, func(g domain.GoodsSales) string { return strconv.Itoa(g.Number) }),
	}, nil
}

// BusinessData 统计 [begin, end) 内的运营概览
func (s *ReportService) BusinessData(ctx context.Context, begin, end time.Time) (*domain.BusinessData, error) {
	turnover, err := s.store.Turnover(ctx, begin, end)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query turnover")
	}
	total, err := s.store.CountOrders(ctx, begin, end, false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count orders")
	}
	valid, err := s.store.CountOrders(ctx, begin, end, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count valid orders")
	}
	newUsers, err := s.store.CountUsers(ctx, begin, end)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count new users")
	}
	return &domain.BusinessData{
		Turnover:            turnover,
		ValidOrderCount:     valid,
		OrderCompletionRate: domain.CompletionRate(valid, total),
		UnitPrice:           domain.UnitPrice(turnover, valid),
		NewUsers:            newUsers,
	}, nil
}

// TodayBusinessData 工作台使用的当日数据
func (s *ReportService) TodayBusinessData(ctx context.Context) (*domain.BusinessData, error) {
	from, to := domain.DayBounds(s.now())
	data, err := s.BusinessData(ctx, from, to)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to load today's business data")
		return nil, err
	}
	return data, nil
}

func joinDays(days []time.Time) string {
	return join(days, func(d time.Time) string { return d.Format(time.DateOnly) })
}

func join[T any](values []T, format func(T) string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = format(v)
	}
	return strings.Join(parts, ",")
}

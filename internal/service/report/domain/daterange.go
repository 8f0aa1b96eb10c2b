// internal/service/report/domain/daterange.go
package domain

import (
	"context"
	"errors"
	"time"
)

// MaxRangeDays 限制单次统计的天数
const MaxRangeDays = 366

var (
	ErrInvalidRange = errors.New("end date is before begin date")
	ErrRangeTooLong = errors.New("date range exceeds 366 days")
)

// Day 把时间截断到所在时区的零点
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayBounds 返回某天的 [start, end) 区间
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := Day(day)
	return start, start.AddDate(0, 0, 1)
}

// DateRange 返回 begin 到 end 之间（含两端）的每一天
func DateRange(begin, end time.Time) ([]time.Time, error) {
	begin, end = Day(begin), Day(end)
	if end.Before(begin) {
		return nil, ErrInvalidRange
	}
	var days []time.Time
	for d := begin; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(days) == MaxRangeDays {
			return nil, ErrRangeTooLong
		}
		days = append(days, d)
	}
	return days, nil
}

// Collect 对每一天调用 fn，按日期顺序返回结果，遇到错误立即返回
func Collect[T any](ctx context.Context, days []time.Time, fn func(ctx context.Context, day time.Time) (T, error)) ([]T, error) {
	values := make([]T, 0, len(days))
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := fn(ctx, day)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

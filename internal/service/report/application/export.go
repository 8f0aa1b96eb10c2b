// internal/service/report/application/export.go
package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/service/report/domain"
)

const (
	exportSheet = "Sheet1"
	exportDays  = 30
	// 明细从第 8 行开始，每天一行
	detailFirstRow = 8
)

// Export 生成近 30 天（不含今天）的运营数据报表
func (s *ReportService) Export(ctx context.Context, w io.Writer) error {
	ctx, span := tracer.Start(ctx, "ReportService.Export")
	defer span.End()

	today := domain.Day(s.now())
	begin := today.AddDate(0, 0, -exportDays)
	end := today.AddDate(0, 0, -1)

	overview, err := s.BusinessData(ctx, begin, today)
	if err != nil {
		return err
	}
	days, err := domain.DateRange(begin, end)
	if err != nil {
		return err
	}
	details, err := domain.Collect(ctx, days, func(ctx context.Context, day time.Time) (*domain.BusinessData, error) {
		from, to := domain.DayBounds(day)
		return s.BusinessData(ctx, from, to)
	})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	cells := map[string]any{
		"A1": "运营数据报表",
		"B2": fmt.Sprintf("时间：%s至%s", begin.Format(time.DateOnly), end.Format(time.DateOnly)),
		"B3": "概览数据",
		"B4": "营业额", "C4": overview.Turnover.InexactFloat64(),
		"D4": "订单完成率", "E4": overview.OrderCompletionRate,
		"F4": "新增用户数", "G4": overview.NewUsers,
		"B5": "有效订单", "C5": overview.ValidOrderCount,
		"D5": "平均客单价", "E5": overview.UnitPrice.InexactFloat64(),
		"B6": "明细数据",
		"B7": "日期", "C7": "营业额", "D7": "有效订单", "E7": "订单完成率", "F7": "平均客单价", "G7": "新增用户数",
	}
	for cell, v := range cells {
		if err := f.SetCellValue(exportSheet, cell, v); err != nil {
			return errors.Wrapf(err, "failed to set cell %s", cell)
		}
	}
	for i, data := range details {
		row := []any{
			days[i].Format(time.DateOnly),
			data.Turnover.InexactFloat64(),
			data.ValidOrderCount,
			data.OrderCompletionRate,
			data.UnitPrice.InexactFloat64(),
			data.NewUsers,
		}
		cell, _ := excelize.CoordinatesToCellName(2, detailFirstRow+i)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write detail row %d", detailFirstRow+i)
		}
	}
	if err := f.SetColWidth(exportSheet, "B", "G", 14); err != nil {
		return errors.Wrap(err, "failed to set column width")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write xlsx")
	}
	logger.Ctx(ctx).Info().
		Str("begin", begin.Format(time.DateOnly)).
		Str("end", end.Format(time.DateOnly)).
		Msg("Business report exported")
	return nil
}

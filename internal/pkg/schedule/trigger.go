// internal/pkg/schedule/trigger.go
package schedule

import (
	"time"

	"github.com/pkg/errors"
)

// Trigger 计算任务的下一次触发时间
type Trigger interface {
	Next(now time.Time) time.Time
}

type every time.Duration

// Every 每隔 d 触发一次，从上一次结束开始计时
func Every(d time.Duration) Trigger { return every(d) }

func (e every) Next(now time.Time) time.Time { return now.Add(time.Duration(e)) }

func (e every) String() string { return "every " + time.Duration(e).String() }

type dailyAt struct {
	hour, minute int
}

// DailyAt 每天在 now 所在时区的 hh:mm 触发
func DailyAt(clock string) (Trigger, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid daily time %q", clock)
	}
	return dailyAt{hour: t.Hour(), minute: t.Minute()}, nil
}

func (d dailyAt) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (d dailyAt) String() string {
	return time.Date(0, 1, 1, d.hour, d.minute, 0, 0, time.UTC).Format("daily at 15:04")
}

// internal/service/order/infrastructure/rule/cel_guard.go
package rule

import (
	"time"

	"sky-takeout/internal/service/order/domain"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// CELGuard 是 domain.Guard 的一个具体实现，使用 CEL 表达式过滤订单。
// 表达式中可以使用变量 order，字段为 id, number, user_id, amount, status,
// order_time 以及 age（距 now 的时长）。
type CELGuard struct {
	expr    string
	program cel.Program
	now     func() time.Time
}

// NewCELGuard 编译表达式，语法错误在启动时暴露。
// now 应与巡检使用同一个时钟，为 nil 时使用 time.Now
func NewCELGuard(expr string, now func() time.Time) (*CELGuard, error) {
	if now == nil {
		now = time.Now
	}
	env, err := cel.NewEnv(
		cel.Variable("order", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cel env")
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid guard expression %q", expr)
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build program for %q", expr)
	}
	return &CELGuard{expr: expr, program: program, now: now}, nil
}

// Allow 实现了 domain.Guard 接口
func (g *CELGuard) Allow(order *domain.Order) (bool, error) {
	out, _, err := g.program.Eval(map[string]any{
		"order": map[string]any{
			"id":         order.ID,
			"number":     order.Number,
			"user_id":    order.UserID,
			"amount":     order.Amount.InexactFloat64(),
			"status":     int64(order.Status),
			"order_time": order.OrderTime,
			"age":        g.now().Sub(order.OrderTime),
		},
	})
	if err != nil {
		return false, errors.Wrapf(err, "evaluate guard %q", g.expr)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("guard %q returned %T, want bool", g.expr, out.Value())
	}
	return allowed, nil
}

func (g *CELGuard) String() string { return g.expr }

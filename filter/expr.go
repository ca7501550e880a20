package filter

import (
	"context"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/pkg/dsl"
)

// ExprFilter 是表达式过滤器：用 CEL 表达式描述"保留条件"，
// 表达式求值为 false 的候选被过滤。
//
// 表达式可访问 item / label / rctx，例如：
//   - item.features.rating_norm >= 0.6        （只保留 3 分以上的医院）
//   - label.recall_source.contains("catalog") （只保留目录召回的候选）
//   - item.score > 0.5 && rctx.scene == "emergency"
//
// 表达式在构造时编译一次，之后对每个候选只做求值。
type ExprFilter struct {
	eval *dsl.Eval
	expr string
}

// NewExprFilter 编译保留条件表达式。空表达式合法，恒保留。
func NewExprFilter(expr string) (*ExprFilter, error) {
	eval, err := dsl.NewEval(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{eval: eval, expr: expr}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.eval.Evaluate(item, rctx)
	if err != nil {
		// 求值失败（如访问不存在的 key）放行该候选，FilterNode 会跳过错误
		return false, err
	}
	return !keep, nil
}

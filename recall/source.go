package recall

import (
	"context"

	"github.com/rushteam/medikit/core"
)

// Source 表示一个可复用的召回源（目录全量/高分榜/病情相似/...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

package pipeline

import (
	"context"

	"github.com/rushteam/medikit/core"
)

// Pipeline 是 Medikit 的核心抽象：把推荐逻辑拆成可组合的 Node 链。
// 医院推荐默认链路为 召回 -> 过滤 -> 特征 -> 排序 -> 截断。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

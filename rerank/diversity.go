package rerank

import (
	"context"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/pipeline"
)

// Diversity 是一个简单的多样性 ReRank：按科室/专长去重（保留首个出现的）。
// 避免 Top-N 里全是同一专长的医院，给用户多一些选择面。
// 类别来源优先级：
//   - label[LabelKey].Value
//   - meta[LabelKey] (string)
//
// MatchNode 会把医院的 specializations 补进 meta，所以默认配置下
// 放在 MatchNode 之后即可直接生效。
type Diversity struct {
	LabelKey string // 默认 "specializations"
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "specializations"
	}

	seen := make(map[string]bool, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		cate := ""
		if it.Labels != nil {
			if lbl, ok := it.Labels[key]; ok {
				cate = lbl.Value
			}
		}
		if cate == "" && it.Meta != nil {
			if v, ok := it.Meta[key]; ok {
				if s, ok := v.(string); ok {
					cate = s
				}
			}
		}

		// 无类别信息的候选不参与去重
		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] {
			continue
		}
		seen[cate] = true
		out = append(out, it)
	}

	return out, nil
}

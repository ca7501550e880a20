package rank

import (
	"context"
	"sort"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/model"
	"github.com/rushteam/medikit/pipeline"
	"github.com/rushteam/medikit/pkg/utils"
)

// WeightedNode 是排序节点：用 RankModel 对每个候选打分并按分数降序排序。
// 医院综合分的默认模型是 model.LinearModel（三路特征加权和）。
//
// 排序约定：
//   - sort.SliceStable 稳定排序，同分候选保持进入时的相对顺序
//     （目录顺序），不引入任何二级排序键
//   - 写入 labels：rank_model，供 explain / 观测使用
type WeightedNode struct {
	Model model.RankModel
}

func (n *WeightedNode) Name() string        { return "rank.weighted" }
func (n *WeightedNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *WeightedNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		score, err := n.Model.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

package feature

import (
	"context"
	"strings"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/model"
	"github.com/rushteam/medikit/pipeline"
)

// MatchNode 是查询匹配特征节点，推荐链路的打分依据在这里产出：
//
//	match_location  查询地点是否包含于医院地址（0/1，大小写不敏感的子串匹配）
//	match_condition 病情描述与医院症状文本的 TF-IDF 余弦相似度
//	rating_norm     评分/5，缺失或非数值按 0
//
// 相似度按整个候选批次一次计算（引擎返回按目录顺序对齐的切片），
// 再按目录下标取值，避免逐条重复投影查询向量。
//
// 约定：
//   - 地点为空串时子串匹配恒成立，即不按地点过滤
//   - 病情为空串或引擎退化（空词表）时 match_condition 全为 0
//   - 不在目录中的候选（过期榜单、外部注入）会被丢弃，它们既无法展示也无法打分
type MatchNode struct {
	Catalog *core.HospitalCatalog
	Engine  *model.TFIDFVectorizer
}

func (n *MatchNode) Name() string {
	return "feature.match"
}

func (n *MatchNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *MatchNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	var location, condition string
	if rctx != nil {
		location = strings.ToLower(strings.TrimSpace(rctx.QueryLocation()))
		condition = rctx.QueryCondition()
	}

	// 1. 整批病情相似度，按目录顺序对齐
	var sims []float64
	if n.Engine != nil {
		sims = n.Engine.Similarities(condition)
	}

	// 2. 逐条候选与目录行对齐，写入三路特征
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		idx, ok := n.Catalog.IndexOf(it.ID)
		if !ok {
			continue
		}
		h := n.Catalog.At(idx)

		// 展示元信息缺失时补齐（榜单召回只带 ID）
		if _, ok := it.Meta["name"]; !ok {
			it.PutMeta("name", h.Name)
		}
		if _, ok := it.Meta["address"]; !ok {
			it.PutMeta("address", h.Address)
		}
		if _, ok := it.Meta["rating"]; !ok {
			it.PutMeta("rating", h.Rating)
		}
		if _, ok := it.Meta["specializations"]; !ok {
			it.PutMeta("specializations", h.Specializations)
		}

		matchLocation := 0.0
		if strings.Contains(strings.ToLower(h.Address), location) {
			matchLocation = 1
		}
		matchCondition := 0.0
		if idx < len(sims) {
			matchCondition = sims[idx]
		}

		it.PutFeature(core.FeatureLocationMatch, matchLocation)
		it.PutFeature(core.FeatureConditionMatch, matchCondition)
		it.PutFeature(core.FeatureRatingNorm, h.NormalizedRating())
		out = append(out, it)
	}
	return out, nil
}

package feature

import (
	"context"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/pipeline"
	"github.com/rushteam/medikit/pkg/conv"
)

// EnrichNode 是特征注入节点，把用户特征与医院特征合并到候选上。
// 匹配特征（match_*）由 MatchNode 产出，这里只做补充注入；
// 前缀隔离（user_/item_）保证注入不会覆盖匹配特征。
//
// 支持两种模式：
// 1. 提取器模式：使用自定义提取器（UserFeatureExtractor、ItemFeatureExtractor）
// 2. 特征服务模式：使用 core.FeatureService 统一获取特征（Store/Feast）
type EnrichNode struct {
	// FeatureService 特征服务（设置后优先使用，失败时回退到提取器）
	FeatureService core.FeatureService

	// UserFeatureExtractor 从 RecommendContext 提取用户特征
	UserFeatureExtractor func(rctx *core.RecommendContext) map[string]float64

	// ItemFeatureExtractor 从 Item 提取医院特征
	ItemFeatureExtractor func(item *core.Item) map[string]float64

	// 特征前缀，为空时使用 user_ / item_
	UserFeaturePrefix string
	ItemFeaturePrefix string
}

func (n *EnrichNode) Name() string {
	return "feature.enrich"
}

func (n *EnrichNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	userPrefix := n.UserFeaturePrefix
	if userPrefix == "" {
		userPrefix = "user_"
	}
	itemPrefix := n.ItemFeaturePrefix
	if itemPrefix == "" {
		itemPrefix = "item_"
	}

	// 1. 用户特征：服务优先，失败回退到提取器
	var userFeatures map[string]float64
	if n.FeatureService != nil && rctx != nil && rctx.UserID != "" {
		features, err := n.FeatureService.GetUserFeatures(ctx, rctx.UserID)
		if err == nil {
			userFeatures = features
		}
	}
	if userFeatures == nil {
		if n.UserFeatureExtractor != nil {
			userFeatures = n.UserFeatureExtractor(rctx)
		} else {
			userFeatures = defaultUserFeatures(rctx)
		}
	}

	// 2. 医院特征：服务模式下整批获取，减少往返
	var itemFeaturesMap map[string]map[string]float64
	if n.FeatureService != nil {
		ids := make([]string, 0, len(items))
		for _, it := range items {
			if it != nil {
				ids = append(ids, it.ID)
			}
		}
		if len(ids) > 0 {
			itemFeaturesMap, _ = n.FeatureService.BatchGetItemFeatures(ctx, ids)
		}
	}

	// 3. 逐条注入
	for _, it := range items {
		if it == nil {
			continue
		}
		for k, v := range userFeatures {
			it.PutFeature(userPrefix+k, v)
		}

		var itemFeatures map[string]float64
		if itemFeaturesMap != nil {
			itemFeatures = itemFeaturesMap[it.ID]
		} else if n.ItemFeatureExtractor != nil {
			itemFeatures = n.ItemFeatureExtractor(it)
		}
		for k, v := range itemFeatures {
			key := itemPrefix + k
			// 已有取值保留（候选上已算好的特征优先）
			if _, exists := it.Features[key]; !exists {
				it.PutFeature(key, v)
			}
		}
	}
	return items, nil
}

// defaultUserFeatures 从用户画像与请求参数提取数值特征。
func defaultUserFeatures(rctx *core.RecommendContext) map[string]float64 {
	features := make(map[string]float64)
	if rctx == nil {
		return features
	}
	if p := rctx.GetUserProfile(); p != nil {
		features["age"] = float64(p.Age)
		features["visited_count"] = float64(len(p.Visited))
	}
	for k, v := range rctx.Params {
		if fv, ok := conv.ToFloat64(v); ok {
			features[k] = fv
		}
	}
	return features
}

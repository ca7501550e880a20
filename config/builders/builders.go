// Package builders 注册内置 Node 的配置构建器。
// 在入口处 import _ "github.com/rushteam/medikit/config/builders" 即可启用配置驱动。
//
// 需要运行时依赖（医院目录、相似度引擎、向量服务）的 Node——
// recall.catalog、recall.condition、feature.match——无法从纯配置构建，
// 由 medikit.Recommender 以代码方式装配。
//
// 存储后端通过 UseStore 注入；注入后 recall.top_rated 读榜单、
// filter 读名单、feature.enrich 走 StoreFeatureService。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/medikit/config"
	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/feature"
	"github.com/rushteam/medikit/filter"
	"github.com/rushteam/medikit/model"
	"github.com/rushteam/medikit/pipeline"
	"github.com/rushteam/medikit/pkg/conv"
	"github.com/rushteam/medikit/rank"
	"github.com/rushteam/medikit/recall"
	"github.com/rushteam/medikit/rerank"
	"github.com/rushteam/medikit/store"
)

// defaultStore 是配置管线共享的存储后端。YAML 只声明 key/名单，
// Store 实例由运行时通过 UseStore 注入（与 config.Register 同为包级注册）。
var defaultStore core.KeyValueStore

// UseStore 注入存储后端，供 recall.top_rated / filter / feature.enrich
// 的构建器使用；传 nil 恢复无存储状态。
func UseStore(s core.KeyValueStore) { defaultStore = s }

func storeAdapter() *filter.StoreAdapter {
	if defaultStore == nil {
		return nil
	}
	return filter.NewStoreAdapter(defaultStore)
}

func init() {
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("recall.top_rated", BuildTopRatedNode)
	config.Register("rank.weighted", BuildWeightedNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("filter", BuildFilterNode)
	config.Register("feature.enrich", BuildFeatureEnrichNode)
}

func BuildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet(sourceMap, "type", "")
		switch sourceType {
		case "top_rated":
			ids := conv.SliceAnyToString(sourceMap["ids"])
			if ids == nil {
				ids = []string{}
			}
			key := conv.ConfigGet(sourceMap, "key", "")
			if key == "" && defaultStore != nil {
				key = store.DefaultTopRatedKey
			}
			sources = append(sources, &recall.TopRated{
				Store: defaultStore,
				Key:   key,
				IDs:   ids,
				Limit: int(conv.ConfigGetInt64(sourceMap, "limit", 0)),
			})
		case "condition":
			// 需要向量服务与引擎投影函数，只能代码装配
			return nil, fmt.Errorf("condition source requires a vector service (assemble in code)")
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}
	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

func BuildTopRatedNode(cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["ids"])
	if ids == nil {
		ids = []string{}
	}
	key := conv.ConfigGet(cfg, "key", "")
	if key == "" && defaultStore != nil {
		key = store.DefaultTopRatedKey
	}
	return &recall.TopRated{
		Store: defaultStore,
		Key:   key,
		IDs:   ids,
		Limit: int(conv.ConfigGetInt64(cfg, "limit", 0)),
	}, nil
}

func BuildWeightedNode(cfg map[string]interface{}) (pipeline.Node, error) {
	weightsMap, ok := cfg["weights"].(map[string]interface{})
	if !ok {
		// 缺省使用规格默认三路权重
		return &rank.WeightedNode{
			Model: model.NewLinearModel(core.DefaultScoreWeights().Map()),
		}, nil
	}
	weights := conv.MapToFloat64(weightsMap)
	bias := conv.ConfigGetFloat64(cfg, "bias", 0)
	linear := &model.LinearModel{Bias: bias, Weights: weights}
	return &rank.WeightedNode{Model: linear}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := int(conv.ConfigGetInt64(cfg, "n", int64(core.DefaultTopN)))
	return &rerank.TopNNode{N: n}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	labelKey := conv.ConfigGet(cfg, "label_key", "specializations")
	if labelKey == "" {
		labelKey = "specializations"
	}
	return &rerank.Diversity{LabelKey: labelKey}, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "excluded":
			ids := conv.SliceAnyToString(filterMap["hospital_ids"])
			if ids == nil {
				ids = []string{}
			}
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewExcludedFilter(ids, storeAdapter(), key))
		case "visited":
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewVisitedFilter(storeAdapter(), keyPrefix))
		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			f, err := filter.NewExprFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("compile expr filter: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildFeatureEnrichNode(cfg map[string]interface{}) (pipeline.Node, error) {
	node := &feature.EnrichNode{
		UserFeaturePrefix: conv.ConfigGet(cfg, "user_feature_prefix", ""),
		ItemFeaturePrefix: conv.ConfigGet(cfg, "item_feature_prefix", ""),
	}
	if defaultStore != nil {
		node.FeatureService = feature.NewStoreFeatureService(defaultStore)
	}
	return node, nil
}

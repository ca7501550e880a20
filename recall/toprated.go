package recall

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/pipeline"
)

// TopRated 是高分医院召回源，支持从 Store 读取评分榜单。
// - 如果 Store 实现了 KeyValueStore，优先使用 ZRange（有序集合，按评分排序）
// - 否则从普通 key 读取 JSON 数组
// - Store 不可用时，退回内存 IDs；再退回按目录评分排序
// 用于冷启动场景：用户没有给出病情时也能给出合理候选。
// TopRated 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type TopRated struct {
	Store   core.Store
	Key     string                // 存储 key，例如 "toprated:hospitals"
	IDs     []string              // fallback 内存列表
	Catalog *core.HospitalCatalog // fallback 目录，按评分降序取前 Limit 家
	Limit   int                   // 最多返回条数，<=0 时取 100
}

func (r *TopRated) Name() string        { return "recall.top_rated" }
func (r *TopRated) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *TopRated) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *TopRated) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = 100
	}

	var ids []string

	// 优先从 Store 读取（支持 ZRange 或普通 Get）
	if r.Store != nil && r.Key != "" {
		if kvStore, ok := r.Store.(core.KeyValueStore); ok {
			// 有序集合：ZRange 按评分降序取 TopN
			members, err := kvStore.ZRange(ctx, r.Key, 0, int64(limit-1))
			if err == nil && len(members) > 0 {
				ids = members
			}
		} else {
			// 普通 key：读取 JSON 数组
			data, err := r.Store.Get(ctx, r.Key)
			if err == nil {
				var parsed []string
				if json.Unmarshal(data, &parsed) == nil {
					ids = parsed
				}
			}
		}
	}

	// Fallback：内存 IDs
	if len(ids) == 0 {
		ids = r.IDs
	}

	// Fallback：目录按评分降序（同分保持目录顺序）
	if len(ids) == 0 && r.Catalog != nil {
		hospitals := r.Catalog.Hospitals()
		sort.SliceStable(hospitals, func(i, j int) bool {
			return hospitals[i].RatingValue() > hospitals[j].RatingValue()
		})
		for _, h := range hospitals {
			ids = append(ids, h.ID)
		}
	}

	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out, nil
}

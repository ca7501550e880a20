package recall

import (
	"context"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/pipeline"
)

// Catalog 是目录全量召回源：把医院目录按原始顺序整体作为候选集。
// 单表规模的推荐不做索引预筛，逐条打分即可；目录顺序在此进入链路，
// 后续排序的同分并列也按这个顺序保持稳定。
// Catalog 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Catalog struct {
	Catalog *core.HospitalCatalog
}

func (r *Catalog) Name() string        { return "recall.catalog" }
func (r *Catalog) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Catalog) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。空目录返回空候选集，不报错。
func (r *Catalog) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	out := make([]*core.Item, 0, r.Catalog.Len())
	for i := 0; i < r.Catalog.Len(); i++ {
		h := r.Catalog.At(i)
		it := core.NewItem(h.ID)
		it.Meta["name"] = h.Name
		it.Meta["address"] = h.Address
		it.Meta["rating"] = h.Rating
		it.Meta["specializations"] = h.Specializations
		out = append(out, it)
	}
	return out, nil
}

package recall

import (
	"context"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/pipeline"
)

// Condition 是病情相似召回源：把病情描述投影成查询向量，
// 经 core.VectorService 检索症状向量最相近的医院。
// 与目录全量召回相比，它只取 TopK，适合目录较大或多路 fan-out 的场景。
// Condition 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Condition struct {
	Service    core.VectorService
	Collection string // 向量集合名，例如 "symptoms"
	TopK       int    // 返回 TopK 相似医院，<=0 时取 10
	Metric     string // 距离度量，默认 cosine

	// Vectorize 将病情文本投影为查询向量（通常是相似度引擎的 Transform）
	Vectorize func(text string) []float64
}

func (r *Condition) Name() string        { return "recall.condition" }
func (r *Condition) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Condition) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
// 病情为空、无法向量化或服务缺失时返回空候选集，不报错。
func (r *Condition) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Service == nil || r.Vectorize == nil || rctx == nil {
		return nil, nil
	}
	condition := rctx.QueryCondition()
	if condition == "" {
		return nil, nil
	}

	// 1. 病情文本 -> 查询向量（未登录词已被引擎忽略）
	vec := r.Vectorize(condition)
	if len(vec) == 0 {
		return nil, nil
	}

	// 2. 向量检索
	topK := r.TopK
	if topK <= 0 {
		topK = 10
	}
	metric := r.Metric
	if metric == "" {
		metric = string(core.MetricCosine)
	}
	res, err := r.Service.Search(ctx, &core.VectorSearchRequest{
		Collection: r.Collection,
		Vector:     vec,
		TopK:       topK,
		Metric:     metric,
	})
	if err != nil {
		return nil, err
	}

	// 3. 封装候选，保留检索相似度作为初始分
	out := make([]*core.Item, 0, len(res.Items))
	for _, ri := range res.Items {
		it := core.NewItem(ri.ID)
		it.Score = ri.Score
		out = append(out, it)
	}
	return out, nil
}

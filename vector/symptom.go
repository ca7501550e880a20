// Package vector 提供 core.VectorService 的实现。
package vector

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/model"
)

// SymptomIndex 是症状向量检索服务：把相似度引擎拟合好的医院症状向量
// 组织成一个可按查询向量检索的集合，实现 core.VectorService。
//
// 它不是向量数据库，只是目录内向量的线性扫描（目录是几百到几千行的
// 单表，逐条点积绰绰有余）。需要外部向量库时实现同一接口替换即可。
//
// 向量来自引擎构造时的一次性拟合，SymptomIndex 只读不写；
// 与引擎一样可被多个 goroutine 并发检索。
type SymptomIndex struct {
	collection string
	ids        []string    // 按目录顺序的医院 ID
	vectors    [][]float64 // 与 ids 对齐的症状向量
}

// NewSymptomIndex 从目录与已拟合的引擎构建索引。
// 引擎语料必须按目录顺序拟合（SymptomCorpus 的约定），否则向量错位。
func NewSymptomIndex(collection string, catalog *core.HospitalCatalog, engine *model.TFIDFVectorizer) *SymptomIndex {
	idx := &SymptomIndex{collection: collection}
	if catalog == nil || engine == nil {
		return idx
	}
	n := catalog.Len()
	if n > engine.DocCount() {
		n = engine.DocCount()
	}
	idx.ids = make([]string, n)
	idx.vectors = make([][]float64, n)
	for i := 0; i < n; i++ {
		idx.ids[i] = catalog.At(i).ID
		idx.vectors[i] = engine.DocVector(i)
	}
	return idx
}

func (s *SymptomIndex) Name() string { return "vector.symptom" }

// Search 实现 core.VectorService：对集合内全部向量打分，返回 TopK。
// 分数相同的医院保持目录顺序。
func (s *SymptomIndex) Search(_ context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: search request is nil")
	}
	if req.Collection != "" && req.Collection != s.collection {
		return &core.VectorSearchResult{Items: []core.VectorSearchItem{}}, nil
	}

	metric := req.Metric
	if metric == "" {
		metric = string(core.MetricCosine)
	}
	if !core.ValidateVectorMetric(metric) {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: unknown metric "+metric)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	items := make([]core.VectorSearchItem, 0, len(s.ids))
	for i, vec := range s.vectors {
		score, distance := scoreVector(metric, req.Vector, vec)
		items = append(items, core.VectorSearchItem{
			ID:       s.ids[i],
			Score:    score,
			Distance: distance,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if len(items) > topK {
		items = items[:topK]
	}
	return &core.VectorSearchResult{Items: items}, nil
}

func (s *SymptomIndex) Close() error { return nil }

// scoreVector 按度量方式计算 (score, distance)。
// score 越大越相似；distance 仅欧氏距离下有意义。
func scoreVector(metric string, query, doc []float64) (float64, float64) {
	switch metric {
	case string(core.MetricEuclidean):
		d := euclideanDistance(query, doc)
		return -d, d
	case string(core.MetricInnerProduct):
		return dotProduct(query, doc), 0
	default: // cosine
		return cosineSimilarity(query, doc), 0
	}
}

func dotProduct(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot
}

// cosineSimilarity 计算余弦相似度，任一零向量返回 0。
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclideanDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		var av, bv float64
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		d := av - bv
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ core.VectorService = (*SymptomIndex)(nil)

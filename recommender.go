package medikit

import (
	"context"
	"strconv"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/feature"
	"github.com/rushteam/medikit/filter"
	"github.com/rushteam/medikit/model"
	"github.com/rushteam/medikit/pipeline"
	"github.com/rushteam/medikit/pkg/utils"
	"github.com/rushteam/medikit/rank"
	"github.com/rushteam/medikit/recall"
	"github.com/rushteam/medikit/rerank"
)

// Query 是一次推荐请求：查询地点 + 病情描述 + 结果条数与权重覆盖。
// 地点/病情为空串是合法输入（空地点匹配所有地址，空病情相似度全 0）。
type Query struct {
	// Location 查询地点，对医院地址做大小写不敏感的子串匹配
	Location string

	// Condition 病情描述（自由文本）
	Condition string

	// TopN 结果条数；<= 0 返回空结果。
	// 字面量构造时请显式赋值，或用 NewQuery 获得默认值。
	TopN int

	// Weights 三路权重覆盖；nil 使用默认 {0.4, 0.4, 0.2}。
	// 权重不做归一化，不要求和为 1。
	Weights *core.ScoreWeights

	// User 用户画像（可选）；地点/病情为空时从画像取缺省值
	User *core.UserProfile

	// Params 请求级参数，透传到 RecommendContext
	Params map[string]any
}

// NewQuery 构造带默认 TopN 的查询。
func NewQuery(location, condition string) Query {
	return Query{
		Location:  location,
		Condition: condition,
		TopN:      core.DefaultTopN,
	}
}

// Recommendation 是一条推荐结果。
type Recommendation struct {
	Hospital core.Hospital
	Rating   float64 // 解析后的原始评分（0~5，缺失按 0）
	Score    float64 // 三路加权综合分
	Labels   map[string]utils.Label
}

// Recommender 是医院推荐器：目录 + 相似度引擎 + 默认管线的装配体。
//
// 构造时对目录症状语料一次性拟合相似度引擎（词表此后不变），
// 之后可被并发调用；Recommend 是目录状态的纯函数。
type Recommender struct {
	catalog *core.HospitalCatalog
	engine  *model.TFIDFVectorizer
	weights core.ScoreWeights
	filters []filter.Filter
	diverse bool
}

// Option 配置 Recommender 的构造行为。
type Option func(*recommenderConfig)

type recommenderConfig struct {
	weights    core.ScoreWeights
	filters    []filter.Filter
	engineOpts []model.TFIDFOption
	diverse    bool
}

// WithWeights 覆盖默认三路权重。
func WithWeights(w core.ScoreWeights) Option {
	return func(c *recommenderConfig) { c.weights = w }
}

// WithFilters 在召回与特征之间插入过滤器（排除名单、复诊过滤、表达式等）。
func WithFilters(filters ...filter.Filter) Option {
	return func(c *recommenderConfig) { c.filters = append(c.filters, filters...) }
}

// WithEngineOptions 透传相似度引擎的构造选项（停用词、并发拟合等）。
func WithEngineOptions(opts ...model.TFIDFOption) Option {
	return func(c *recommenderConfig) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithDiversity 启用按专长去重的多样性重排（默认关闭）。
func WithDiversity() Option {
	return func(c *recommenderConfig) { c.diverse = true }
}

// New 从医院目录构造推荐器，并完成相似度引擎的一次性拟合。
// 空目录合法：引擎退化为空词表，Recommend 恒返回空结果。
func New(catalog *core.HospitalCatalog, opts ...Option) *Recommender {
	cfg := &recommenderConfig{weights: core.DefaultScoreWeights()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Recommender{
		catalog: catalog,
		engine:  model.NewTFIDFVectorizer(catalog.SymptomCorpus(), cfg.engineOpts...),
		weights: cfg.weights,
		filters: cfg.filters,
		diverse: cfg.diverse,
	}
}

// Catalog 返回推荐器持有的医院目录。
func (r *Recommender) Catalog() *core.HospitalCatalog { return r.catalog }

// Engine 返回已拟合的相似度引擎（供 vector.SymptomIndex 等组件复用）。
func (r *Recommender) Engine() *model.TFIDFVectorizer { return r.engine }

// Recommend 执行一次推荐查询，返回按综合分降序的 Top-N 医院。
// 同分医院保持目录顺序。空目录或 TopN <= 0 返回空切片，不报错；
// 对任意 (地点, 病情) 字符串对都是全函数，默认管线不产生错误。
func (r *Recommender) Recommend(ctx context.Context, q Query) ([]Recommendation, error) {
	if q.TopN <= 0 || r.catalog.Len() == 0 {
		return []Recommendation{}, nil
	}

	weights := r.weights
	if q.Weights != nil {
		weights = *q.Weights
	}

	rctx := &core.RecommendContext{
		Location:  q.Location,
		Condition: q.Condition,
		User:      q.User,
		Params:    q.Params,
	}
	if q.User != nil {
		rctx.UserID = strconv.FormatInt(q.User.UserID, 10)
	}

	p := r.buildPipeline(weights, q.TopN)
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		h, ok := r.catalog.ByID(it.ID)
		if !ok {
			continue
		}
		out = append(out, Recommendation{
			Hospital: h,
			Rating:   h.RatingValue(),
			Score:    it.Score,
			Labels:   it.Labels,
		})
	}
	return out, nil
}

// buildPipeline 装配默认链路：目录召回 -> 过滤 -> 匹配特征 -> 加权排序 -> 截断。
// Node 都是无状态的轻量对象，按请求装配以支持每次查询的权重覆盖。
func (r *Recommender) buildPipeline(weights core.ScoreWeights, topN int) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&recall.Catalog{Catalog: r.catalog},
	}
	if len(r.filters) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: r.filters})
	}
	nodes = append(nodes,
		&feature.MatchNode{Catalog: r.catalog, Engine: r.engine},
		&rank.WeightedNode{Model: model.NewLinearModel(weights.Map())},
	)
	if r.diverse {
		nodes = append(nodes, &rerank.Diversity{})
	}
	nodes = append(nodes, &rerank.TopNNode{N: topN})
	return &pipeline.Pipeline{Nodes: nodes}
}

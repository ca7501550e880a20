package core

// 打分特征名，由 feature 节点写入、排序模型读取。
const (
	FeatureLocationMatch  = "match_location"  // 地点包含匹配（0/1）
	FeatureConditionMatch = "match_condition" // 病情与症状文本的余弦相似度
	FeatureRatingNorm     = "rating_norm"     // 评分/5
)

// DefaultTopN 是推荐结果的默认条数。
const DefaultTopN = 5

// ScoreWeights 是综合打分的三路权重：
//
//	score = Location*match_location + Disease*match_condition + Rating*rating_norm
//
// 权重不做归一化，也不要求和为 1；调用方传多少用多少。
// 权重和不为 1 时分数整体缩放，排序次序不受影响。
type ScoreWeights struct {
	Location float64 `yaml:"location" json:"location"`
	Disease  float64 `yaml:"disease" json:"disease"`
	Rating   float64 `yaml:"rating" json:"rating"`
}

// DefaultScoreWeights 返回默认权重 {0.4, 0.4, 0.2}。
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Location: 0.4, Disease: 0.4, Rating: 0.2}
}

// Map 按特征名展开权重，供线性模型直接使用。
func (w ScoreWeights) Map() map[string]float64 {
	return map[string]float64{
		FeatureLocationMatch:  w.Location,
		FeatureConditionMatch: w.Disease,
		FeatureRatingNorm:     w.Rating,
	}
}

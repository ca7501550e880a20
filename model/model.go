package model

// RankModel 是排序阶段的最小抽象：输入特征，输出一个可比较的分数。
// 医院综合分用 LinearModel 实现；需要外部模型时实现本接口接入即可。
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}

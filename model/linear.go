package model

import (
	"encoding/json"
	"os"
)

// LinearModel 实现线性加权打分：score = Bias + sum(Weight_i * Feature_i)。
//
// 医院综合分即三路特征的加权和（地点匹配、病情相似度、评分归一值），
// 分数直接用于排序与展示，所以这里不做 Sigmoid 之类的压缩变换；
// 权重也不做归一化，调用方传多少用多少。
// 特征缺失按 0 处理，权重表之外的特征不参与打分。
type LinearModel struct {
	Bias    float64            // 偏置项，默认 0
	Weights map[string]float64 // 特征权重
}

// NewLinearModel 以给定权重表构建模型。
func NewLinearModel(weights map[string]float64) *LinearModel {
	return &LinearModel{Weights: weights}
}

// LoadLinearModel 从 JSON 文件加载模型，格式：
//
//	{"bias": 0, "weights": {"match_location": 0.4, "match_condition": 0.4, "rating_norm": 0.2}}
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &LinearModel{Bias: raw.Bias, Weights: raw.Weights}, nil
}

func (m *LinearModel) Name() string { return "linear" }

func (m *LinearModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return score, nil
}

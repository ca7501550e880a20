package core

import "github.com/rushteam/medikit/pkg/utils"

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// 在医院推荐场景中，一个 Item 对应目录中的一家医院；
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// PutMeta 写入元信息。
func (it *Item) PutMeta(key string, v any) {
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	it.Meta[key] = v
}

// PutFeature 写入特征值。
func (it *Item) PutFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}

// GetFeature 读取特征值，不存在时返回 0。
func (it *Item) GetFeature(key string) float64 {
	if it.Features == nil {
		return 0
	}
	return it.Features[key]
}

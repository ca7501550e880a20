package core

import (
	"strconv"
	"strings"
)

// Hospital 是医院目录中的一条记录，对应医院表（CSV）的一行。
// 加载完成后在单次查询内不可变；文本字段在加载时已做小写/去空白归一，
// Name 保留原始大小写用于展示，Rating 保留原始单元格文本。
type Hospital struct {
	ID              string
	Name            string
	Address         string
	Specializations string
	Symptoms        string
	Rating          string // 原始评分文本，可能为空或非数值
}

// RatingValue 解析评分为数值；缺失或非数值时返回 0，不报错。
func (h Hospital) RatingValue() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(h.Rating), 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizedRating 返回评分归一值（评分/5）；缺失或非数值时返回 0。
func (h Hospital) NormalizedRating() float64 {
	return h.RatingValue() / 5
}

// HospitalCatalog 是有序、不可变的医院目录。
//
// 目录顺序是全局约定：
//   - 症状语料（SymptomCorpus）按此顺序产出，相似度切片按此顺序对齐
//   - 排序分数相同时按此顺序保持稳定
//
// 目录作为显式状态传入各组件，包内不持有任何模块级可变状态。
type HospitalCatalog struct {
	hospitals []Hospital
	index     map[string]int // ID -> 目录下标
}

// NewHospitalCatalog 根据记录构建目录，保持传入顺序。
// 重复 ID 以首次出现的记录为准。
func NewHospitalCatalog(hospitals []Hospital) *HospitalCatalog {
	c := &HospitalCatalog{
		hospitals: make([]Hospital, len(hospitals)),
		index:     make(map[string]int, len(hospitals)),
	}
	copy(c.hospitals, hospitals)
	for i, h := range c.hospitals {
		if _, ok := c.index[h.ID]; !ok {
			c.index[h.ID] = i
		}
	}
	return c
}

// Len 返回目录大小。
func (c *HospitalCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.hospitals)
}

// At 返回目录中第 i 条记录。
func (c *HospitalCatalog) At(i int) Hospital {
	return c.hospitals[i]
}

// ByID 按医院 ID 查找记录。
func (c *HospitalCatalog) ByID(id string) (Hospital, bool) {
	if c == nil {
		return Hospital{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Hospital{}, false
	}
	return c.hospitals[i], true
}

// IndexOf 返回医院 ID 的目录下标，用于与相似度切片对齐。
func (c *HospitalCatalog) IndexOf(id string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[id]
	return i, ok
}

// SymptomCorpus 按目录顺序返回每家医院的症状文本，
// 作为相似度引擎一次性拟合的语料。
func (c *HospitalCatalog) SymptomCorpus() []string {
	if c == nil {
		return nil
	}
	corpus := make([]string, len(c.hospitals))
	for i, h := range c.hospitals {
		corpus[i] = h.Symptoms
	}
	return corpus
}

// Hospitals 按目录顺序返回全部记录的副本。
func (c *HospitalCatalog) Hospitals() []Hospital {
	if c == nil {
		return nil
	}
	out := make([]Hospital, len(c.hospitals))
	copy(out, c.hospitals)
	return out
}

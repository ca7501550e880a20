// Package medikit 是一个医院推荐工具包（Medical Recommender Kit）：
// 按查询地点与病情描述，对医院目录做 地点匹配 + 症状文本相似度 + 评分
// 三路加权排序。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Feature → Rank → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 拟合一次、查询多次: 症状相似度引擎在构造时拟合词表，查询只读投影
// - Node 可扩展: 自定义 Node 即可插拔扩展
package medikit

import "github.com/rushteam/medikit/pipeline"

// 轻量 facade：便于用户直接 import "medikit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/medikit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		// 定义变量类型
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是 Label DSL 解释器，使用 CEL (Common Expression Language) 实现。
// CEL 是 Google 开发的表达式语言，具有类型安全、高性能、线程安全等特性。
//
// 表达式编译一次，之后可对任意 (item, rctx) 反复求值，适合按候选逐条过滤。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "catalog" / label.rank_model != "weighted"
//   - 数值：item.score > 0.7 / item.features.rating_norm >= 0.5
//   - 逻辑：label.category == "A" && item.score > 0.8
//   - 存在性：label.recall_source != null
//   - 包含：label.recall_source.contains("top_rated") 或 "top_rated" in label.recall_source
//
// 注意：has(label.key) 可以用 label.key != null 替代
type Eval struct {
	expr string
	env  *cel.Env
	prg  cel.Program
}

// NewEval 编译 DSL 表达式并返回解释器。
// 空表达式合法，求值时恒为 true。
func NewEval(expr string) (*Eval, error) {
	e := &Eval{expr: expr}
	if expr == "" {
		return e, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env error: %v", err)
	}
	e.env = env

	// 编译表达式
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}

	// 创建程序
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	e.prg = prg
	return e, nil
}

// Evaluate 对单个 (item, rctx) 执行已编译的表达式，返回布尔结果。
func (e *Eval) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if e.expr == "" {
		return true, nil
	}

	// 准备输入数据
	input := buildInput(item, rctx)

	// 执行表达式
	out, _, err := e.prg.Eval(input)
	if err != nil {
		// 对于不存在的 key，CEL 会返回错误
		// 用户应该使用 label.key != null 来检查存在性，而不是直接访问
		return false, fmt.Errorf("eval error: %v", err)
	}

	// 转换为布尔值
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	// 构建 label map
	labels := make(map[string]interface{})
	for k, v := range it.Labels {
		labels[k] = map[string]interface{}{
			"value":  v.Value,
			"source": v.Source,
		}
	}

	// 构建 item map
	item := map[string]interface{}{
		"id":       it.ID,
		"score":    it.Score,
		"features": it.Features,
		"meta":     it.Meta,
		"labels":   labels,
	}

	// 构建 rctx map
	rctxMap := map[string]interface{}{}
	if rctx != nil {
		rctxMap = map[string]interface{}{
			"user_id":      rctx.UserID,
			"scene":        rctx.Scene,
			"location":     rctx.Location,
			"condition":    rctx.Condition,
			"user_profile": rctx.UserProfile,
			"params":       rctx.Params,
		}
	}

	// label 作为顶层访问入口，例如 label.recall_source 直接取 value
	// 注意：CEL 访问不存在的 key 会报错，所以使用 label.key != null 检查存在性
	labelAccessor := make(map[string]interface{})
	for k, v := range labels {
		labelAccessor[k] = v.(map[string]interface{})["value"]
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rctxMap,
	}
}

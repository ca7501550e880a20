package core

import (
	"strconv"

	"github.com/rushteam/medikit/pkg/utils"
)

// RecommendContext 承载用户/查询/场景信息，贯穿整个 Pipeline 透传。
// 一次就诊咨询对应一个 RecommendContext；查询字段只在本次请求内有效。
type RecommendContext struct {
	UserID string // 使用 string 类型（通用，支持所有 ID 格式）
	Scene  string

	// Location 查询地点（如城市名），用于地址匹配
	Location string

	// Condition 病情描述（自由文本），用于症状相似度匹配
	Condition string

	// User 是强类型用户画像
	User *UserProfile

	// UserProfile 是 map 形式，用于快速原型或动态属性
	// 如果 User 不为空，优先使用 User；否则使用 UserProfile
	UserProfile map[string]any

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：新用户、复诊用户等
	Labels map[string]utils.Label

	// Params 请求级上下文参数（top_n、weights 覆盖等）
	Params map[string]any
}

// QueryLocation 返回本次查询的地点；查询字段为空时回退到用户画像。
func (rctx *RecommendContext) QueryLocation() string {
	if rctx.Location != "" {
		return rctx.Location
	}
	if p := rctx.GetUserProfile(); p != nil {
		return p.Location
	}
	return ""
}

// QueryCondition 返回本次查询的病情描述；查询字段为空时回退到用户画像。
func (rctx *RecommendContext) QueryCondition() string {
	if rctx.Condition != "" {
		return rctx.Condition
	}
	if p := rctx.GetUserProfile(); p != nil {
		return p.MedicalCondition
	}
	return ""
}

// GetUserProfile 获取用户画像。
// 优先返回强类型 UserProfile，如果为空则从 UserProfile map 构建。
func (rctx *RecommendContext) GetUserProfile() *UserProfile {
	if rctx.User != nil {
		return rctx.User
	}
	// 从 UserProfile 构建
	if rctx.UserProfile != nil {
		uid, _ := strconv.ParseInt(rctx.UserID, 10, 64)
		user := NewUserProfile(uid)
		// 提取静态属性
		if name, ok := rctx.UserProfile["name"].(string); ok {
			user.Name = name
		}
		if age, ok := rctx.UserProfile["age"].(float64); ok {
			user.Age = int(age)
		}
		if gender, ok := rctx.UserProfile["gender"].(string); ok {
			user.Gender = gender
		}
		if location, ok := rctx.UserProfile["location"].(string); ok {
			user.Location = location
		}
		if condition, ok := rctx.UserProfile["medical_condition"].(string); ok {
			user.MedicalCondition = condition
		}
		return user
	}
	return nil
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

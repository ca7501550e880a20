package core

import "time"

// UserProfile 是用户画像的核心抽象。
//
// 一句话定义：用户画像 = 推荐 Pipeline 的"全局上下文 + 特征源 + 决策信号"
//
// 它不是某一个 Node，而是：
//  - 被所有 Node 共享
//  - 缺省提供查询地点与病情描述（复诊场景）
//  - 可以被 Label 打标、回写、持续演进
//
// 字段与用户表（CSV）一一对应：user_id, name, location,
// medical_condition, gender, age。
type UserProfile struct {
	// UserID 是正整数主键，由注册流程分配（现有最大 ID + 1）
	UserID int64

	Name string

	// 静态属性（冷启动 / 查询缺省值）
	Gender   string // male / female / unknown
	Age      int
	Location string

	// MedicalCondition 最近一次登记的病情描述
	MedicalCondition string

	// Visited 就诊过的医院 ID，用于复诊过滤
	Visited []string

	// 元数据
	UpdatedAt time.Time // 最后更新时间
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID int64) *UserProfile {
	return &UserProfile{
		UserID:    userID,
		Visited:   make([]string, 0),
		UpdatedAt: time.Now(),
	}
}

// UpdateCondition 更新病情描述（每次就诊咨询后回写）。
func (p *UserProfile) UpdateCondition(condition string) {
	p.MedicalCondition = condition
	p.UpdatedAt = time.Now()
}

// AddVisited 添加就诊记录。
func (p *UserProfile) AddVisited(hospitalID string, maxSize int) {
	if p.Visited == nil {
		p.Visited = make([]string, 0)
	}
	// 去重
	for _, id := range p.Visited {
		if id == hospitalID {
			return
		}
	}
	p.Visited = append(p.Visited, hospitalID)
	// 限制大小
	if maxSize > 0 && len(p.Visited) > maxSize {
		p.Visited = p.Visited[len(p.Visited)-maxSize:]
	}
	p.UpdatedAt = time.Now()
}

// HasVisited 检查用户是否就诊过某家医院。
func (p *UserProfile) HasVisited(hospitalID string) bool {
	for _, id := range p.Visited {
		if id == hospitalID {
			return true
		}
	}
	return false
}

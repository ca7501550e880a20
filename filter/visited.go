package filter

import (
	"context"

	"github.com/rushteam/medikit/core"
)

// VisitedFilter 是复诊过滤器，过滤掉用户已经就诊过的医院，
// 用于"换一家看看"的场景。默认不启用：复诊用户回到上次就诊的
// 医院往往才是更合理的推荐。
//
// 就诊记录来源优先级：
//   - 用户画像 UserProfile.Visited（随用户表加载，无需额外存储）
//   - Store 中的 JSON 列表，key 为 {KeyPrefix}:{UserID}
type VisitedFilter struct {
	// Store 用于从存储中读取就诊记录（可选）
	Store VisitedStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string
}

// VisitedStore 是就诊记录存储接口。
type VisitedStore interface {
	// GetVisited 获取用户就诊过的医院 ID 列表
	GetVisited(ctx context.Context, userID string, keyPrefix string) ([]string, error)
}

// NewVisitedFilter 创建一个复诊过滤器。
func NewVisitedFilter(storeAdapter *StoreAdapter, keyPrefix string) *VisitedFilter {
	var store VisitedStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &VisitedFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *VisitedFilter) Name() string {
	return "filter.visited"
}

func (f *VisitedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil {
		return false, nil
	}

	// 画像优先：加载用户表时 Visited 已就位
	if p := rctx.GetUserProfile(); p != nil && p.HasVisited(item.ID) {
		return true, nil
	}

	if f.Store == nil || rctx.UserID == "" {
		return false, nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:visited"
	}

	visited, err := f.Store.GetVisited(ctx, rctx.UserID, keyPrefix)
	if err != nil {
		return false, nil
	}

	for _, id := range visited {
		if item.ID == id {
			return true, nil
		}
	}

	return false, nil
}

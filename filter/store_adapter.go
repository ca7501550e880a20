package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/medikit/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 名单统一存成 JSON 数组（与 recall 榜单的存储格式一致）。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetExcluded 从 Store 读取排除名单。
func (a *StoreAdapter) GetExcluded(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}

	return ids, nil
}

// GetVisited 从 Store 读取用户就诊记录。
func (a *StoreAdapter) GetVisited(ctx context.Context, userID string, keyPrefix string) ([]string, error) {
	key := keyPrefix + ":" + userID
	return a.GetExcluded(ctx, key)
}

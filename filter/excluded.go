package filter

import (
	"context"

	"github.com/rushteam/medikit/core"
)

// ExcludedFilter 是排除名单过滤器，过滤掉名单中的医院
// （停诊、整改、用户明确拒绝等）。
type ExcludedFilter struct {
	// HospitalIDs 是内存中的排除名单
	HospitalIDs []string

	// Store 用于从存储中读取排除名单（可选）
	Store ExcludedStore

	// Key 是 Store 中的名单 key（可选）
	Key string
}

// ExcludedStore 是排除名单存储接口。
type ExcludedStore interface {
	// GetExcluded 获取排除的医院 ID 列表
	GetExcluded(ctx context.Context, key string) ([]string, error)
}

// NewExcludedFilter 创建一个排除名单过滤器。
func NewExcludedFilter(hospitalIDs []string, storeAdapter *StoreAdapter, key string) *ExcludedFilter {
	var store ExcludedStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &ExcludedFilter{
		HospitalIDs: hospitalIDs,
		Store:       store,
		Key:         key,
	}
}

func (f *ExcludedFilter) Name() string {
	return "filter.excluded"
}

func (f *ExcludedFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	// 从内存名单检查
	for _, id := range f.HospitalIDs {
		if item.ID == id {
			return true, nil
		}
	}

	// 从 Store 检查
	if f.Store != nil && f.Key != "" {
		excluded, err := f.Store.GetExcluded(ctx, f.Key)
		if err == nil {
			for _, id := range excluded {
				if item.ID == id {
					return true, nil
				}
			}
		}
	}

	return false, nil
}

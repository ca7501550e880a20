package store

import (
	"context"

	"github.com/rushteam/medikit/core"
)

// DefaultTopRatedKey 是医院评分榜单的有序集合 key，
// 与 recall.TopRated 的读取约定一致。
const DefaultTopRatedKey = "toprated:hospitals"

// SeedTopRated 把医院目录按评分写入有序集合，作为 recall.TopRated 的榜单数据。
// 评分缺失或非数值的医院按 0 分入榜。后端不支持有序集合（如 Badger）时
// 原样返回 core.ErrStoreNotSupported，调用方退回目录排序即可。
func SeedTopRated(ctx context.Context, kv core.KeyValueStore, key string, catalog *core.HospitalCatalog) error {
	if kv == nil || catalog.Len() == 0 {
		return nil
	}
	if key == "" {
		key = DefaultTopRatedKey
	}
	for _, h := range catalog.Hospitals() {
		if err := kv.ZAdd(ctx, key, h.RatingValue(), h.ID); err != nil {
			return err
		}
	}
	return nil
}

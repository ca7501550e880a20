package store

import (
	"context"
	"encoding/json"

	"github.com/rushteam/medikit/core"
)

// DefaultVisitedPrefix 是用户就诊名单的 key 前缀，
// 实际 key 为 {prefix}:{userID}，与 filter.VisitedFilter 的缺省一致。
const DefaultVisitedPrefix = "user:visited"

// VisitedKey 拼接用户就诊名单的存储 key。
func VisitedKey(keyPrefix, userID string) string {
	if keyPrefix == "" {
		keyPrefix = DefaultVisitedPrefix
	}
	return keyPrefix + ":" + userID
}

// AppendVisited 把医院追加到用户的就诊名单（JSON 数组，读改写）。
// 名单不存在时新建；已在名单中的医院不重复记录。
func AppendVisited(ctx context.Context, s core.Store, keyPrefix, userID, hospitalID string) error {
	key := VisitedKey(keyPrefix, userID)

	var ids []string
	data, err := s.Get(ctx, key)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
	case core.IsStoreNotFound(err):
		// 首次就诊，名单从空开始
	default:
		return err
	}

	for _, id := range ids {
		if id == hospitalID {
			return nil
		}
	}
	ids = append(ids, hospitalID)

	data, err = json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}

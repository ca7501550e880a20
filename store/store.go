package store

import "github.com/rushteam/medikit/core"

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
//
// 示例：
//   var store core.Store = NewMemoryStore()
//   var kvStore core.KeyValueStore = NewMemoryStore()

// ErrNotFound 是 core.ErrStoreNotFound 的包内别名。
var ErrNotFound = core.ErrStoreNotFound

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/medikit/core"
)

// janitorInterval 是过期记录的后台清理周期。
// 读路径上另有惰性过期检查，清理只为回收内存。
const janitorInterval = time.Minute

// MemoryStore 是进程内的 KeyValueStore，开发与单机 CLI 的默认后端。
// 承载三类数据：
//   - KV：排除/就诊名单（JSON 数组）、用户/医院特征（JSON 对象）
//   - 有序集合：医院评分榜单（SeedTopRated 写入，recall.TopRated 读取）
//   - 哈希：医院元数据按字段读写
//
// 数据不落盘，进程退出即丢失；需要持久化时换用 BadgerStore 或 RedisStore。
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]record
	zsets   map[string]map[string]float64 // key -> member -> score
	hashes  map[string]map[string][]byte  // key -> field -> value
	done    chan struct{}
}

type record struct {
	value     []byte
	expiresAt time.Time // 零值表示不过期
}

func (r record) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && now.After(r.expiresAt)
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		records: make(map[string]record),
		zsets:   make(map[string]map[string]float64),
		hashes:  make(map[string]map[string][]byte),
		done:    make(chan struct{}),
	}
	go ms.janitor()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[key]
	if !ok || r.expired(time.Now()) {
		return nil, core.ErrStoreNotFound
	}
	return r.value, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = newRecord(value, ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

// BatchGet 批量读取；缺失或过期的 key 跳过，不报错（与 Redis MGET 语义一致）。
func (m *MemoryStore) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if r, ok := m.records[k]; ok && !r.expired(now) {
			result[k] = r.value
		}
	}
	return result, nil
}

func (m *MemoryStore) BatchSet(_ context.Context, kvs map[string][]byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range kvs {
		m.records[k] = newRecord(v, ttl)
	}
	return nil
}

func (m *MemoryStore) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}

func newRecord(value []byte, ttl []int) record {
	r := record{value: value}
	if len(ttl) > 0 && ttl[0] > 0 {
		r.expiresAt = time.Now().Add(time.Duration(ttl[0]) * time.Second)
	}
	return r
}

// janitor 周期回收过期记录，Close 后退出。
func (m *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, r := range m.records {
				if r.expired(now) {
					delete(m.records, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

// 有序集合：评分榜单。

func (m *MemoryStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	zset, ok := m.zsets[key]
	if !ok {
		zset = make(map[string]float64)
		m.zsets[key] = zset
	}
	zset[member] = score
	return nil
}

// ZRange 按分数降序返回 [start, stop] 闭区间的成员。
// 同分成员按名称升序，保证榜单顺序可复现（同评分医院不随 map 遍历乱序）。
func (m *MemoryStore) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zset := m.zsets[key]
	if len(zset) == 0 {
		return nil, nil
	}

	members := make([]string, 0, len(zset))
	for member := range zset {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := zset[members[i]], zset[members[j]]
		if si != sj {
			return si > sj
		}
		return members[i] < members[j]
	})

	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(members)) {
		stop = int64(len(members)) - 1
	}
	if start > stop {
		return nil, nil
	}
	return members[start : stop+1], nil
}

func (m *MemoryStore) ZScore(_ context.Context, key string, member string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	score, ok := m.zsets[key][member]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	return score, nil
}

// 哈希：医院元数据按字段读写。

func (m *MemoryStore) HGet(_ context.Context, key, field string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.hashes[key][field]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return value, nil
}

func (m *MemoryStore) HSet(_ context.Context, key, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string][]byte)
		m.hashes[key] = hash
	}
	hash[field] = value
	return nil
}

func (m *MemoryStore) HGetAll(_ context.Context, key string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]byte, len(m.hashes[key]))
	for field, value := range m.hashes[key] {
		result[field] = value
	}
	return result, nil
}

// 确保 MemoryStore 实现了 core.Store 和 core.KeyValueStore 接口
var _ core.Store = (*MemoryStore)(nil)
var _ core.KeyValueStore = (*MemoryStore)(nil)

package store

import (
	"context"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/rushteam/medikit/core"
)

// BadgerStore 是 Badger 实现的本地嵌入式 Store，适合单机 CLI 场景：
// 不依赖外部服务，数据落在本地目录，进程重启后仍在。
//
// 接口覆盖：
//   - Store 全量实现（Get/Set/Delete/BatchGet/BatchSet，TTL 支持）
//   - Hash 操作用 key 前缀模拟（field 拼接在 key 后），HGetAll 走前缀扫描
//   - 有序集合（ZAdd/ZRange/ZScore）返回 ErrStoreNotSupported，
//     需要榜单排序时换用 RedisStore 或 MemoryStore
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore 打开（必要时创建）指定目录下的 Badger 数据库。
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Badger 自带日志太吵，关闭
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Name() string { return "badger" }

func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, core.ErrStoreNotFound
	}
	return value, err
}

func (b *BadgerStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if len(ttl) > 0 && ttl[0] > 0 {
			entry = entry.WithTTL(time.Duration(ttl[0]) * time.Second)
		}
		return txn.SetEntry(entry)
	})
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *BadgerStore) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err == badger.ErrKeyNotFound {
				continue // 缺失 key 跳过，与 Redis MGET 语义一致
			}
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[key] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *BadgerStore) BatchSet(_ context.Context, kvs map[string][]byte, ttl ...int) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	var expiration time.Duration
	if len(ttl) > 0 && ttl[0] > 0 {
		expiration = time.Duration(ttl[0]) * time.Second
	}
	for k, v := range kvs {
		entry := badger.NewEntry([]byte(k), v)
		if expiration > 0 {
			entry = entry.WithTTL(expiration)
		}
		if err := wb.SetEntry(entry); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// hashKey 拼接 Hash 的实际存储 key。
func hashKey(key, field string) string {
	return key + ":" + field
}

func (b *BadgerStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	return b.Get(ctx, hashKey(key, field))
}

func (b *BadgerStore) HSet(ctx context.Context, key, field string, value []byte) error {
	return b.Set(ctx, hashKey(key, field), value)
}

func (b *BadgerStore) HGetAll(_ context.Context, key string) (map[string][]byte, error) {
	prefix := []byte(key + ":")
	result := make(map[string][]byte)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			field := string(item.Key()[len(prefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[field] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// 有序集合需要按分数排序的范围读取，Badger 不提供；榜单场景换用 Redis/Memory。

func (b *BadgerStore) ZAdd(_ context.Context, _ string, _ float64, _ string) error {
	return core.ErrStoreNotSupported
}

func (b *BadgerStore) ZRange(_ context.Context, _ string, _, _ int64) ([]string, error) {
	return nil, core.ErrStoreNotSupported
}

func (b *BadgerStore) ZScore(_ context.Context, _ string, _ string) (float64, error) {
	return 0, core.ErrStoreNotSupported
}

// 确保 BadgerStore 实现了 core.Store 和 core.KeyValueStore 接口
var _ core.Store = (*BadgerStore)(nil)
var _ core.KeyValueStore = (*BadgerStore)(nil)

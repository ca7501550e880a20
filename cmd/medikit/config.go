package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/store"
)

// appConfig 是 CLI 的 YAML 配置，命令行标志优先于配置文件取值。
//
// 示例：
//
//	hospitals: data/hospitals.csv
//	users: data/users.csv
//	top_n: 5
//	weights:
//	  location: 0.4
//	  disease: 0.4
//	  rating: 0.2
//	store:
//	  backend: badger
//	  path: data/medikit.db
type appConfig struct {
	Hospitals string             `yaml:"hospitals"`
	Users     string             `yaml:"users"`
	TopN      int                `yaml:"top_n"`
	Weights   *core.ScoreWeights `yaml:"weights"`
	Store     *storeConfig       `yaml:"store"`
}

// storeConfig 选择存储后端，承载评分榜单、就诊名单与特征。
// 不配置时 CLI 只用 CSV 目录，不触碰任何存储。
type storeConfig struct {
	Backend     string `yaml:"backend"`       // memory / redis / badger
	Addr        string `yaml:"addr"`          // redis 地址，如 127.0.0.1:6379
	DB          int    `yaml:"db"`            // redis 库号
	Password    string `yaml:"password"`      // redis 密码（可选）
	Path        string `yaml:"path"`          // badger 数据目录
	TopRatedKey string `yaml:"top_rated_key"` // 榜单 key，空用默认
}

// loadAppConfig 读取配置文件；path 为空时返回零值配置。
func loadAppConfig(path string) (*appConfig, error) {
	cfg := &appConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// openStore 按配置打开存储后端。
func openStore(cfg *storeConfig) (core.KeyValueStore, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		var opts []store.RedisOption
		if cfg.Password != "" {
			opts = append(opts, store.WithRedisPassword(cfg.Password))
		}
		return store.NewRedisStore(cfg.Addr, cfg.DB, opts...)
	case "badger":
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger store requires a path")
		}
		return store.NewBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want memory, redis or badger)", cfg.Backend)
	}
}

// openConfiguredStore 打开配置中的存储；未配置时返回 (nil, nil)。
func openConfiguredStore(cfg *appConfig) (core.KeyValueStore, error) {
	if cfg.Store == nil || cfg.Store.Backend == "" {
		return nil, nil
	}
	return openStore(cfg.Store)
}

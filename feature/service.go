package feature

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/medikit/core"
)

// Feature 错误定义（使用统一的 DomainError）
var (
	// ErrFeatureNotFound 特征未找到
	ErrFeatureNotFound = core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFound, "feature: feature not found")
	// ErrFeatureServiceUnavailable 特征服务不可用
	ErrFeatureServiceUnavailable = core.NewDomainError(core.ModuleFeature, core.ErrorCodeUnavailable, "feature: service unavailable")
)

// StoreFeatureService 是基于 core.Store 的特征服务实现。
// 特征以 JSON（map[string]float64）存在两类 key 下：
//
//	user:features:<user_id>        用户特征
//	hospital:features:<hospital_id> 医院特征
//
// 任意 Store 后端（内存/Redis/Badger）都可直接充当特征源。
type StoreFeatureService struct {
	store          core.Store
	userPrefix     string
	hospitalPrefix string
}

// StoreFeatureServiceOption 配置 StoreFeatureService。
type StoreFeatureServiceOption func(*StoreFeatureService)

// WithUserKeyPrefix 覆盖用户特征 key 前缀。
func WithUserKeyPrefix(prefix string) StoreFeatureServiceOption {
	return func(s *StoreFeatureService) { s.userPrefix = prefix }
}

// WithHospitalKeyPrefix 覆盖医院特征 key 前缀。
func WithHospitalKeyPrefix(prefix string) StoreFeatureServiceOption {
	return func(s *StoreFeatureService) { s.hospitalPrefix = prefix }
}

// NewStoreFeatureService 创建基于 Store 的特征服务。
func NewStoreFeatureService(s core.Store, opts ...StoreFeatureServiceOption) *StoreFeatureService {
	svc := &StoreFeatureService{
		store:          s,
		userPrefix:     "user:features:",
		hospitalPrefix: "hospital:features:",
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *StoreFeatureService) Name() string {
	return fmt.Sprintf("store.%s", s.store.Name())
}

func (s *StoreFeatureService) GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error) {
	return s.get(ctx, s.userPrefix+userID)
}

func (s *StoreFeatureService) BatchGetUserFeatures(ctx context.Context, userIDs []string) (map[string]map[string]float64, error) {
	return s.batchGet(ctx, s.userPrefix, userIDs)
}

func (s *StoreFeatureService) GetItemFeatures(ctx context.Context, hospitalID string) (map[string]float64, error) {
	return s.get(ctx, s.hospitalPrefix+hospitalID)
}

func (s *StoreFeatureService) BatchGetItemFeatures(ctx context.Context, hospitalIDs []string) (map[string]map[string]float64, error) {
	return s.batchGet(ctx, s.hospitalPrefix, hospitalIDs)
}

// SetUserFeatures 写入用户特征（注册/回写流程使用）。
func (s *StoreFeatureService) SetUserFeatures(ctx context.Context, userID string, features map[string]float64) error {
	return s.set(ctx, s.userPrefix+userID, features)
}

// SetHospitalFeatures 写入医院特征（离线统计导入使用）。
func (s *StoreFeatureService) SetHospitalFeatures(ctx context.Context, hospitalID string, features map[string]float64) error {
	return s.set(ctx, s.hospitalPrefix+hospitalID, features)
}

func (s *StoreFeatureService) Close(_ context.Context) error {
	return s.store.Close()
}

func (s *StoreFeatureService) get(ctx context.Context, key string) (map[string]float64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, ErrFeatureNotFound
		}
		return nil, err
	}
	var features map[string]float64
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, err
	}
	return features, nil
}

func (s *StoreFeatureService) batchGet(ctx context.Context, prefix string, ids []string) (map[string]map[string]float64, error) {
	if len(ids) == 0 {
		return make(map[string]map[string]float64), nil
	}
	keys := make([]string, len(ids))
	keyToID := make(map[string]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id
		keyToID[keys[i]] = id
	}
	dataMap, err := s.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	result := make(map[string]map[string]float64, len(dataMap))
	for key, data := range dataMap {
		var features map[string]float64
		if err := json.Unmarshal(data, &features); err != nil {
			continue // 跳过反序列化失败的特征
		}
		result[keyToID[key]] = features
	}
	return result, nil
}

func (s *StoreFeatureService) set(ctx context.Context, key string, features map[string]float64) error {
	data, err := json.Marshal(features)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, data)
}

// 接口实现断言
var _ core.FeatureService = (*StoreFeatureService)(nil)

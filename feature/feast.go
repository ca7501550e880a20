package feature

import (
	"context"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/feast"
	"github.com/rushteam/medikit/pkg/conv"
)

// FeastFeatureService 是基于 Feast Feature Store 的特征服务实现。
// 服务化部署时用它替换 StoreFeatureService：用户/医院特征由 Feast
// 在线存储统一供给，EnrichNode 无需感知差异。
//
// 特征命名约定（FeatureView:FeatureName）：
//   - 用户特征：user_stats:*，实体键 user_id
//   - 医院特征：hospital_stats:*，实体键 hospital_id
type FeastFeatureService struct {
	client           feast.Client
	userFeatures     []string // 要拉取的用户特征全名列表
	hospitalFeatures []string // 要拉取的医院特征全名列表
}

// FeastFeatureServiceOption 配置 FeastFeatureService。
type FeastFeatureServiceOption func(*FeastFeatureService)

// WithUserFeatures 指定要拉取的用户特征（FeatureView:FeatureName）。
func WithUserFeatures(features []string) FeastFeatureServiceOption {
	return func(s *FeastFeatureService) { s.userFeatures = features }
}

// WithHospitalFeatures 指定要拉取的医院特征（FeatureView:FeatureName）。
func WithHospitalFeatures(features []string) FeastFeatureServiceOption {
	return func(s *FeastFeatureService) { s.hospitalFeatures = features }
}

// NewFeastFeatureService 创建基于 Feast 的特征服务。
func NewFeastFeatureService(client feast.Client, opts ...FeastFeatureServiceOption) *FeastFeatureService {
	svc := &FeastFeatureService{client: client}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *FeastFeatureService) Name() string { return "feast" }

func (s *FeastFeatureService) GetUserFeatures(ctx context.Context, userID string) (map[string]float64, error) {
	result, err := s.batchGet(ctx, s.userFeatures, "user_id", []string{userID})
	if err != nil {
		return nil, err
	}
	features, ok := result[userID]
	if !ok {
		return nil, ErrFeatureNotFound
	}
	return features, nil
}

func (s *FeastFeatureService) BatchGetUserFeatures(ctx context.Context, userIDs []string) (map[string]map[string]float64, error) {
	return s.batchGet(ctx, s.userFeatures, "user_id", userIDs)
}

func (s *FeastFeatureService) GetItemFeatures(ctx context.Context, hospitalID string) (map[string]float64, error) {
	result, err := s.batchGet(ctx, s.hospitalFeatures, "hospital_id", []string{hospitalID})
	if err != nil {
		return nil, err
	}
	features, ok := result[hospitalID]
	if !ok {
		return nil, ErrFeatureNotFound
	}
	return features, nil
}

func (s *FeastFeatureService) BatchGetItemFeatures(ctx context.Context, hospitalIDs []string) (map[string]map[string]float64, error) {
	return s.batchGet(ctx, s.hospitalFeatures, "hospital_id", hospitalIDs)
}

func (s *FeastFeatureService) Close(_ context.Context) error {
	return s.client.Close()
}

// batchGet 一次请求拉取一批实体的特征，数值型之外的特征值被丢弃。
func (s *FeastFeatureService) batchGet(ctx context.Context, features []string, entityKey string, ids []string) (map[string]map[string]float64, error) {
	result := make(map[string]map[string]float64, len(ids))
	if len(features) == 0 || len(ids) == 0 {
		return result, nil
	}

	entityRows := make([]map[string]interface{}, len(ids))
	for i, id := range ids {
		entityRows[i] = map[string]interface{}{entityKey: id}
	}

	resp, err := s.client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: entityRows,
	})
	if err != nil {
		return nil, ErrFeatureServiceUnavailable
	}

	for i, fv := range resp.FeatureVectors {
		if i >= len(ids) {
			break
		}
		values := make(map[string]float64, len(fv.Values))
		for name, v := range fv.Values {
			if f, ok := conv.ToFloat64(v); ok {
				values[name] = f
			}
		}
		result[ids[i]] = values
	}
	return result, nil
}

// 接口实现断言
var _ core.FeatureService = (*FeastFeatureService)(nil)

package recall

import (
	"context"
	"testing"

	"github.com/rushteam/medikit/core"
)

// fakeVectorService 记录请求并返回固定结果。
type fakeVectorService struct {
	lastReq *core.VectorSearchRequest
	items   []core.VectorSearchItem
}

func (s *fakeVectorService) Search(_ context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	s.lastReq = req
	return &core.VectorSearchResult{Items: s.items}, nil
}

func (s *fakeVectorService) Close() error { return nil }

func TestConditionRecall(t *testing.T) {
	svc := &fakeVectorService{
		items: []core.VectorSearchItem{
			{ID: "h1", Score: 0.9},
			{ID: "h3", Score: 0.4},
		},
	}
	r := &Condition{
		Service:    svc,
		Collection: "symptoms",
		TopK:       5,
		Vectorize:  func(string) []float64 { return []float64{1, 0, 0} },
	}
	rctx := &core.RecommendContext{Condition: "fever and cough"}

	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID != "h1" || items[0].Score != 0.9 {
		t.Errorf("items[0] = %+v, want h1/0.9", items[0])
	}
	if svc.lastReq.Collection != "symptoms" || svc.lastReq.TopK != 5 {
		t.Errorf("unexpected request: %+v", svc.lastReq)
	}
	if svc.lastReq.Metric != string(core.MetricCosine) {
		t.Errorf("Metric = %q, want cosine default", svc.lastReq.Metric)
	}
}

func TestConditionRecall_EmptyCondition(t *testing.T) {
	svc := &fakeVectorService{}
	r := &Condition{
		Service:   svc,
		Vectorize: func(string) []float64 { return []float64{1} },
	}
	items, err := r.Recall(context.Background(), &core.RecommendContext{})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if items != nil {
		t.Errorf("items = %+v, want nil", items)
	}
	if svc.lastReq != nil {
		t.Error("Search should not be called without a condition")
	}
}

func TestConditionRecall_ConditionFromProfile(t *testing.T) {
	svc := &fakeVectorService{items: []core.VectorSearchItem{{ID: "h1", Score: 1}}}
	r := &Condition{
		Service:   svc,
		Vectorize: func(string) []float64 { return []float64{1} },
	}
	rctx := &core.RecommendContext{
		User: &core.UserProfile{UserID: 7, MedicalCondition: "skin rash"},
	}
	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len(items) = %d, want 1 (condition should fall back to profile)", len(items))
	}
}

func TestConditionRecall_MissingDependencies(t *testing.T) {
	tests := []struct {
		name string
		r    *Condition
	}{
		{name: "nil service", r: &Condition{Vectorize: func(string) []float64 { return []float64{1} }}},
		{name: "nil vectorize", r: &Condition{Service: &fakeVectorService{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := tt.r.Recall(context.Background(), &core.RecommendContext{Condition: "fever"})
			if err != nil {
				t.Fatalf("Recall() error = %v", err)
			}
			if items != nil {
				t.Errorf("items = %+v, want nil", items)
			}
		})
	}
}

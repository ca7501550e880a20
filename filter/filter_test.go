package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/store"
)

func TestExcludedFilter(t *testing.T) {
	f := NewExcludedFilter([]string{"h1", "h3"}, nil, "")

	tests := []struct {
		id   string
		want bool
	}{
		{id: "h1", want: true},
		{id: "h2", want: false},
		{id: "h3", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), nil, core.NewItem(tt.id))
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

type fakeExcludedStore struct {
	ids []string
	err error
}

func (s *fakeExcludedStore) GetExcluded(_ context.Context, _ string) ([]string, error) {
	return s.ids, s.err
}

func TestExcludedFilter_Store(t *testing.T) {
	f := &ExcludedFilter{
		Store: &fakeExcludedStore{ids: []string{"h9"}},
		Key:   "excluded:hospitals",
	}

	got, err := f.ShouldFilter(context.Background(), nil, core.NewItem("h9"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if !got {
		t.Error("ShouldFilter(h9) = false, want true (store list)")
	}

	// Store 出错时放行
	f.Store = &fakeExcludedStore{err: errors.New("store down")}
	got, err = f.ShouldFilter(context.Background(), nil, core.NewItem("h9"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if got {
		t.Error("ShouldFilter(h9) = true on store error, want false")
	}
}

func TestVisitedFilter_Profile(t *testing.T) {
	profile := core.NewUserProfile(1)
	profile.AddVisited("h1", 0)
	rctx := &core.RecommendContext{UserID: "1", User: profile}

	f := NewVisitedFilter(nil, "")

	got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem("h1"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if !got {
		t.Error("ShouldFilter(h1) = false, want true (visited)")
	}

	got, err = f.ShouldFilter(context.Background(), rctx, core.NewItem("h2"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if got {
		t.Error("ShouldFilter(h2) = true, want false (not visited)")
	}
}

type fakeVisitedStore struct {
	gotUserID string
	gotPrefix string
	ids       []string
}

func (s *fakeVisitedStore) GetVisited(_ context.Context, userID, keyPrefix string) ([]string, error) {
	s.gotUserID = userID
	s.gotPrefix = keyPrefix
	return s.ids, nil
}

func TestVisitedFilter_Store(t *testing.T) {
	store := &fakeVisitedStore{ids: []string{"h5"}}
	f := &VisitedFilter{Store: store}
	rctx := &core.RecommendContext{UserID: "42"}

	got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem("h5"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if !got {
		t.Error("ShouldFilter(h5) = false, want true (store record)")
	}
	if store.gotUserID != "42" {
		t.Errorf("store userID = %s, want 42", store.gotUserID)
	}
	if store.gotPrefix != "user:visited" {
		t.Errorf("store keyPrefix = %s, want default user:visited", store.gotPrefix)
	}
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter(`item.features.rating_norm >= 0.6`)
	if err != nil {
		t.Fatalf("NewExprFilter() error = %v", err)
	}

	high := core.NewItem("h1")
	high.PutFeature("rating_norm", 0.9)
	low := core.NewItem("h2")
	low.PutFeature("rating_norm", 0.3)

	got, err := f.ShouldFilter(context.Background(), nil, high)
	if err != nil {
		t.Fatalf("ShouldFilter(high) error = %v", err)
	}
	if got {
		t.Error("high-rating hospital filtered, want kept")
	}

	got, err = f.ShouldFilter(context.Background(), nil, low)
	if err != nil {
		t.Fatalf("ShouldFilter(low) error = %v", err)
	}
	if !got {
		t.Error("low-rating hospital kept, want filtered")
	}
}

func TestExprFilter_CompileError(t *testing.T) {
	if _, err := NewExprFilter(`item.score >`); err == nil {
		t.Fatal("NewExprFilter() error = nil, want compile error")
	}
}

type errFilter struct{}

func (errFilter) Name() string { return "filter.err" }
func (errFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("boom")
}

// 过滤器出错时不中断链路，该候选放行。
func TestFilterNode_FailOpen(t *testing.T) {
	node := &FilterNode{Filters: []Filter{
		errFilter{},
		NewExcludedFilter([]string{"h2"}, nil, ""),
	}}

	out, err := node.Process(context.Background(), nil, []*core.Item{
		core.NewItem("h1"),
		core.NewItem("h2"),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "h1" {
		t.Errorf("out = %v, want only h1", out)
	}
}

func TestStoreAdapter(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.Set(ctx, "excluded:hospitals", []byte(`["h1","h2"]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := ms.Set(ctx, "user:visited:42", []byte(`["h7"]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	adapter := NewStoreAdapter(ms)

	excluded, err := adapter.GetExcluded(ctx, "excluded:hospitals")
	if err != nil {
		t.Fatalf("GetExcluded() error = %v", err)
	}
	if len(excluded) != 2 || excluded[0] != "h1" {
		t.Errorf("GetExcluded() = %v, want [h1 h2]", excluded)
	}

	visited, err := adapter.GetVisited(ctx, "42", "user:visited")
	if err != nil {
		t.Fatalf("GetVisited() error = %v", err)
	}
	if len(visited) != 1 || visited[0] != "h7" {
		t.Errorf("GetVisited() = %v, want [h7]", visited)
	}

	if _, err := adapter.GetExcluded(ctx, "missing"); err == nil {
		t.Error("GetExcluded(missing) error = nil, want not-found")
	}
}

func TestFilterNode_FilteredLabel(t *testing.T) {
	node := &FilterNode{Filters: []Filter{NewExcludedFilter([]string{"h1"}, nil, "")}}
	h1 := core.NewItem("h1")

	out, err := node.Process(context.Background(), nil, []*core.Item{h1})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("len(out) = %d, want 0", len(out))
	}
	lbl, ok := h1.Labels["filtered"]
	if !ok || lbl.Source != "filter.excluded" {
		t.Errorf("filtered label = %+v, want source filter.excluded", lbl)
	}
}

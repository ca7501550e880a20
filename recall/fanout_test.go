package recall

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/medikit/core"
)

// fakeSource 是测试用召回源，返回固定 ID 列表或固定错误。
type fakeSource struct {
	name string
	ids  []string
	err  error
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Recall(_ context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Item, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, core.NewItem(id))
	}
	return out, nil
}

func TestFanout_MergeFirst(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&fakeSource{name: "a", ids: []string{"h1", "h2"}},
			&fakeSource{name: "b", ids: []string{"h2", "h3"}},
		},
		Dedup: true,
	}
	items, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	wantIDs := []string{"h1", "h2", "h3"}
	if len(items) != len(wantIDs) {
		t.Fatalf("len(items) = %d, want %d: %+v", len(items), len(wantIDs), items)
	}
	for i, it := range items {
		if it.ID != wantIDs[i] {
			t.Errorf("items[%d].ID = %q, want %q", i, it.ID, wantIDs[i])
		}
	}
	// 重复命中的候选应累积召回来源
	var h2 *core.Item
	for _, it := range items {
		if it.ID == "h2" {
			h2 = it
		}
	}
	if got := h2.Labels["recall_source"].Value; got != "a|b" {
		t.Errorf("recall_source = %q, want %q", got, "a|b")
	}
}

func TestFanout_MergeUnionKeepsDuplicates(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&fakeSource{name: "a", ids: []string{"h1"}},
			&fakeSource{name: "b", ids: []string{"h1"}},
		},
		Dedup:         true,
		MergeStrategy: "union",
	}
	items, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
}

func TestFanout_MergeByPriority(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&fakeSource{name: "primary", ids: []string{"h1"}},
			&fakeSource{name: "secondary", ids: []string{"h1", "h2"}},
		},
		Dedup:         true,
		MergeStrategy: "priority",
	}
	items, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID != "h1" || items[1].ID != "h2" {
		t.Errorf("unexpected order: %q, %q", items[0].ID, items[1].ID)
	}
	// h1 保留高优先级来源，标签累积两路来源
	if got := items[0].Labels["recall_priority"].Value; got != "0|1" {
		t.Errorf("recall_priority = %q, want %q", got, "0|1")
	}
	if got := items[0].Labels["recall_source"].Value; got != "primary|secondary" {
		t.Errorf("recall_source = %q, want %q", got, "primary|secondary")
	}
}

func TestFanout_SourceErrorDoesNotAbort(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&fakeSource{name: "broken", err: errors.New("backend down")},
			&fakeSource{name: "ok", ids: []string{"h1"}},
		},
		Dedup: true,
	}
	items, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "h1" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestFanout_NoSources(t *testing.T) {
	n := &Fanout{}
	items, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if items != nil {
		t.Errorf("items = %+v, want nil", items)
	}
}

// 负的并发上限视同不限流，不得 panic。
func TestFanout_NegativeMaxConcurrent(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&fakeSource{name: "a", ids: []string{"h1"}},
			&fakeSource{name: "b", ids: []string{"h2"}},
		},
		Dedup:         true,
		MaxConcurrent: -1,
	}
	items, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
}

func TestFanout_MaxConcurrent(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&fakeSource{name: "a", ids: []string{"h1"}},
			&fakeSource{name: "b", ids: []string{"h2"}},
			&fakeSource{name: "c", ids: []string{"h3"}},
		},
		Dedup:         true,
		MaxConcurrent: 1,
	}
	items, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len(items) = %d, want 3", len(items))
	}
}

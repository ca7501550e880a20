package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/pkg/utils"
)

func items(ids ...string) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out
}

func TestTopNNode_Process(t *testing.T) {
	tests := []struct {
		name string
		n    int
		in   []*core.Item
		want []string
	}{
		{name: "truncate", n: 2, in: items("a", "b", "c"), want: []string{"a", "b"}},
		{name: "n equals len", n: 3, in: items("a", "b", "c"), want: []string{"a", "b", "c"}},
		{name: "n larger than len", n: 10, in: items("a", "b"), want: []string{"a", "b"}},
		{name: "n zero passthrough", n: 0, in: items("a", "b"), want: []string{"a", "b"}},
		{name: "empty input", n: 5, in: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			out, err := node.Process(context.Background(), nil, tt.in)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(out) != len(tt.want) {
				t.Fatalf("len(out) = %d, want %d", len(out), len(tt.want))
			}
			for i, id := range tt.want {
				if out[i].ID != id {
					t.Errorf("out[%d] = %s, want %s", i, out[i].ID, id)
				}
			}
		})
	}
}

func TestDiversity_Process(t *testing.T) {
	withMeta := func(id, spec string) *core.Item {
		it := core.NewItem(id)
		it.Meta["specializations"] = spec
		return it
	}

	node := &Diversity{}
	in := []*core.Item{
		withMeta("h1", "cardiology"),
		withMeta("h2", "cardiology"), // 同专长，去掉
		withMeta("h3", "orthopedics"),
		core.NewItem("h4"), // 无类别不参与去重
	}

	out, err := node.Process(context.Background(), nil, in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := []string{"h1", "h3", "h4"}
	if len(out) != len(want) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d] = %s, want %s", i, out[i].ID, id)
		}
	}
}

// 类别可从 Label 取，与 Meta 来源归一去重。
func TestDiversity_LabelSource(t *testing.T) {
	a := core.NewItem("a")
	a.PutLabel("cate", utils.Label{Value: "x", Source: "test"})
	b := core.NewItem("b")
	b.Meta["cate"] = "x"

	node := &Diversity{LabelKey: "cate"}
	out, err := node.Process(context.Background(), nil, []*core.Item{a, b})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("out = %v, want only a", out)
	}
}

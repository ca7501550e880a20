package rank

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/model"
)

func item(id string, features map[string]float64) *core.Item {
	it := core.NewItem(id)
	for k, v := range features {
		it.PutFeature(k, v)
	}
	return it
}

func TestWeightedNode_Process(t *testing.T) {
	node := &WeightedNode{
		Model: model.NewLinearModel(core.DefaultScoreWeights().Map()),
	}

	items := []*core.Item{
		item("h1", map[string]float64{
			core.FeatureLocationMatch:  0,
			core.FeatureConditionMatch: 0,
			core.FeatureRatingNorm:     1,
		}),
		item("h2", map[string]float64{
			core.FeatureLocationMatch:  1,
			core.FeatureConditionMatch: 1,
			core.FeatureRatingNorm:     0.8,
		}),
	}

	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// h2: 0.4+0.4+0.16=0.96 > h1: 0.2
	if out[0].ID != "h2" || out[1].ID != "h1" {
		t.Errorf("order = [%s %s], want [h2 h1]", out[0].ID, out[1].ID)
	}
	if math.Abs(out[0].Score-0.96) > 1e-9 {
		t.Errorf("h2 score = %v, want 0.96", out[0].Score)
	}
	if lbl, ok := out[0].Labels["rank_model"]; !ok || lbl.Source != "rank" {
		t.Errorf("rank_model label missing or wrong source: %+v", lbl)
	}
}

// 稳定排序：同分候选保持进入时顺序，不引入二级排序键。
func TestWeightedNode_StableSort(t *testing.T) {
	node := &WeightedNode{
		Model: model.NewLinearModel(map[string]float64{"x": 1}),
	}

	items := []*core.Item{
		item("a", map[string]float64{"x": 0.5}),
		item("b", map[string]float64{"x": 0.5}),
		item("c", map[string]float64{"x": 0.9}),
		item("d", map[string]float64{"x": 0.5}),
	}

	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := []string{"c", "a", "b", "d"}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d] = %s, want %s", i, out[i].ID, id)
		}
	}
}

func TestWeightedNode_NilModelPassthrough(t *testing.T) {
	node := &WeightedNode{}
	items := []*core.Item{item("h1", nil)}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "h1" {
		t.Errorf("out = %v, want passthrough", out)
	}
}

type failingModel struct{}

func (failingModel) Name() string                                  { return "failing" }
func (failingModel) Predict(features map[string]float64) (float64, error) {
	return 0, errors.New("predict failed")
}

func TestWeightedNode_ModelError(t *testing.T) {
	node := &WeightedNode{Model: failingModel{}}
	_, err := node.Process(context.Background(), nil, []*core.Item{item("h1", nil)})
	if err == nil {
		t.Fatal("Process() error = nil, want predict error")
	}
}

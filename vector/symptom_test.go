package vector

import (
	"context"
	"testing"

	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/model"
)

func testIndex() (*SymptomIndex, *model.TFIDFVectorizer) {
	catalog := core.NewHospitalCatalog([]core.Hospital{
		{ID: "h1", Symptoms: "fever cough headache"},
		{ID: "h2", Symptoms: "broken bone fracture"},
		{ID: "h3", Symptoms: "fever chest pain"},
	})
	engine := model.NewTFIDFVectorizer(catalog.SymptomCorpus())
	return NewSymptomIndex("hospital_symptoms", catalog, engine), engine
}

func TestSymptomIndex_Search(t *testing.T) {
	idx, engine := testIndex()

	result, err := idx.Search(context.Background(), &core.VectorSearchRequest{
		Collection: "hospital_symptoms",
		Vector:     engine.Transform("fever cough"),
		TopK:       2,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2 (TopK)", len(result.Items))
	}
	// h1 同时命中 fever/cough，应排第一
	if result.Items[0].ID != "h1" {
		t.Errorf("top = %s, want h1", result.Items[0].ID)
	}
	if result.Items[0].Score <= result.Items[1].Score {
		t.Errorf("scores not descending: %v vs %v", result.Items[0].Score, result.Items[1].Score)
	}
}

func TestSymptomIndex_SearchMetrics(t *testing.T) {
	idx, engine := testIndex()
	query := engine.Transform("fever")

	for _, metric := range []string{"cosine", "euclidean", "inner_product"} {
		t.Run(metric, func(t *testing.T) {
			result, err := idx.Search(context.Background(), &core.VectorSearchRequest{
				Vector: query,
				TopK:   3,
				Metric: metric,
			})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(result.Items) != 3 {
				t.Fatalf("len(items) = %d, want 3", len(result.Items))
			}
			// 症状无重合的 h2 在任何度量下都不应领先
			if result.Items[0].ID == "h2" {
				t.Errorf("top = h2 under %s, want fever hospital", metric)
			}
		})
	}
}

func TestSymptomIndex_SearchErrors(t *testing.T) {
	idx, engine := testIndex()

	if _, err := idx.Search(context.Background(), nil); err == nil {
		t.Error("Search(nil) error = nil, want invalid input")
	}

	_, err := idx.Search(context.Background(), &core.VectorSearchRequest{
		Vector: engine.Transform("fever"),
		Metric: "manhattan",
	})
	if err == nil {
		t.Error("Search(unknown metric) error = nil, want invalid input")
	}

	// 集合不匹配：空结果，不报错
	result, err := idx.Search(context.Background(), &core.VectorSearchRequest{
		Collection: "other_collection",
		Vector:     engine.Transform("fever"),
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Items) != 0 {
		t.Errorf("len(items) = %d, want 0 for mismatched collection", len(result.Items))
	}
}

func TestSymptomIndex_ZeroQueryVector(t *testing.T) {
	idx, engine := testIndex()

	// 未登录词 -> 零向量 -> 余弦全 0，同分保持目录顺序
	result, err := idx.Search(context.Background(), &core.VectorSearchRequest{
		Vector: engine.Transform("zzz unknown"),
		TopK:   3,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []string{"h1", "h2", "h3"}
	for i, id := range want {
		if result.Items[i].ID != id || result.Items[i].Score != 0 {
			t.Errorf("items[%d] = %+v, want %s score 0", i, result.Items[i], id)
		}
	}
}

func TestNewSymptomIndex_NilInputs(t *testing.T) {
	idx := NewSymptomIndex("c", nil, nil)
	result, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{1}})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Items) != 0 {
		t.Errorf("len(items) = %d, want 0 for empty index", len(result.Items))
	}
}

package recall

import (
	"context"
	"testing"

	"github.com/rushteam/medikit/core"
)

func testCatalog() *core.HospitalCatalog {
	return core.NewHospitalCatalog([]core.Hospital{
		{ID: "h1", Name: "City Care", Address: "12 main road, city x", Rating: "4.5", Symptoms: "fever cough"},
		{ID: "h2", Name: "Metro Ortho", Address: "3 hill street, city y", Rating: "5", Symptoms: "broken bone"},
		{ID: "h3", Name: "Derm Clinic", Address: "77 lake avenue, city x", Rating: "", Symptoms: "skin rash"},
	})
}

func TestCatalogRecall_Order(t *testing.T) {
	r := &Catalog{Catalog: testCatalog()}
	items, err := r.Recall(context.Background(), &core.RecommendContext{})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	wantIDs := []string{"h1", "h2", "h3"}
	if len(items) != len(wantIDs) {
		t.Fatalf("len(items) = %d, want %d", len(items), len(wantIDs))
	}
	for i, it := range items {
		if it.ID != wantIDs[i] {
			t.Errorf("items[%d].ID = %q, want %q", i, it.ID, wantIDs[i])
		}
	}
	if items[0].Meta["name"] != "City Care" {
		t.Errorf("Meta[name] = %v, want City Care", items[0].Meta["name"])
	}
	if items[2].Meta["rating"] != "" {
		t.Errorf("Meta[rating] = %v, want empty string", items[2].Meta["rating"])
	}
}

func TestCatalogRecall_EmptyCatalog(t *testing.T) {
	tests := []struct {
		name string
		r    *Catalog
	}{
		{name: "nil catalog", r: &Catalog{}},
		{name: "zero hospitals", r: &Catalog{Catalog: core.NewHospitalCatalog(nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := tt.r.Recall(context.Background(), nil)
			if err != nil {
				t.Fatalf("Recall() error = %v", err)
			}
			if len(items) != 0 {
				t.Errorf("len(items) = %d, want 0", len(items))
			}
		})
	}
}

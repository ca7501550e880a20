package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rushteam/medikit/core"
)

func leaderboardCatalog() *core.HospitalCatalog {
	return core.NewHospitalCatalog([]core.Hospital{
		{ID: "h1", Name: "City Care", Rating: "4.5"},
		{ID: "h2", Name: "Metro Ortho", Rating: "5"},
		{ID: "h3", Name: "Derm Clinic", Rating: "bad"}, // 非数值评分按 0 入榜
	})
}

func TestSeedTopRated(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := SeedTopRated(ctx, ms, "", leaderboardCatalog()); err != nil {
		t.Fatalf("SeedTopRated() error = %v", err)
	}

	got, err := ms.ZRange(ctx, DefaultTopRatedKey, 0, -1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	want := []string{"h2", "h1", "h3"}
	if len(got) != len(want) {
		t.Fatalf("ZRange() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ZRange()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	score, err := ms.ZScore(ctx, DefaultTopRatedKey, "h2")
	if err != nil || score != 5 {
		t.Errorf("ZScore(h2) = (%v, %v), want 5", score, err)
	}
}

func TestSeedTopRated_EmptyInputs(t *testing.T) {
	ctx := context.Background()
	if err := SeedTopRated(ctx, nil, "k", leaderboardCatalog()); err != nil {
		t.Errorf("nil store error = %v, want nil", err)
	}

	ms := NewMemoryStore()
	defer ms.Close()
	if err := SeedTopRated(ctx, ms, "k", core.NewHospitalCatalog(nil)); err != nil {
		t.Errorf("empty catalog error = %v, want nil", err)
	}
}

// Badger 不支持有序集合，播种应报 ErrStoreNotSupported 由调用方退回目录排序。
func TestSeedTopRated_BadgerNotSupported(t *testing.T) {
	bs := newTestBadger(t)
	err := SeedTopRated(context.Background(), bs, "", leaderboardCatalog())
	if !core.IsStoreNotSupported(err) {
		t.Errorf("SeedTopRated() error = %v, want ErrStoreNotSupported", err)
	}
}

func TestAppendVisited(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	for _, id := range []string{"h1", "h2", "h1"} { // h1 重复记录一次
		if err := AppendVisited(ctx, ms, "", "42", id); err != nil {
			t.Fatalf("AppendVisited(%s) error = %v", id, err)
		}
	}

	data, err := ms.Get(ctx, VisitedKey("", "42"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(ids) != 2 || ids[0] != "h1" || ids[1] != "h2" {
		t.Errorf("visited = %v, want [h1 h2]", ids)
	}
}

func TestVisitedKey(t *testing.T) {
	if got := VisitedKey("", "7"); got != "user:visited:7" {
		t.Errorf("VisitedKey() = %q, want user:visited:7", got)
	}
	if got := VisitedKey("clinic:seen", "7"); got != "clinic:seen:7" {
		t.Errorf("VisitedKey() = %q, want clinic:seen:7", got)
	}
}

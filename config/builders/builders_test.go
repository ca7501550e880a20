package builders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/medikit/config"
	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/pipeline"
	"github.com/rushteam/medikit/store"
)

const pipelineYAML = `pipeline:
  name: hospital-toprated
  nodes:
    - type: recall.top_rated
      config:
        ids: ["h3", "h2", "h1"]
        limit: 10
    - type: filter
      config:
        filters:
          - type: excluded
            hospital_ids: ["h1"]
    - type: rank.weighted
      config:
        bias: 0
        weights:
          match_location: 0.4
          match_condition: 0.4
          rating_norm: 0.2
    - type: rerank.topn
      config:
        n: 5
`

// YAML -> 校验 -> 构建 -> 运行 全链路。
func TestBuildPipelineFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(pipelineYAML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if cfg.Pipeline.Name != "hospital-toprated" {
		t.Errorf("Name = %q, want hospital-toprated", cfg.Pipeline.Name)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}

	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}

	items, err := p.Run(context.Background(), &core.RecommendContext{Scene: "cold_start"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// h1 被排除名单过滤；无特征时同分保持召回顺序
	want := []string{"h3", "h2"}
	if len(items) != len(want) {
		t.Fatalf("len(items) = %d, want %d", len(items), len(want))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID, id)
		}
	}
}

const storeBackedYAML = `pipeline:
  name: hospital-store-backed
  nodes:
    - type: recall.top_rated
      config:
        limit: 10
    - type: filter
      config:
        filters:
          - type: visited
    - type: feature.enrich
    - type: rank.weighted
      config:
        weights:
          item_quality: 1
    - type: rerank.topn
      config:
        n: 5
`

// UseStore 注入后：榜单召回读 zset，复诊过滤读名单，enrich 走特征服务。
func TestBuildPipeline_WithInjectedStore(t *testing.T) {
	ms := store.NewMemoryStore()
	t.Cleanup(func() {
		UseStore(nil)
		ms.Close()
	})
	UseStore(ms)
	ctx := context.Background()

	// 评分榜单、就诊名单、医院特征各就各位
	for member, score := range map[string]float64{"h1": 4.5, "h2": 5, "h3": 3} {
		if err := ms.ZAdd(ctx, store.DefaultTopRatedKey, score, member); err != nil {
			t.Fatalf("ZAdd() error = %v", err)
		}
	}
	if err := ms.Set(ctx, store.VisitedKey("", "42"), []byte(`["h3"]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := ms.Set(ctx, "hospital:features:h2", []byte(`{"quality":1}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(storeBackedYAML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}

	items, err := p.Run(ctx, &core.RecommendContext{UserID: "42"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// 榜单给 [h2 h1 h3]，h3 在就诊名单中被过滤，h2 靠注入特征得 1 分居首
	want := []string{"h2", "h1"}
	if len(items) != len(want) {
		t.Fatalf("len(items) = %d, want %d: %+v", len(items), len(want), items)
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID, id)
		}
	}
	if items[0].Score != 1 {
		t.Errorf("items[0].Score = %v, want 1", items[0].Score)
	}
}

func TestValidatePipelineConfig_UnknownType(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.nonexistent"}}
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Fatal("ValidatePipelineConfig() error = nil, want unsupported type")
	}
}

func TestBuildFilterNode_ExprCompileError(t *testing.T) {
	_, err := BuildFilterNode(map[string]interface{}{
		"filters": []interface{}{
			map[string]interface{}{"type": "expr", "expr": "item.score >"},
		},
	})
	if err == nil {
		t.Fatal("BuildFilterNode() error = nil, want compile error")
	}
}

func TestBuildFanoutNode_ConditionRequiresCode(t *testing.T) {
	_, err := BuildFanoutNode(map[string]interface{}{
		"sources": []interface{}{
			map[string]interface{}{"type": "condition"},
		},
	})
	if err == nil {
		t.Fatal("BuildFanoutNode() error = nil, want assemble-in-code error")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
cost:
  need_threshold: 35
  weights:
    distance: 0.5
    wait: 0.3
    load: 0.2
optimizer:
  solve_timeout_seconds: 2
api:
  addr: ":9999"
mqtt:
  enabled: false
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cost.NeedThreshold != 35 {
		t.Fatalf("need_threshold not read: %v", cfg.Cost.NeedThreshold)
	}
	if cfg.Cost.Weights.Distance != 0.5 {
		t.Fatalf("weights not read: %+v", cfg.Cost.Weights)
	}
	if cfg.Optimizer.SolveTimeoutSeconds != 2 {
		t.Fatalf("solve timeout not read: %d", cfg.Optimizer.SolveTimeoutSeconds)
	}
	if cfg.API.Addr != ":9999" {
		t.Fatalf("api addr not read: %s", cfg.API.Addr)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, "config.yaml", "api: {}\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cost.NeedThreshold != 40 {
		t.Fatalf("cost defaults missing: %v", cfg.Cost.NeedThreshold)
	}
	if cfg.Optimizer.ResolveIntervalSeconds != 30 {
		t.Fatalf("optimizer defaults missing: %d", cfg.Optimizer.ResolveIntervalSeconds)
	}
	if cfg.API.Addr != ":8080" {
		t.Fatalf("api defaults missing: %s", cfg.API.Addr)
	}
	if cfg.Metrics.PrometheusPort != "9090" {
		t.Fatalf("metrics defaults missing: %s", cfg.Metrics.PrometheusPort)
	}
}

func TestLoadJSON(t *testing.T) {
	cfg, err := Load(writeTemp(t, "config.json", `{"api": {"addr": ":7070"}}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Addr != ":7070" {
		t.Fatalf("json config not read: %s", cfg.API.Addr)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EV_API__ADDR", ":6060")
	cfg, err := Load(writeTemp(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Addr != ":6060" {
		t.Fatalf("env override ignored: %s", cfg.API.Addr)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	bad := `
cost:
  weights:
    distance: 0.9
    wait: 0.9
    load: 0.9
`
	if _, err := Load(writeTemp(t, "config.yaml", bad)); err == nil {
		t.Fatalf("weights not summing to one must be rejected")
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load(writeTemp(t, "config.toml", "x = 1")); err == nil {
		t.Fatalf("unsupported extension must be rejected")
	}
}

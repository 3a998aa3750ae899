package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/e-sites/ObjectPool/errs"
	"github.com/e-sites/ObjectPool/pool"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pools.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadParsesManifest(t *testing.T) {
	path := writeManifest(t, `
pools:
  - name: buffers
    size: 4
    policy: static
  - name: conns
    size: 0
    policy: dynamic
telemetry:
  otlpEndpoint: http://localhost:4318
  serviceName: demo
  exportInterval: 5s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(cfg.Pools))
	}

	buffers, ok := cfg.Pool("buffers")
	if !ok {
		t.Fatal("expected buffers pool in manifest")
	}
	if buffers.Size != 4 {
		t.Errorf("expected size 4, got %d", buffers.Size)
	}
	policy, err := buffers.ParsedPolicy()
	if err != nil {
		t.Fatalf("ParsedPolicy failed: %v", err)
	}
	if policy != pool.PolicyStatic {
		t.Errorf("expected static policy, got %q", policy)
	}

	interval, err := cfg.Telemetry.Interval()
	if err != nil {
		t.Fatalf("Interval failed: %v", err)
	}
	if interval != 5*time.Second {
		t.Errorf("expected 5s interval, got %v", interval)
	}
}

func TestValidateRejectsStaticZeroSize(t *testing.T) {
	cfg := Default()
	cfg.Pools = []PoolConfig{{Name: "buffers", Size: 0, Policy: "static"}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for static zero-size pool")
	}
	if errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected invalid_config code, got %v", err)
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	cfg := Default()
	cfg.Pools = []PoolConfig{
		{Name: "buffers", Size: 1, Policy: "static"},
		{Name: "buffers", Size: 2, Policy: "dynamic"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for duplicate pool names")
	}
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	cfg := Default()
	cfg.Pools = []PoolConfig{{Name: "buffers", Size: 1, Policy: "elastic"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown policy")
	}
}

func TestValidateRejectsBadInterval(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.ExportInterval = "soon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for malformed interval")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OBJECTPOOL_OTLP_ENDPOINT", "http://collector:4318")
	t.Setenv("OBJECTPOOL_SERVICE_NAME", "override")

	cfg := FromEnv(Default())
	if cfg.Telemetry.OTLPEndpoint != "http://collector:4318" {
		t.Errorf("expected endpoint override, got %q", cfg.Telemetry.OTLPEndpoint)
	}
	if cfg.Telemetry.ServiceName != "override" {
		t.Errorf("expected service name override, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoadRejectsMissingPath(t *testing.T) {
	t.Setenv("OBJECTPOOL_CONFIG", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing config path")
	}
}

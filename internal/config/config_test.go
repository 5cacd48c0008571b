package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATA_DIR", "OUT_DIR", "DB_PATH", "WATCH", "SEED_IF_MISSING", "WORKER_COUNT", "SOURCE_TIMEOUT_SEC", "STRICT_CONFIG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "data" || cfg.OutDir != "out" {
		t.Fatalf("unexpected dirs: %+v", cfg)
	}
	if cfg.DBPath != filepath.Join("out", "campus_energy.db") {
		t.Fatalf("unexpected db path: %s", cfg.DBPath)
	}
	if cfg.WorkerCount != defaultWorkerCount {
		t.Fatalf("unexpected worker count: %d", cfg.WorkerCount)
	}
	if !cfg.SeedIfMissing || cfg.Watch {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", "/tmp/meters")
	t.Setenv("WATCH", "true")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("SEED_IF_MISSING", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/meters" || !cfg.Watch || cfg.WorkerCount != 8 || cfg.SeedIfMissing {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestYAMLFileOverlay(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "data_dir: /srv/meters\nout_dir: /srv/out\nworker_count: 2\nwatch: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	// Env still wins over the file.
	t.Setenv("OUT_DIR", "/env/out")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/meters" {
		t.Fatalf("file data_dir not applied: %s", cfg.DataDir)
	}
	if cfg.OutDir != "/env/out" {
		t.Fatalf("env must win over file, got %s", cfg.OutDir)
	}
	if cfg.WorkerCount != 2 || !cfg.Watch {
		t.Fatalf("file overlay incomplete: %+v", cfg)
	}
}

func TestInvalidWorkerCountFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKER_COUNT", "banana")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkerCount != defaultWorkerCount {
		t.Fatalf("expected fallback to default, got %d", cfg.WorkerCount)
	}
}

func TestInvalidWorkerCountStrict(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRICT_CONFIG", "true")
	t.Setenv("WORKER_COUNT", "banana")
	if _, err := Load(); err == nil {
		t.Fatal("expected strict mode to reject invalid WORKER_COUNT")
	}
}

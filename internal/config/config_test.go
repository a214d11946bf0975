package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8089" {
		t.Errorf("Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8089" {
		t.Errorf("Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symbolicate.yaml")
	contents := `
server:
  addr: ":9000"
search_dirs:
  - "./debug"
log:
  debug: true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if !cfg.Log.Debug {
		t.Error("Log.Debug = false, want true")
	}
	if len(cfg.SearchDirs) != 1 {
		t.Fatalf("len(SearchDirs) = %d, want 1", len(cfg.SearchDirs))
	}
	want := filepath.Join(dir, "debug")
	if cfg.SearchDirs[0] != want {
		t.Errorf("SearchDirs[0] = %q, want %q", cfg.SearchDirs[0], want)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [this is not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

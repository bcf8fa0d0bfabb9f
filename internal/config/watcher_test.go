package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`client = "v1"`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`client = "v2"`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Client != "v2" {
			t.Errorf("reloaded Client = %q, want v2", cfg.Client)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatch_AtomicSave(t *testing.T) {
	// Editors commonly write a temp file and rename it over the config.
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`client = "v1"`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	tmp := filepath.Join(dir, ".config.toml.tmp")
	if err := os.WriteFile(tmp, []byte(`client = "v2"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Client != "v2" {
			t.Errorf("reloaded Client = %q, want v2", cfg.Client)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after atomic save")
	}
}

func TestWatch_ParseFailureKeepsOldConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`client = "v1"`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloads := make(chan *Config, 1)
	errs := make(chan error, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case reloads <- cfg:
		default:
		}
	}, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("client = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case cfg := <-reloads:
		t.Errorf("got reload %+v for malformed file, want error callback", cfg)
	case <-time.After(3 * time.Second):
		t.Fatal("neither reload nor error after bad write")
	}
}

func TestWatch_OtherFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`client = "v1"`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloads := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config) { reloads <- cfg }, nil)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloads:
		t.Error("reload fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}

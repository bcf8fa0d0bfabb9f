package installer

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/tabnine/internal/process"
)

// bundleZip builds an in-memory zip with the given member files.
func bundleZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// bundleServer serves /version and the bundle path for that version.
func bundleServer(t *testing.T, version string, bundle []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, version)
	})
	path := fmt.Sprintf("/%s/%s/TabNine.zip", version, process.TargetTriple())
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Write(bundle)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestInstaller_LatestVersion(t *testing.T) {
	srv := bundleServer(t, "4.5.0", nil)
	inst := New(Config{BaseURL: srv.URL})

	got, err := inst.LatestVersion(context.Background())
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if got != "4.5.0" {
		t.Errorf("LatestVersion() = %q, want 4.5.0", got)
	}
}

func TestInstaller_LatestVersionRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "<html>not a version</html>")
	}))
	defer srv.Close()

	inst := New(Config{BaseURL: srv.URL})
	if _, err := inst.LatestVersion(context.Background()); err == nil {
		t.Error("LatestVersion() error = nil, want rejection of non-version body")
	}
}

func TestInstaller_Install(t *testing.T) {
	bundle := bundleZip(t, map[string]string{
		"TabNine":      "binary bytes",
		"model/weights": "weights",
	})
	srv := bundleServer(t, "4.5.0", bundle)

	root := t.TempDir()
	inst := New(Config{BaseURL: srv.URL})

	version, err := inst.Install(context.Background(), root)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if version != "4.5.0" {
		t.Errorf("Install() version = %q, want 4.5.0", version)
	}

	bin := filepath.Join(root, "4.5.0", process.TargetTriple(), "TabNine")
	data, err := os.ReadFile(bin)
	if err != nil {
		t.Fatalf("reading installed binary: %v", err)
	}
	if string(data) != "binary bytes" {
		t.Errorf("installed binary = %q, want original bytes", data)
	}

	info, err := os.Stat(bin)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o100 == 0 {
		t.Errorf("installed binary mode = %v, want executable", info.Mode())
	}

	// The supervisor must now resolve the freshly installed tree.
	if _, err := process.ResolveBinary(root); err != nil {
		t.Errorf("ResolveBinary() after install error = %v", err)
	}
}

func TestInstaller_InstallNestedDirs(t *testing.T) {
	bundle := bundleZip(t, map[string]string{
		"deep/nested/helper": "h",
	})
	srv := bundleServer(t, "1.0.0", bundle)

	root := t.TempDir()
	inst := New(Config{BaseURL: srv.URL})
	if err := inst.InstallVersion(context.Background(), root, "1.0.0"); err != nil {
		t.Fatalf("InstallVersion() error = %v", err)
	}

	path := filepath.Join(root, "1.0.0", process.TargetTriple(), "deep", "nested", "helper")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("nested member not extracted: %v", err)
	}
}

func TestInstaller_RejectsEscapingMember(t *testing.T) {
	bundle := bundleZip(t, map[string]string{
		"../escape": "evil",
	})
	srv := bundleServer(t, "1.0.0", bundle)

	root := t.TempDir()
	inst := New(Config{BaseURL: srv.URL})

	err := inst.InstallVersion(context.Background(), root, "1.0.0")
	if err == nil {
		t.Fatal("InstallVersion() error = nil, want rejection of escaping member")
	}
	if _, statErr := os.Stat(filepath.Join(root, "escape")); statErr == nil {
		t.Error("escaping member was written outside the install directory")
	}
}

func TestInstaller_ErrorNamesManualFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	inst := New(Config{BaseURL: srv.URL})
	err := inst.InstallVersion(context.Background(), t.TempDir(), "9.9.9")
	if err == nil {
		t.Fatal("InstallVersion() error = nil, want download failure")
	}
	if !strings.Contains(err.Error(), "TabNine.zip") || !strings.Contains(err.Error(), "manually") {
		t.Errorf("error %q does not name the manual fallback", err)
	}
}

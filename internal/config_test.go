package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/cdmbridge/internal/apperr"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestCorpusConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CorpusConfig
		wantErr string
	}{
		{"local only", CorpusConfig{Root: "./corpus", Namespace: "local"}, ""},
		{"with remote", CorpusConfig{Root: "./corpus", Namespace: "local", Remotes: []RemoteConfig{
			{Namespace: "adls", Root: "https://acct.dfs.core.windows.net/fs"},
		}}, ""},
		{"missing root", CorpusConfig{Namespace: "local"}, "root"},
		{"namespace with colon", CorpusConfig{Root: "./corpus", Namespace: "a:b"}, "namespace"},
		{"remote not a URL", CorpusConfig{Root: "./corpus", Namespace: "local", Remotes: []RemoteConfig{
			{Namespace: "adls", Root: "/mnt/data"},
		}}, "http(s) URL"},
		{"namespace mounted twice", CorpusConfig{Root: "./corpus", Namespace: "local", Remotes: []RemoteConfig{
			{Namespace: "local", Root: "https://example.com/fs"},
		}}, "mounted twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConversionConfig_Workers(t *testing.T) {
	for _, n := range []int{0, -1, 1000} {
		cfg := ConversionConfig{Workers: n}
		if err := cfg.Validate(); err == nil {
			t.Errorf("workers = %d should fail", n)
		}
	}
	cfg := ConversionConfig{Workers: 4}
	if err := cfg.Validate(); err != nil {
		t.Errorf("workers = 4: %v", err)
	}
}

func TestOpen(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Corpus.Root = filepath.Join(t.TempDir(), "corpus")
	cfg.Corpus.Remotes = []RemoteConfig{{Namespace: "adls", Root: "https://acct.dfs.core.windows.net/fs"}}
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "catalog.db")

	b, err := Open(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()

	if _, ok := b.Store.Adapter("adls"); !ok {
		t.Error("remote namespace not mounted")
	}
	if b.Store.DefaultNamespace() != "local" {
		t.Errorf("default namespace = %q", b.Store.DefaultNamespace())
	}
	report, err := b.Service.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if report.Catalogued != 0 {
		t.Errorf("catalogued = %d on empty corpus", report.Catalogued)
	}
}

func TestOpen_WithoutCatalog(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Corpus.Root = t.TempDir()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "unused.db")

	b, err := Open(cfg, nil, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()

	if _, err := b.Service.Sync(context.Background()); !errors.Is(err, apperr.ErrUnsupported) {
		t.Errorf("Sync without catalog = %v, want ErrUnsupported", err)
	}
	if _, err := os.Stat(cfg.Catalog.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("catalog file should not be created")
	}
}

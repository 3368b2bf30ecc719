// Package testutil provides shared test helpers for setting up corpora,
// conversion contexts and catalogs.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/cdmbridge/internal/catalog"
	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/storage"
)

// Namespace is the storage namespace used by TestCorpus.
const Namespace = "local"

// TestCorpus creates a temporary corpus directory mounted under Namespace.
func TestCorpus(t *testing.T) (*cdm.Corpus, *storage.Manager, *storage.FS) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := storage.NewManager(Namespace)
	m.Mount(Namespace, fs)
	return cdm.NewCorpus(m), m, fs
}

// TestContext returns a conversion context over corpus whose logger records
// every warning and error.
func TestContext(t *testing.T, corpus *cdm.Corpus) (*cdm.CorpusContext, *logger.Collector) {
	t.Helper()
	if corpus == nil {
		corpus = cdm.NewCorpus(nil)
	}
	c := logger.NewCollector(nil)
	return cdm.NewContext(corpus, slog.New(c)), c
}

// WriteFile writes content under the corpus root, creating directories.
func WriteFile(t *testing.T, fs *storage.FS, rel string, content []byte) string {
	t.Helper()
	abs := filepath.Join(fs.Root(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}

// TestCatalog creates a temporary SQLite catalog that is automatically
// cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cdmbridge-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

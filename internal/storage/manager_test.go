package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/cdm"
)

func testManager(t *testing.T) (*Manager, *FS) {
	t.Helper()
	fs := tempCorpus(t)
	remote, err := NewURL("https://acct.dfs.core.windows.net/fs/")
	if err != nil {
		t.Fatal(err)
	}
	m := NewManager("local")
	m.Mount("local", fs)
	m.Mount("adls", remote)
	return m, fs
}

func TestManager_AdapterPathToCorpusPath(t *testing.T) {
	m, fs := testManager(t)
	tests := []struct {
		in   string
		want string
	}{
		{filepath.Join(fs.Root(), "sales", "a.csv"), "local:/sales/a.csv"},
		{"https://acct.dfs.core.windows.net/fs/sales/b.csv", "adls:/sales/b.csv"},
		{"https://elsewhere.example.com/c.csv", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := m.AdapterPathToCorpusPath(tt.in); got != tt.want {
			t.Errorf("AdapterPathToCorpusPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestManager_CorpusPathToAdapterPath(t *testing.T) {
	m, fs := testManager(t)
	if got := m.CorpusPathToAdapterPath("adls:/sales/b.csv"); got != "https://acct.dfs.core.windows.net/fs/sales/b.csv" {
		t.Errorf("adls = %q", got)
	}
	if got := m.CorpusPathToAdapterPath("/sales/a.csv"); got != filepath.Join(fs.Root(), "sales", "a.csv") {
		t.Errorf("default namespace = %q", got)
	}
	if got := m.CorpusPathToAdapterPath("nope:/x.csv"); got != "" {
		t.Errorf("unknown namespace = %q", got)
	}
	if got := m.CorpusPathToAdapterPath("local:/../../etc/passwd"); got == "/etc/passwd" {
		t.Errorf("traversal leaked: %q", got)
	}
}

func TestManager_RelativeAbsoluteAgainstDocument(t *testing.T) {
	m, _ := testManager(t)
	doc := &cdm.Document{Name: "model.json", FolderPath: "adls:/sales/"}

	rel := m.CreateRelativeCorpusPath("adls:/sales/orders/part.csv", doc)
	if rel != "orders/part.csv" {
		t.Fatalf("relative = %q", rel)
	}
	if abs := m.CreateAbsoluteCorpusPath(rel, doc); abs != "adls:/sales/orders/part.csv" {
		t.Errorf("absolute = %q", abs)
	}
	if got := m.CreateRelativeCorpusPath("local:/sales/part.csv", doc); got != "local:/sales/part.csv" {
		t.Errorf("other namespace should stay absolute: %q", got)
	}
	if got := m.CreateRelativeCorpusPath("", doc); got != "" {
		t.Errorf("empty = %q", got)
	}
}

func TestManager_DocumentWithoutNamespaceUsesDefault(t *testing.T) {
	m, _ := testManager(t)
	doc := &cdm.Document{Name: "model.json", FolderPath: "/sales/"}
	if got := m.CreateAbsoluteCorpusPath("a.csv", doc); got != "local:/sales/a.csv" {
		t.Errorf("absolute = %q", got)
	}
}

func TestManager_Resolve(t *testing.T) {
	m, _ := testManager(t)
	if _, _, err := m.Resolve("missing:/a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	a, rest, err := m.Resolve("adls:sales/x.csv")
	if err != nil || rest != "/sales/x.csv" {
		t.Fatalf("Resolve = %v %q %v", a, rest, err)
	}
	if _, err := a.Read(rest); !errors.Is(err, apperr.ErrUnsupported) {
		t.Errorf("URL adapter read err = %v", err)
	}
}

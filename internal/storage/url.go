package storage

import (
	"fmt"
	"strings"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/models"
)

// URL is a path-only Adapter for remote stores addressed by URL prefix, such
// as "https://account.dfs.core.windows.net/container". It translates paths
// but performs no I/O.
type URL struct {
	root string
}

// NewURL creates an adapter for the given root URL.
func NewURL(root string) (*URL, error) {
	if !strings.Contains(root, "://") {
		return nil, fmt.Errorf("storage: not a URL: %q", root)
	}
	return &URL{root: strings.TrimSuffix(root, "/")}, nil
}

// CreateAdapterPath joins the root URL with corpusPath.
func (u *URL) CreateAdapterPath(corpusPath string) (string, error) {
	if corpusPath == "" {
		return u.root, nil
	}
	if !strings.HasPrefix(corpusPath, "/") {
		corpusPath = "/" + corpusPath
	}
	return u.root + corpusPath, nil
}

// CreateCorpusPath strips the root URL from adapterPath.
func (u *URL) CreateCorpusPath(adapterPath string) (string, bool) {
	if adapterPath == u.root {
		return "/", true
	}
	if !strings.HasPrefix(adapterPath, u.root+"/") {
		return "", false
	}
	return strings.TrimPrefix(adapterPath, u.root), true
}

func (u *URL) List(string, string) ([]models.FileMetadata, error) {
	return nil, fmt.Errorf("storage: list %s: %w", u.root, apperr.ErrUnsupported)
}

func (u *URL) Read(corpusPath string) ([]byte, error) {
	return nil, fmt.Errorf("storage: read %s%s: %w", u.root, corpusPath, apperr.ErrUnsupported)
}

func (u *URL) Write(corpusPath string, _ []byte) error {
	return fmt.Errorf("storage: write %s%s: %w", u.root, corpusPath, apperr.ErrUnsupported)
}

// Package storage maps corpus namespaces onto storage adapters and
// translates between adapter paths and corpus paths.
package storage

import "github.com/starford/cdmbridge/internal/models"

// Adapter is one storage backend mounted under a corpus namespace. Corpus
// paths passed to an adapter carry no namespace and start with a slash.
type Adapter interface {
	// CreateAdapterPath maps a corpus path to the adapter's native path.
	CreateAdapterPath(corpusPath string) (string, error)
	// CreateCorpusPath maps a native path back to a corpus path; ok is
	// false when the path does not belong to this adapter.
	CreateCorpusPath(adapterPath string) (corpusPath string, ok bool)
	// List returns metadata for every file under dir whose name ends with suffix.
	List(dir, suffix string) ([]models.FileMetadata, error)
	// Read returns the raw bytes stored at corpusPath.
	Read(corpusPath string) ([]byte, error)
	// Write atomically stores content at corpusPath.
	Write(corpusPath string, content []byte) error
}

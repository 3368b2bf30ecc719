package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/corpuspath"
	"github.com/starford/cdmbridge/internal/persistence/modeljson"
)

// SyncReport counts what a sync pass changed.
type SyncReport struct {
	Catalogued int `json:"catalogued"`
	Unchanged  int `json:"unchanged"`
	Removed    int `json:"removed"`
	Failed     int `json:"failed"`
}

// Sync walks the default namespace and brings the catalog up to date:
//   - new/changed model.json files are converted and upserted
//   - manifests removed from storage are deleted from the catalog
func (s *Service) Sync(ctx context.Context) (*SyncReport, error) {
	if s.db == nil {
		return nil, fmt.Errorf("bridge: sync: no catalog: %w", apperr.ErrUnsupported)
	}
	ns := s.store.DefaultNamespace()
	a, ok := s.store.Adapter(ns)
	if !ok {
		return nil, fmt.Errorf("bridge: sync: namespace %q: %w", ns, apperr.ErrNotFound)
	}
	metas, err := a.List("", modeljson.ManifestDocumentName)
	if err != nil {
		return nil, err
	}
	checksums, err := s.db.AllChecksums()
	if err != nil {
		return nil, err
	}

	report := &SyncReport{}
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if corpuspath.LastSegment(m.Path) != modeljson.ManifestDocumentName {
			continue
		}
		cp := corpuspath.Join(ns, m.Path)
		disk[cp] = struct{}{}

		if checksums[cp] == m.Checksum {
			report.Unchanged++
			continue
		}

		data, err := a.Read(m.Path)
		if err != nil {
			s.logger.Warn("sync: read failed", slog.String("path", cp), slog.String("error", err.Error()))
			report.Failed++
			continue
		}
		if _, err := s.Catalogue(ctx, cp, data); err != nil {
			s.logger.Warn("sync: catalogue failed", slog.String("path", cp), slog.String("error", err.Error()))
			report.Failed++
			continue
		}
		s.logger.Debug("sync: catalogued", slog.String("path", cp))
		report.Catalogued++
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := s.db.DeleteManifest(p); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		s.logger.Debug("sync: removed stale", slog.String("path", p))
		report.Removed++
	}

	return report, nil
}

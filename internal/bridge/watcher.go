package bridge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/persistence/modeljson"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is one of "created", "updated", "deleted"; path is the manifest's
// corpus path.
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on root, the directory mounted under the
// default namespace, and re-catalogues model.json files as they change until
// ctx is cancelled. It calls cb (if non-nil) after each successful catalog
// mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a sync pass, debounced, that removes stale
// manifests whose files no longer exist.
func (s *Service) Watch(ctx context.Context, root string, cb EventCallback) error {
	if s.db == nil {
		return fmt.Errorf("bridge: watch: no catalog: %w", apperr.ErrUnsupported)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	s.logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			s.reconcile(ctx, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						s.logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					s.catalogueNewDir(ctx, absPath, cb)
					continue
				}
			}

			if filepath.Base(absPath) != modeljson.ManifestDocumentName {
				continue
			}
			cp := s.store.AdapterPathToCorpusPath(absPath)
			if cp == "" {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := os.ReadFile(absPath)
				if readErr != nil {
					s.logger.Warn("watcher: read failed", slog.String("path", cp), slog.String("error", readErr.Error()))
					continue
				}
				if _, catErr := s.Catalogue(ctx, cp, data); catErr != nil {
					s.logger.Warn("watcher: catalogue failed", slog.String("path", cp), slog.String("error", catErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				s.logger.Debug("watcher: catalogued", slog.String("path", cp), slog.String("op", kind))
				if cb != nil {
					cb(kind, cp)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path only; the new path arrives
				// as a Create. The debounced sync catches stragglers.
				if delErr := s.db.DeleteManifest(cp); delErr != nil {
					if !errors.Is(delErr, apperr.ErrNotFound) {
						s.logger.Warn("watcher: delete failed", slog.String("path", cp), slog.String("error", delErr.Error()))
					}
				} else if cb != nil {
					cb("deleted", cp)
				}
				if ev.Op&fsnotify.Rename != 0 {
					scheduleReconcile()
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile runs a sync pass and reports every manifest it removed or
// re-catalogued as a single "updated" notification per pass.
func (s *Service) reconcile(ctx context.Context, cb EventCallback) {
	report, err := s.Sync(ctx)
	if err != nil {
		s.logger.Warn("reconcile: sync failed", slog.String("error", err.Error()))
		return
	}
	if cb != nil && (report.Catalogued > 0 || report.Removed > 0) {
		cb("updated", "")
	}
}

// catalogueNewDir catalogues any model.json found in a newly created
// directory.
func (s *Service) catalogueNewDir(ctx context.Context, dirPath string, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != modeljson.ManifestDocumentName {
			return nil
		}
		cp := s.store.AdapterPathToCorpusPath(p)
		if cp == "" {
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil
		}
		if _, catErr := s.Catalogue(ctx, cp, data); catErr == nil && cb != nil {
			cb("created", cp)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

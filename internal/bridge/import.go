package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/corpuspath"
)

// ImportModelJSON stores data as folderPath/model.json and catalogues it
// when a catalog is kept. An existing model.json is only replaced when
// overwrite is set.
func (s *Service) ImportModelJSON(ctx context.Context, data []byte, folderPath string, overwrite bool) (*Conversion, error) {
	folder := s.folderOf(folderPath)
	target := folder + "model.json"

	if !overwrite {
		_, err := s.read(target)
		switch {
		case err == nil:
			return nil, fmt.Errorf("bridge: import %s: %w", target, apperr.ErrAlreadyExists)
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}

	// Convert before writing so a broken document never lands in storage.
	conv, err := s.ConvertModelJSON(ctx, data, folder)
	if err != nil {
		return nil, err
	}
	if err := s.write(target, data); err != nil {
		return nil, err
	}
	if s.db == nil {
		return conv, nil
	}
	return s.Catalogue(ctx, corpuspath.Normalize(target), data)
}

package modeljson

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/extension"
	"github.com/starford/cdmbridge/internal/logger"
	"github.com/starford/cdmbridge/internal/traitmap"
)

const partitionComponent = "DataPartitionPersistence"

// DataPartitionFromData converts a partition declared by the manifest doc.
// The location is stored relative to doc. An unresolvable location is a
// warning; malformed CSV settings fail this partition only.
func DataPartitionFromData(ctx *cdm.CorpusContext, obj *Partition, global, local *extension.Pool, doc *cdm.Document) *cdm.DataPartition {
	if err := obj.DecodeError(); err != nil {
		logger.Error(partitionComponent, ctx, fmt.Sprintf("Data partition '%s' could not be read: %v", obj.Name, err), "FromData")
		return nil
	}
	partition := cdm.Make[*cdm.DataPartition](corpusOf(ctx), cdm.DataPartitionDef, obj.Name)
	partition.Description = obj.Description
	partition.InDocument = doc
	if ps := paths(ctx); ps != nil {
		partition.Location = ps.CreateRelativeCorpusPath(ps.AdapterPathToCorpusPath(obj.Location), doc)
	}
	partition.RefreshTime = obj.RefreshTime
	partition.LastFileModifiedTime = obj.LastFileModifiedTime
	partition.LastFileStatusCheckTime = obj.LastFileStatusCheckTime

	if partition.Location == "" {
		logger.Warning(partitionComponent, ctx, fmt.Sprintf("Couldn't find data partition's location for partition %s.", partition.Name), "FromData")
	}

	m := traitmap.New(ctx, &partition.ExhibitsTraits)
	if obj.IsHidden {
		m.SetTraitPresence(traitmap.TraitIsHidden, true)
	}
	if !processAnnotationsFromData(ctx, &obj.DataObject, &partition.ExhibitsTraits) {
		return nil
	}

	if obj.FileFormatSettings != nil {
		f, err := csvFormatFromData(obj.FileFormatSettings)
		if err == nil {
			err = m.SetCSVFormat(f)
		}
		if err != nil {
			logger.Error(partitionComponent, ctx, "There was a problem while processing csv format settings inside data partition.", "FromData")
			return nil
		}
	}

	extension.FromData(ctx, obj.Extensions, nil, &partition.ExhibitsTraits, global, local)
	return partition
}

// DataPartitionToData converts partition back, resolving its location to an
// adapter path. A malformed CSV trait fails this partition only.
func DataPartitionToData(ctx *cdm.CorpusContext, partition *cdm.DataPartition) *Partition {
	out := &Partition{
		DataObject: DataObject{
			Name:        partition.Name,
			Description: partition.Description,
		},
		RefreshTime:             partition.RefreshTime,
		LastFileModifiedTime:    partition.LastFileModifiedTime,
		LastFileStatusCheckTime: partition.LastFileStatusCheckTime,
	}
	if ps := paths(ctx); ps != nil {
		out.Location = ps.CorpusPathToAdapterPath(ps.CreateAbsoluteCorpusPath(partition.Location, partition.InDocument))
	}
	if out.Location == "" {
		logger.Warning(partitionComponent, ctx, fmt.Sprintf("Couldn't find data partition's location for partition %s.", out.Name), "ToData")
	}

	m := traitmap.New(ctx, &partition.ExhibitsTraits)
	out.IsHidden = m.FetchBool("isHidden")

	csv, present, err := m.FetchCSVFormat()
	if err != nil {
		logger.Error(partitionComponent, ctx, "There was a problem while processing csv format trait inside data partition.", "ToData")
		return nil
	}

	projected := projectedTraits(ctx, &partition.ExhibitsTraits, "isHidden")
	if present {
		projected[traitmap.TraitCSVFormat] = struct{}{}
	}
	processAnnotationsToData(ctx, &out.DataObject, &partition.ExhibitsTraits, projected)

	if present {
		out.FileFormatSettings = &CsvFormatSettings{
			Type:       TypeCsvFormatSettings,
			CsvStyle:   csv.CsvStyle,
			Delimiter:  csv.Delimiter,
			QuoteStyle: csv.QuoteStyle,
			Encoding:   csv.Encoding,
		}
		if csv.ColumnHeaders != nil {
			out.FileFormatSettings.ColumnHeaders = *csv.ColumnHeaders
		}
	}

	out.Extensions = extension.NewProperties()
	extension.ToData(ctx, &partition.ExhibitsTraits, out.Extensions)
	return out
}

func csvFormatFromData(s *CsvFormatSettings) (traitmap.CSVFormat, error) {
	if s.invalid != nil {
		return traitmap.CSVFormat{}, fmt.Errorf("modeljson: %v: %w", s.invalid, apperr.ErrStructural)
	}
	f := traitmap.CSVFormat{
		CsvStyle:   s.CsvStyle,
		Delimiter:  s.Delimiter,
		QuoteStyle: s.QuoteStyle,
		Encoding:   s.Encoding,
	}
	if s.ColumnHeaders != nil {
		b, err := cast.ToBoolE(s.ColumnHeaders)
		if err != nil {
			return f, fmt.Errorf("modeljson: columnHeaders %v: %w", s.ColumnHeaders, apperr.ErrStructural)
		}
		f.ColumnHeaders = &b
	}
	return f, nil
}

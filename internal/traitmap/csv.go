package traitmap

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"

	"github.com/starford/cdmbridge/internal/apperr"
)

// TraitCSVFormat is the structured trait describing CSV partition files.
const TraitCSVFormat = "is.partition.format.CSV"

// CSV trait argument names, in the order they are written.
const (
	argColumnHeaders = "columnHeaders"
	argCsvStyle      = "csvStyle"
	argDelimiter     = "delimiter"
	argQuoteStyle    = "quoteStyle"
	argEncoding      = "encoding"
)

// CSVFormat holds the settings carried by the CSV format trait.
type CSVFormat struct {
	ColumnHeaders *bool
	CsvStyle      string
	Delimiter     string
	QuoteStyle    string
	Encoding      string
}

// Validate checks the enumerated settings.
func (f *CSVFormat) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.CsvStyle, validation.In("QuoteAlways", "QuoteAfterDelimiter")),
		validation.Field(&f.QuoteStyle, validation.In("QuoteStyle.Csv", "QuoteStyle.None")),
		validation.Field(&f.Delimiter, validation.RuneLength(1, 1)),
	)
}

// SetCSVFormat replaces the CSV trait with one built from f. Invalid
// settings leave the collection untouched.
func (m *Map) SetCSVFormat(f CSVFormat) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("traitmap: csv format: %v: %w", err, apperr.ErrStructural)
	}
	m.RemoveTrait(TraitCSVFormat)
	ref := m.fetchOrCreate(TraitCSVFormat, false)
	if f.ColumnHeaders != nil {
		ref.AddArgument(argColumnHeaders, cast.ToString(*f.ColumnHeaders))
	}
	for _, kv := range [][2]string{
		{argCsvStyle, f.CsvStyle},
		{argDelimiter, f.Delimiter},
		{argQuoteStyle, f.QuoteStyle},
		{argEncoding, f.Encoding},
	} {
		if kv[1] != "" {
			ref.AddArgument(kv[0], kv[1])
		}
	}
	return nil
}

// FetchCSVFormat unpacks the CSV trait. It returns (nil, false, nil) when the
// trait is absent and an error wrapping apperr.ErrStructural when its
// arguments cannot be represented as settings.
func (m *Map) FetchCSVFormat() (*CSVFormat, bool, error) {
	ref := m.traits.Item(TraitCSVFormat)
	if ref == nil {
		return nil, false, nil
	}
	f := &CSVFormat{}
	for i, a := range ref.Arguments {
		if a.Name == "" {
			return nil, true, fmt.Errorf("traitmap: csv format: argument %d has no name: %w", i, apperr.ErrStructural)
		}
		if a.Name == argColumnHeaders {
			b, err := cast.ToBoolE(a.Value)
			if err != nil {
				return nil, true, fmt.Errorf("traitmap: csv format: columnHeaders %v: %w", a.Value, apperr.ErrStructural)
			}
			f.ColumnHeaders = &b
			continue
		}
		s, ok := a.Value.(string)
		if !ok {
			return nil, true, fmt.Errorf("traitmap: csv format: %s is not a string: %w", a.Name, apperr.ErrStructural)
		}
		switch a.Name {
		case argCsvStyle:
			f.CsvStyle = s
		case argDelimiter:
			f.Delimiter = s
		case argQuoteStyle:
			f.QuoteStyle = s
		case argEncoding:
			f.Encoding = s
		default:
			return nil, true, fmt.Errorf("traitmap: csv format: unknown argument %q: %w", a.Name, apperr.ErrStructural)
		}
	}
	if err := f.Validate(); err != nil {
		return nil, true, fmt.Errorf("traitmap: csv format: %v: %w", err, apperr.ErrStructural)
	}
	return f, true, nil
}

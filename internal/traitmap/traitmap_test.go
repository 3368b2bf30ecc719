package traitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/cdmbridge/internal/apperr"
	"github.com/starford/cdmbridge/internal/cdm"
)

func newMap() (*Map, *cdm.TraitCollection) {
	traits := &cdm.TraitCollection{}
	ctx := cdm.NewContext(cdm.NewCorpus(nil), nil)
	return New(ctx, traits), traits
}

func TestFetchTraitReference_AbsentIsNil(t *testing.T) {
	m, _ := newMap()
	assert.Nil(t, m.FetchTraitReference("is.hidden"))
}

func TestUpdateTraitArgument_CreatesThenUpdates(t *testing.T) {
	m, traits := newMap()

	m.UpdateTraitArgument(TraitVersion, "versionNumber", "1.0")
	m.UpdateTraitArgument(TraitVersion, "versionNumber", "1.1")

	require.Equal(t, 1, traits.Len())
	ref := traits.Items()[0]
	assert.True(t, ref.IsFromProperty)
	assert.False(t, ref.SimpleNamedReference)
	require.Len(t, ref.Arguments, 1)
	assert.Equal(t, "1.1", ref.Arguments[0].Value)
}

func TestPresenceProperty_NeverProducesFalse(t *testing.T) {
	m, traits := newMap()

	_, ok := m.FetchPropertyValue("isHidden")
	assert.False(t, ok, "absent trait must read as unset, not false")

	require.NoError(t, m.UpdatePropertyValue("isHidden", true))
	v, ok := m.FetchPropertyValue("isHidden")
	require.True(t, ok)
	assert.Equal(t, true, v)
	assert.True(t, traits.Item(TraitIsHidden).SimpleNamedReference)

	require.NoError(t, m.UpdatePropertyValue("isHidden", false))
	assert.Equal(t, 0, traits.Len())
	assert.False(t, m.FetchBool("isHidden"))
}

func TestTextProperties(t *testing.T) {
	m, traits := newMap()
	for _, p := range []string{"description", "displayName", "version", "sourceName", "culture", "application"} {
		require.NoError(t, m.UpdatePropertyValue(p, p+"-value"), p)
	}
	assert.Equal(t, 6, traits.Len())
	for _, p := range []string{"description", "displayName", "version", "sourceName", "culture", "application"} {
		assert.Equal(t, p+"-value", m.FetchString(p), p)
	}

	require.NoError(t, m.UpdatePropertyValue("description", ""))
	assert.Nil(t, traits.Item(TraitDescribedAs))
	assert.Equal(t, "", m.FetchString("description"))
}

func TestTextProperty_PositionalArgumentFallback(t *testing.T) {
	m, traits := newMap()
	ref := cdm.NewTraitReference(TraitSourceNamed, false)
	ref.AddArgument("", "legacy_source")
	traits.Add(ref)
	assert.Equal(t, "legacy_source", m.FetchString("sourceName"))
}

func TestIntegerProperty(t *testing.T) {
	m, traits := newMap()
	require.NoError(t, m.UpdatePropertyValue("maximumLength", "128"))
	v, ok := m.FetchPropertyValue("maximumLength")
	require.True(t, ok)
	assert.Equal(t, 128, v)

	err := m.UpdatePropertyValue("maximumLength", "lots")
	assert.ErrorIs(t, err, apperr.ErrStructural)

	require.NoError(t, m.UpdatePropertyValue("maximumLength", nil))
	assert.Nil(t, traits.Item(TraitConstrained))
}

func TestUnknownProperty(t *testing.T) {
	m, _ := newMap()
	err := m.UpdatePropertyValue("colour", "red")
	assert.ErrorIs(t, err, apperr.ErrUnknownProperty)
	_, ok := m.FetchPropertyValue("colour")
	assert.False(t, ok)
}

func TestDuplicateTraits_FirstMatchWins(t *testing.T) {
	m, traits := newMap()
	first := cdm.NewTraitReference(TraitVersion, false)
	first.AddArgument("versionNumber", "1")
	second := cdm.NewTraitReference(TraitVersion, false)
	second.AddArgument("versionNumber", "2")
	traits.Add(first)
	traits.Add(second)

	assert.Equal(t, "1", m.FetchString("version"))
	require.NoError(t, m.UpdatePropertyValue("version", "3"))
	assert.Equal(t, "3", first.Arguments[0].Value)
	assert.Equal(t, "2", second.Arguments[0].Value)
}

func TestProperties_Sorted(t *testing.T) {
	props := Properties()
	require.NotEmpty(t, props)
	assert.IsIncreasing(t, props)
	trait, ok := TraitFor("isHidden")
	assert.True(t, ok)
	assert.Equal(t, TraitIsHidden, trait)
}

func TestCSVFormat_RoundTrip(t *testing.T) {
	m, traits := newMap()
	headers := true
	in := CSVFormat{ColumnHeaders: &headers, CsvStyle: "QuoteAlways", Delimiter: ",", QuoteStyle: "QuoteStyle.Csv", Encoding: "UTF-8"}
	require.NoError(t, m.SetCSVFormat(in))

	ref := traits.Item(TraitCSVFormat)
	require.NotNil(t, ref)
	assert.True(t, ref.IsFromProperty)
	names := make([]string, 0, len(ref.Arguments))
	for _, a := range ref.Arguments {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"columnHeaders", "csvStyle", "delimiter", "quoteStyle", "encoding"}, names)

	out, ok, err := m.FetchCSVFormat()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, *out)
}

func TestCSVFormat_ColumnHeadersFalseSurvives(t *testing.T) {
	m, _ := newMap()
	headers := false
	require.NoError(t, m.SetCSVFormat(CSVFormat{ColumnHeaders: &headers}))
	out, _, err := m.FetchCSVFormat()
	require.NoError(t, err)
	require.NotNil(t, out.ColumnHeaders)
	assert.False(t, *out.ColumnHeaders)
}

func TestCSVFormat_Absent(t *testing.T) {
	m, _ := newMap()
	out, ok, err := m.FetchCSVFormat()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestCSVFormat_InvalidSettingsRejected(t *testing.T) {
	cases := map[string]CSVFormat{
		"csv style":   {CsvStyle: "Sometimes"},
		"quote style": {QuoteStyle: "QuoteStyle.Fancy"},
		"delimiter":   {Delimiter: ";;"},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			m, traits := newMap()
			err := m.SetCSVFormat(f)
			assert.ErrorIs(t, err, apperr.ErrStructural)
			assert.Equal(t, 0, traits.Len())
		})
	}
}

func TestCSVFormat_MalformedArguments(t *testing.T) {
	cases := map[string]func(*cdm.TraitReference){
		"unnamed":        func(r *cdm.TraitReference) { r.AddArgument("", ",") },
		"unknown":        func(r *cdm.TraitReference) { r.AddArgument("escape", "\\") },
		"bad bool":       func(r *cdm.TraitReference) { r.AddArgument("columnHeaders", "maybe") },
		"non string":     func(r *cdm.TraitReference) { r.AddArgument("delimiter", 44) },
		"invalid values": func(r *cdm.TraitReference) { r.AddArgument("csvStyle", "Never") },
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			m, traits := newMap()
			ref := cdm.NewTraitReference(TraitCSVFormat, false)
			build(ref)
			traits.Add(ref)
			out, ok, err := m.FetchCSVFormat()
			assert.True(t, ok)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, apperr.ErrStructural)
		})
	}
}

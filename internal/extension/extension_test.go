package extension

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/cdmbridge/internal/cdm"
)

func props(kv ...string) *Properties {
	p := NewProperties()
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], json.RawMessage(kv[i+1]))
	}
	return p
}

func keys(p *Properties) []string {
	var out []string
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func TestSplitProperty(t *testing.T) {
	tests := []struct {
		in, ns, local string
	}{
		{"pbi:mashup", "pbi", "mashup"},
		{"pbi:a:b", "pbi", "a:b"},
		{"plain", "plain", ""},
		{":lead", ":lead", ""},
		{"trail:", "trail:", ""},
	}
	for _, tt := range tests {
		ns, local := SplitProperty(tt.in)
		assert.Equal(t, tt.ns, ns, tt.in)
		assert.Equal(t, tt.local, local, tt.in)
	}
}

func TestNamespace(t *testing.T) {
	ns, ok := Namespace("is.extension.pbi")
	assert.True(t, ok)
	assert.Equal(t, "pbi", ns)

	_, ok = Namespace(BaseTrait)
	assert.False(t, ok)
	_, ok = Namespace("is.hidden")
	assert.False(t, ok)
}

func TestFromData_AccumulatesPerNamespace(t *testing.T) {
	ctx := cdm.NewContext(cdm.NewCorpus(nil), nil)
	traits := &cdm.TraitCollection{}
	global, local := NewPool(), NewPool()

	in := props(
		"pbi:mashup", `{"q":1}`,
		"name", `"skip me"`,
		"pbi:refresh", `true`,
		"vendor", `[1,2]`,
	)
	FromData(ctx, in, map[string]struct{}{"name": {}}, traits, global, local)

	require.Equal(t, 2, traits.Len())
	pbi := traits.Item("is.extension.pbi")
	require.NotNil(t, pbi)
	require.Len(t, pbi.Arguments, 2)
	assert.Equal(t, "mashup", pbi.Arguments[0].Name)
	assert.Equal(t, "refresh", pbi.Arguments[1].Name)

	vendor := traits.Item("is.extension.vendor")
	require.NotNil(t, vendor)
	require.Len(t, vendor.Arguments, 1)
	assert.Equal(t, "", vendor.Arguments[0].Name)

	assert.Equal(t, 2, local.Len())
	assert.Equal(t, 2, global.Len())
	d, ok := global.Lookup("is.extension.pbi")
	require.True(t, ok)
	assert.Equal(t, BaseTrait, d.ExtendsTrait.NamedReference)
}

func TestRoundTrip_PreservesValuesAndGroupsByNamespace(t *testing.T) {
	traits := &cdm.TraitCollection{}
	in := props(
		"pbi:a", `{"deep":[1,{"x":null}]}`,
		"other", `"text"`,
		"pbi:b", `12.50`,
	)
	FromData(nil, in, nil, traits, nil, nil)

	out := NewProperties()
	ToData(nil, traits, out)

	assert.Equal(t, []string{"pbi:a", "pbi:b", "other"}, keys(out))
	for pair := in.Oldest(); pair != nil; pair = pair.Next() {
		got, ok := out.Get(pair.Key)
		require.True(t, ok, pair.Key)
		assert.Equal(t, string(pair.Value), string(got), pair.Key)
	}
}

func TestToData_MarshalsPlainValuesAndSkipsOtherTraits(t *testing.T) {
	traits := &cdm.TraitCollection{}
	ref := cdm.NewTraitReference("is.extension.app", false)
	ref.AddArgument("owner", "ops")
	ref.AddArgument("", 3)
	traits.Add(ref)
	traits.Add(cdm.NewTraitReference("is.hidden", true))
	fromProp := cdm.NewTraitReference("is.extension.shadow", false)
	fromProp.IsFromProperty = true
	fromProp.AddArgument("x", "y")
	traits.Add(fromProp)

	out := NewProperties()
	ToData(nil, traits, out)

	assert.Equal(t, []string{"app:owner", "app"}, keys(out))
	v, _ := out.Get("app:owner")
	assert.JSONEq(t, `"ops"`, string(v))
	v, _ = out.Get("app")
	assert.JSONEq(t, `3`, string(v))
}

func TestFromData_CaseSensitiveNamespaces(t *testing.T) {
	traits := &cdm.TraitCollection{}
	pool := NewPool()
	FromData(nil, props("Pbi:x", `1`, "pbi:x", `2`), nil, traits, pool, nil)
	assert.Equal(t, 2, traits.Len())
	assert.Equal(t, 2, pool.Len())
}

func TestResolve_GlobalDefinitionReusedAndCopiedToLocal(t *testing.T) {
	global := NewPool()
	first := Resolve(nil, "is.extension.pbi", NewPool(), global)

	local := NewPool()
	second := Resolve(nil, "is.extension.pbi", local, global)

	assert.Same(t, first, second)
	assert.Equal(t, 1, global.Len())
	d, ok := local.Lookup("is.extension.pbi")
	require.True(t, ok)
	assert.Same(t, first, d)
}

func TestResolve_ConcurrentCreatesOneDefinition(t *testing.T) {
	global := NewPool()
	locals := make([]*Pool, 16)
	results := make([]*cdm.TraitDefinition, 16)

	var wg sync.WaitGroup
	for i := range locals {
		locals[i] = NewPool()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < 20; n++ {
				Resolve(nil, fmt.Sprintf("is.extension.ns%d", n%4), locals[i], global)
			}
			results[i] = Resolve(nil, "is.extension.ns0", locals[i], global)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, global.Len())
	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
}

func TestNewDocument(t *testing.T) {
	ctx := cdm.NewContext(cdm.NewCorpus(nil), nil)
	assert.Nil(t, NewDocument(ctx, NewPool(), "local:/sales/"))

	local := NewPool()
	Resolve(ctx, "is.extension.pbi", local, nil)
	doc := NewDocument(ctx, local, "local:/sales/")
	require.NotNil(t, doc)
	assert.Equal(t, "local:/sales/custom.extension.cdm.json", doc.AtCorpusPath())
	require.Len(t, doc.Definitions, 1)
	assert.Equal(t, "is.extension.pbi", doc.Definitions[0].GetName())
}

func TestHas(t *testing.T) {
	traits := &cdm.TraitCollection{}
	assert.False(t, Has(traits))
	traits.Add(cdm.NewTraitReference("is.extension.x", false))
	assert.True(t, Has(traits))
}

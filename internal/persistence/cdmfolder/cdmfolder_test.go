package cdmfolder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/cdmbridge/internal/cdm"
	"github.com/starford/cdmbridge/internal/testutil"
	"github.com/starford/cdmbridge/internal/traitmap"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestTraitReference_RoundTrip(t *testing.T) {
	ctx, log := testutil.TestContext(t, nil)
	cases := []string{
		`"means.identity.person"`,
		`{"traitReference":"is.constrained","arguments":[{"name":"maximumLength","value":"64"}]}`,
		`{"traitReference":"is.positional","arguments":["a",12,true,null,{"k":[1]}]}`,
		`{"traitReference":"is.noArgs"}`,
	}
	for _, in := range cases {
		ref := TraitReferenceFromData(ctx, json.RawMessage(in))
		require.NotNil(t, ref, in)
		assert.JSONEq(t, in, mustJSON(t, TraitReferenceToData(ref)), in)
	}
	assert.Empty(t, log.Entries())
}

func TestTraitReference_ArgumentValues(t *testing.T) {
	ref := TraitReferenceFromData(nil, json.RawMessage(`{"traitReference":"t","arguments":[{"name":"n","value":1.5},"s",{"other":"shape"}]}`))
	require.NotNil(t, ref)
	require.Len(t, ref.Arguments, 3)
	assert.Equal(t, "n", ref.Arguments[0].Name)
	assert.Equal(t, json.Number("1.5"), ref.Arguments[0].Value)
	assert.Equal(t, "", ref.Arguments[1].Name)
	assert.Equal(t, "s", ref.Arguments[1].Value)
	assert.IsType(t, json.RawMessage{}, ref.Arguments[2].Value)
	assert.False(t, ref.SimpleNamedReference)
}

func TestTraitReference_Malformed(t *testing.T) {
	for _, in := range []string{`42`, `{"traitReference":7}`, `{"arguments":[]}`, `""`, `{"traitReference":"t","arguments":[{"bad"}]}`} {
		ctx, log := testutil.TestContext(t, nil)
		assert.Nil(t, TraitReferenceFromData(ctx, json.RawMessage(in)), in)
		assert.Len(t, log.Errors(), 1, in)
	}
}

func TestTraitReferenceList_SkipsPropertyTraits(t *testing.T) {
	traits := &cdm.TraitCollection{}
	traits.Add(cdm.NewTraitReference("means.x", true))
	m := traitmap.New(nil, traits)
	require.NoError(t, m.UpdatePropertyValue("displayName", "Shown"))

	out := TraitReferenceListToData(nil, traits)
	require.Len(t, out, 1)
	assert.JSONEq(t, `"means.x"`, string(out[0]))
}

func TestAttributeGroup(t *testing.T) {
	assert.Nil(t, AttributeGroupFromData(nil, nil))

	ctx, log := testutil.TestContext(t, nil)
	in := `{"attributeGroupName":"Audit","explanation":"who and when","attributeContext":"ctx/Audit","exhibitsTraits":["is.audit"],"members":["OtherGroup",{"name":"createdOn","dataType":"dateTime","isNullable":true}]}`
	var obj AttributeGroup
	require.NoError(t, json.Unmarshal([]byte(in), &obj))

	group := AttributeGroupFromData(ctx, &obj)
	require.NotNil(t, group)
	require.Len(t, group.Members, 2)
	assert.IsType(t, &cdm.AttributeGroupReference{}, group.Members[0])
	att := group.Members[1].(*cdm.TypeAttribute)
	assert.NotNil(t, att.AppliedTraits.Item(traitmap.TraitIsNullable))

	out := AttributeGroupToData(ctx, group)
	assert.JSONEq(t,
		`{"attributeGroupName":"Audit","explanation":"who and when","attributeContext":"ctx/Audit","exhibitsTraits":["is.audit"],"members":[{"attributeGroupReference":"OtherGroup"},{"name":"createdOn","dataType":"dateTime","isNullable":true}]}`,
		mustJSON(t, out))
	assert.Empty(t, log.Entries())
}

func TestAttributeGroup_MalformedTraitFailsGroup(t *testing.T) {
	ctx, log := testutil.TestContext(t, nil)
	obj := &AttributeGroup{AttributeGroupName: "G", ExhibitsTraits: []json.RawMessage{json.RawMessage(`5`)}}
	assert.Nil(t, AttributeGroupFromData(ctx, obj))
	assert.Len(t, log.Errors(), 1)
}

func TestEntity_RoundTripProjectsProperties(t *testing.T) {
	ctx, _ := testutil.TestContext(t, nil)
	in := `{
		"entityName":"Customer",
		"extendsEntity":"CdmEntity",
		"exhibitsTraits":["means.entity.customer"],
		"hasAttributes":[{"name":"id","dataType":{"dataTypeReference":"guid"},"maximumLength":36,"displayName":"Id","sourceName":"cust_id","description":"key","isReadOnly":true}],
		"sourceName":"crm_customer","displayName":"Customer","description":"A buyer","version":"2.1",
		"cdmSchemas":["core.cdm.json"]
	}`
	var obj Entity
	require.NoError(t, json.Unmarshal([]byte(in), &obj))
	entity := EntityFromData(ctx, &obj)
	require.NotNil(t, entity)

	m := traitmap.New(ctx, &entity.ExhibitsTraits)
	assert.Equal(t, "A buyer", m.FetchString("description"))
	assert.Equal(t, "2.1", m.FetchString("version"))

	att := entity.Attributes[0].(*cdm.TypeAttribute)
	assert.Equal(t, "guid", att.DataType)

	out := EntityToData(ctx, entity)
	assert.Equal(t, "Customer", out.DisplayName)
	assert.Equal(t, "crm_customer", out.SourceName)
	assert.Equal(t, []string{"core.cdm.json"}, out.CdmSchemas)
	require.Len(t, out.ExhibitsTraits, 1)
	assert.JSONEq(t, `"means.entity.customer"`, string(out.ExhibitsTraits[0]))
	require.Len(t, out.HasAttributes, 1)
	assert.JSONEq(t,
		`{"name":"id","dataType":"guid","isReadOnly":true,"sourceName":"cust_id","displayName":"Id","description":"key","maximumLength":36}`,
		string(out.HasAttributes[0]))
}

func TestFolder_RoundTrip(t *testing.T) {
	in := &Folder{FolderName: "sales", Explanation: "sales data", ExhibitsTraits: []json.RawMessage{json.RawMessage(`"is.folder"`)}}
	folder := FolderFromData(nil, in)
	require.NotNil(t, folder)
	assert.Equal(t, mustJSON(t, in), mustJSON(t, FolderToData(nil, folder)))
}

func TestTraitDefinition_RoundTrip(t *testing.T) {
	in := &TraitDefinition{TraitName: "is.extension.pbi", ExtendsTrait: json.RawMessage(`"is.extension"`)}
	def := TraitDefinitionFromData(nil, in)
	require.NotNil(t, def)
	assert.Equal(t, "is.extension", def.ExtendsTrait.NamedReference)
	assert.JSONEq(t, mustJSON(t, in), mustJSON(t, TraitDefinitionToData(nil, def)))
}

func TestDocument_DispatchesDefinitions(t *testing.T) {
	ctx, log := testutil.TestContext(t, nil)
	in := `{
		"jsonSchemaSemanticVersion":"1.0.0",
		"imports":[{"corpusPath":"cdm:/foundations.cdm.json"}],
		"definitions":[
			{"traitName":"is.extension.pbi","extendsTrait":"is.extension"},
			{"entityName":"Order","hasAttributes":[{"name":"id","dataType":"string"}]},
			{"attributeGroupName":"Audit"},
			{"purposeName":"unsupported"}
		]
	}`
	var obj Document
	require.NoError(t, json.Unmarshal([]byte(in), &obj))
	doc := DocumentFromData(ctx, "Order.cdm.json", "local:/sales/", &obj)
	require.NotNil(t, doc)
	require.Len(t, doc.Definitions, 3)
	assert.Len(t, log.Warnings(), 1)

	e, ok := doc.Definition("Order")
	require.True(t, ok)
	assert.Same(t, doc, e.(*cdm.Entity).InDocument)

	out := DocumentToData(ctx, doc)
	assert.Len(t, out.Definitions, 3)
	assert.Equal(t, "cdm:/foundations.cdm.json", out.Imports[0].CorpusPath)
	assert.JSONEq(t, `{"entityName":"Order","hasAttributes":[{"name":"id","dataType":"string"}]}`, string(out.Definitions[1]))
}

func TestEntity_VendorPropertiesRoundTrip(t *testing.T) {
	ctx, log := testutil.TestContext(t, nil)
	in := `{
		"entityName":"Customer",
		"exhibitsTraits":["means.entity.customer"],
		"vendor:x":"keep",
		"vendor:y":{"n":1},
		"hasAttributes":[{"name":"id","dataType":"string","vendor:x":[1,2]}]
	}`
	var obj Entity
	require.NoError(t, json.Unmarshal([]byte(in), &obj))
	require.NotNil(t, obj.Extensions)
	assert.Equal(t, 2, obj.Extensions.Len())

	entity := EntityFromData(ctx, &obj)
	require.NotNil(t, entity)
	ref := entity.ExhibitsTraits.Item("is.extension.vendor")
	require.NotNil(t, ref)
	assert.Len(t, ref.Arguments, 2)
	att := entity.Attributes[0].(*cdm.TypeAttribute)
	assert.NotNil(t, att.AppliedTraits.Item("is.extension.vendor"))

	out := EntityToData(ctx, entity)
	require.Len(t, out.ExhibitsTraits, 1)
	assert.JSONEq(t, in, mustJSON(t, out))
	assert.Empty(t, log.Entries())
}

func TestDocument_VendorPropertiesSurviveDefinitions(t *testing.T) {
	ctx, _ := testutil.TestContext(t, nil)
	in := `{"jsonSchemaSemanticVersion":"1.0.0","definitions":[
		{"attributeGroupName":"Audit","acme":true,"members":[{"name":"by","dataType":"string","vendor:pii":"low"}]},
		{"entityName":"Order","vendor:x":"keep"}
	]}`
	var obj Document
	require.NoError(t, json.Unmarshal([]byte(in), &obj))
	doc := DocumentFromData(ctx, "Order.cdm.json", "local:/sales/", &obj)
	require.NotNil(t, doc)

	assert.JSONEq(t, in, mustJSON(t, DocumentToData(ctx, doc)))
}

func TestFolder_VendorPropertyRoundTrip(t *testing.T) {
	in := `{"folderName":"sales","exhibitsTraits":["is.folder"],"vendor:owner":"finance"}`
	var obj Folder
	require.NoError(t, json.Unmarshal([]byte(in), &obj))
	folder := FolderFromData(nil, &obj)
	require.NotNil(t, folder)
	assert.JSONEq(t, in, mustJSON(t, FolderToData(nil, folder)))
}

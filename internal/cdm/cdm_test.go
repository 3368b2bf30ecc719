package cdm

import "testing"

func TestTraitCollection_FirstMatchAndRemove(t *testing.T) {
	var c TraitCollection
	first := c.Add(NewTraitReference("is.hidden", true))
	c.Add(NewTraitReference("is.other", true))
	c.Add(NewTraitReference("is.hidden", false))

	if got := c.Item("is.hidden"); got != first {
		t.Fatalf("Item should return first match")
	}
	if n := c.Remove("is.hidden"); n != 2 {
		t.Errorf("Remove = %d, want 2", n)
	}
	if c.Len() != 1 || c.Items()[0].NamedReference != "is.other" {
		t.Errorf("items after remove = %v", c.Items())
	}
	if c.Item("missing") != nil {
		t.Error("missing trait should be nil")
	}
}

func TestTraitReference_SetArgument(t *testing.T) {
	ref := NewTraitReference("is.CDM.entityVersion", true)
	ref.SetArgument("versionNumber", "1.0")
	ref.SetArgument("versionNumber", "2.0")
	if len(ref.Arguments) != 1 {
		t.Fatalf("len(args) = %d, want 1", len(ref.Arguments))
	}
	if ref.Arguments[0].Value != "2.0" {
		t.Errorf("value = %v", ref.Arguments[0].Value)
	}
	if ref.SimpleNamedReference {
		t.Error("reference with arguments must not be simple")
	}
	ref.AddArgument("versionNumber", "3.0")
	if len(ref.Arguments) != 2 {
		t.Errorf("AddArgument should append")
	}
}

func TestCorpus_MakeObject(t *testing.T) {
	c := NewCorpus(nil)
	p := Make[*DataPartition](c, DataPartitionDef, "p1")
	if p == nil || p.Name != "p1" {
		t.Fatalf("partition = %+v", p)
	}
	if c.MakeObject(ErrorType, "x") != nil {
		t.Error("ErrorType should not construct")
	}
	if ref := c.MakeRef(TraitRef, "is.hidden", true); ref == nil || !ref.SimpleNamedReference {
		t.Errorf("MakeRef = %+v", ref)
	}
	if c.MakeRef(EntityDef, "x", true) != nil {
		t.Error("MakeRef of non-trait kind should be nil")
	}
	if wrong := Make[*Entity](c, DataPartitionDef, "p"); wrong != nil {
		t.Error("mismatched Make should return nil")
	}
}

func TestCorpus_FetchEntity(t *testing.T) {
	c := NewCorpus(nil)
	e := &Entity{EntityName: "Order"}
	doc := &Document{Name: "Order.cdm.json", FolderPath: "local:/sales/", Definitions: []Object{e}}
	c.AddDocument(doc)

	got, ok := c.FetchEntity("local:/sales/Order.cdm.json/Order")
	if !ok || got != e {
		t.Fatalf("FetchEntity = %v, %v", got, ok)
	}
	if _, ok := c.FetchEntity("local:/sales/Order.cdm.json/Customer"); ok {
		t.Error("unknown entity should not resolve")
	}
	if _, ok := c.FetchEntity("local:/other/Order.cdm.json/Order"); ok {
		t.Error("unknown document should not resolve")
	}
	if c.Documents() != 1 {
		t.Errorf("Documents = %d", c.Documents())
	}
}

func TestObjectType_String(t *testing.T) {
	if DataPartitionDef.String() != "DataPartitionDef" {
		t.Errorf("String = %q", DataPartitionDef.String())
	}
	if ObjectType(999).String() != "Unknown" {
		t.Error("unknown type should stringify as Unknown")
	}
}

func TestNewContext_CorrelationID(t *testing.T) {
	a := NewContext(NewCorpus(nil), nil)
	b := NewContext(NewCorpus(nil), nil)
	if a.CorrelationID == "" || a.CorrelationID == b.CorrelationID {
		t.Errorf("correlation IDs %q %q", a.CorrelationID, b.CorrelationID)
	}
}

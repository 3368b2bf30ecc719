package entityindex

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	idx := Build([]Entry{
		{Name: "Customer", Path: "local:/sales/Customer.cdm.json/Customer"},
		{Name: "Order", Path: "local:/sales/Order.cdm.json/Order"},
		{Name: "", Path: "local:/sales/anon.cdm.json/"},
	})
	if got, ok := idx.Resolve("Order"); !ok || got != "local:/sales/Order.cdm.json/Order" {
		t.Errorf("Resolve(Order) = %q, %v", got, ok)
	}
	if _, ok := idx.Resolve("Ghost"); ok {
		t.Error("Ghost should not resolve")
	}
	if idx.Len() != 2 {
		t.Errorf("Len = %d", idx.Len())
	}
}

func TestBuild_DeterministicRegardlessOfOrder(t *testing.T) {
	entries := []Entry{
		{Name: "A", Path: "local:/m/A.cdm.json/A"},
		{Name: "B", Path: "local:/m/B.cdm.json/B"},
		{Name: "A", Path: "local:/m/A2.cdm.json/A"},
		{Name: "C", Path: "adls:/x/C.cdm.json/C"},
	}
	want := Build(entries)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Entry(nil), entries...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Build(shuffled)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("order %v produced a different index", shuffled)
		}
	}

	if p, _ := want.Resolve("A"); p != "local:/m/A.cdm.json/A" {
		t.Errorf("duplicate winner = %q", p)
	}
	if d := want.Duplicates(); !reflect.DeepEqual(d, []string{"A"}) {
		t.Errorf("Duplicates = %v", d)
	}
	if n := want.Names(); !reflect.DeepEqual(n, []string{"A", "B", "C"}) {
		t.Errorf("Names = %v", n)
	}
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	if _, ok := idx.Resolve("A"); ok {
		t.Error("nil index resolved")
	}
	if idx.Len() != 0 || idx.Names() != nil {
		t.Error("nil index not empty")
	}
}

func TestEntityName(t *testing.T) {
	if got := EntityName("local:/sales/Order.cdm.json/Order"); got != "Order" {
		t.Errorf("EntityName = %q", got)
	}
	if got := EntityName("Order"); got != "Order" {
		t.Errorf("EntityName bare = %q", got)
	}
}

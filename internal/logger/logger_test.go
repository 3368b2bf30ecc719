package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/cdmbridge/internal/cdm"
)

func TestWarningAndError_Recorded(t *testing.T) {
	col := NewCollector(nil)
	ctx := cdm.NewContext(cdm.NewCorpus(nil), slog.New(col))

	Warning("DataPartitionPersistence", ctx, "missing location", "FromData")
	Error("DataPartitionPersistence", ctx, "bad csv", "ToData")
	Debug("DataPartitionPersistence", ctx, "ignored", "FromData")

	if col.Count(slog.LevelWarn) != 1 || col.Count(slog.LevelError) != 1 {
		t.Fatalf("entries = %+v", col.Entries())
	}
	w := col.Warnings()[0]
	if w.Component != "DataPartitionPersistence" || w.Operation != "FromData" || w.Message != "missing location" {
		t.Errorf("warning = %+v", w)
	}
	if len(col.Errors()) != 1 || col.Errors()[0].Operation != "ToData" {
		t.Errorf("errors = %+v", col.Errors())
	}
}

func TestCollector_ForwardsWithCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	next := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	col := NewCollector(next)
	ctx := cdm.NewContext(cdm.NewCorpus(nil), slog.New(col))

	Warning("RelationshipPersistence", ctx, "entity 'Ghost' is not defined", "FromData")

	out := buf.String()
	if !strings.Contains(out, ctx.CorrelationID) {
		t.Errorf("forwarded record lacks correlation id: %s", out)
	}
	if !strings.Contains(out, `"component":"RelationshipPersistence"`) {
		t.Errorf("forwarded record lacks component: %s", out)
	}
}

func TestCollector_WithAttrsSharesEntries(t *testing.T) {
	col := NewCollector(nil)
	l := slog.New(col).With(slog.String(KeyComponent, "Bridge"))
	l.Warn("one")
	if n := len(col.Entries()); n != 1 {
		t.Fatalf("entries = %d", n)
	}
	if col.Entries()[0].Component != "Bridge" {
		t.Errorf("component = %q", col.Entries()[0].Component)
	}
}

func TestNilContextDoesNotPanic(t *testing.T) {
	Warning("X", nil, "message", "op")
}

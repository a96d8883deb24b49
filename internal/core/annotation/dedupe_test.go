package annotation

import (
	"reflect"
	"testing"
)

func score(v int) *int {
	return &v
}

func byUID(r Record) string {
	return r.UID
}

func TestDedupeFirstSeenWins(t *testing.T) {
	batch := []Record{
		{UID: "a", Score: score(1), Stats: map[string]any{"mean": 1.0}},
		{UID: "a", Score: score(2), Stats: map[string]any{"mean": 2.0}},
	}

	out := Dedupe(batch, byUID)

	if len(out) != 1 {
		t.Fatalf("Dedupe() returned %d records, want 1", len(out))
	}
	if out[0].Score == nil || *out[0].Score != 1 {
		t.Errorf("Dedupe() kept later duplicate; score = %v, want 1", out[0].Score)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	batch := []Record{
		{UID: "x", Stats: map[string]any{"area": 12.5}},
		{UID: "y", Stats: map[string]any{"area": 3.0}},
		{UID: "x", Stats: map[string]any{"area": 99.0}},
		{UID: "z"},
	}

	once := Dedupe(batch, byUID)
	twice := Dedupe(once, byUID)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Dedupe(Dedupe(x)) = %+v, want %+v", twice, once)
	}
}

func TestDedupePreservesArrivalOrder(t *testing.T) {
	batch := []Record{
		{UID: "c"},
		{UID: "a"},
		{UID: "b"},
		{UID: "a"},
	}

	out := Dedupe(batch, byUID)

	wantOrder := []string{"c", "a", "b"}
	if len(out) != len(wantOrder) {
		t.Fatalf("Dedupe() returned %d records, want %d", len(out), len(wantOrder))
	}
	for i, uid := range wantOrder {
		if out[i].UID != uid {
			t.Errorf("Dedupe()[%d].UID = %q, want %q", i, out[i].UID, uid)
		}
	}
}

func TestDedupeSkipsEmptyIdentifiers(t *testing.T) {
	out := Dedupe([]Record{{UID: ""}, {UID: "a"}}, byUID)
	if len(out) != 1 || out[0].UID != "a" {
		t.Errorf("Dedupe() = %+v, want single record a", out)
	}
}

func TestDedupeEmptyBatch(t *testing.T) {
	if out := Dedupe(nil, byUID); out != nil {
		t.Errorf("Dedupe(nil) = %+v, want nil", out)
	}
}

package xid

import (
	"strings"
	"testing"
)

func TestNewIsPrefixedAndUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := New("ord")
		if !strings.HasPrefix(id, "ord-") {
			t.Fatalf("expected ord- prefix, got %s", id)
		}
		if len(id) != len("ord-")+32 {
			t.Fatalf("unexpected id length %d for %s", len(id), id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
	if id := New(""); strings.Contains(id, "-") {
		t.Fatalf("expected bare id without prefix, got %s", id)
	}
}

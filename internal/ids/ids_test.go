package ids

import (
	"regexp"
	"testing"
)

var hex32 = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestNewFormat(t *testing.T) {
	id := New()
	if !hex32.MatchString(id) {
		t.Fatalf("unexpected id format %q", id)
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := New()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %q after %d calls", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	if !Valid(New()) {
		t.Fatal("expected generated id to be valid")
	}
	for _, id := range []string{"", " x", "x "} {
		if Valid(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
}

package ident

import (
	"testing"
	"time"
)

func TestMonotonic_UniqueWithinSameMillisecond(t *testing.T) {
	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	m := &Monotonic{now: func() time.Time { return fixed }}

	ids := m.Batch(50)
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
	if ids[0] != "1792238400000" {
		t.Errorf("first id = %s, want clock millis", ids[0])
	}
}

func TestMonotonic_NeverGoesBackwards(t *testing.T) {
	current := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	m := &Monotonic{now: func() time.Time { return current }}

	first := m.Next()
	current = current.Add(-time.Hour)
	second := m.Next()
	if second <= first {
		t.Errorf("expected %s > %s after clock moved back", second, first)
	}
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Alice", "alice", true},
		{"  Alice  ", "Alice", true},
		{"Mary  Ann", "mary ann", true},
		{"Alice", "Alicia", false},
		{"小明", " 小明", true},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			if got := NameKey(tt.a) == NameKey(tt.b); got != tt.same {
				t.Errorf("NameKey(%q)==NameKey(%q) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("  Mary \t Ann "); got != "Mary Ann" {
		t.Errorf("DisplayName = %q, want %q", got, "Mary Ann")
	}
}

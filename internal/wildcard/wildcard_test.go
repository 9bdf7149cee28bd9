package wildcard

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		attr  string
		allow []string
		deny  []string
	}{
		{"##any", []string{"", "urn:a", "urn:t"}, nil},
		{"##other", []string{"urn:a"}, []string{"", "urn:t"}},
		{"##targetNamespace ##local", []string{"", "urn:t"}, []string{"urn:a"}},
		{"urn:a urn:b", []string{"urn:a", "urn:b"}, []string{"", "urn:t"}},
	}
	for _, tt := range tests {
		c, err := Parse(tt.attr, "urn:t")
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.attr, err)
		}
		for _, ns := range tt.allow {
			if !c.Allows(ns) {
				t.Fatalf("Parse(%q).Allows(%q) = false, want true", tt.attr, ns)
			}
		}
		for _, ns := range tt.deny {
			if c.Allows(ns) {
				t.Fatalf("Parse(%q).Allows(%q) = true, want false", tt.attr, ns)
			}
		}
	}
	if _, err := Parse("urn:a ##other", "urn:t"); err == nil {
		t.Fatalf("Parse with ##other in list succeeded, want error")
	}
}

func TestSubset(t *testing.T) {
	other := NewNot("urn:t", "")
	tests := []struct {
		name    string
		derived Constraint
		base    Constraint
		want    bool
	}{
		{"any in any", AnyNamespace(), AnyNamespace(), true},
		{"any in list", AnyNamespace(), NewList("urn:a"), false},
		{"list in other", NewList("urn:a"), other, true},
		{"local in other", NewList(""), other, false},
		{"other in any", other, AnyNamespace(), true},
		{"other in narrower not", other, NewNot("urn:t"), true},
		{"not in other", NewNot("urn:t"), other, false},
		{"list in list", NewList("urn:a"), NewList("urn:a", "urn:b"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Subset(tt.derived, tt.base); got != tt.want {
				t.Fatalf("Subset(%v, %v) = %v, want %v", tt.derived, tt.base, got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b Constraint
		want bool
	}{
		{AnyNamespace(), NewList("urn:a"), true},
		{NewNot("urn:t", ""), NewList("urn:t", ""), false},
		{NewNot("urn:t", ""), NewList("urn:a"), true},
		{NewList("urn:a"), NewList("urn:b"), false},
		{NewNot("urn:a"), NewNot("urn:b"), true},
	}
	for _, tt := range tests {
		if got := Overlaps(tt.a, tt.b); got != tt.want {
			t.Fatalf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := Overlaps(tt.b, tt.a); got != tt.want {
			t.Fatalf("Overlaps(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestUnion(t *testing.T) {
	if got := Union(NewList("urn:a"), NewList("urn:b")); !got.Allows("urn:a") || !got.Allows("urn:b") || got.Allows("") {
		t.Fatalf("Union(list, list) = %v", got)
	}
	if got := Union(NewNot("urn:t", ""), NewList("")); got.Kind != Not || got.Allows("urn:t") || !got.Allows("") {
		t.Fatalf("Union(other, local) = %v", got)
	}
	if got := Union(NewNot("urn:a"), NewNot("urn:b")); got.Kind != Any {
		t.Fatalf("Union(not a, not b) = %v, want ##any", got)
	}
}

func TestStrongerOrEqual(t *testing.T) {
	if !StrongerOrEqual(ProcessStrict, ProcessLax) {
		t.Fatalf("strict should be stronger than lax")
	}
	if StrongerOrEqual(ProcessSkip, ProcessLax) {
		t.Fatalf("skip should be weaker than lax")
	}
	if !StrongerOrEqual(ProcessSkip, ProcessSkip) {
		t.Fatalf("skip should equal skip")
	}
}

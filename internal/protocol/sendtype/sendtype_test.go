package sendtype

import "testing"

func TestParseRoundTrip(t *testing.T) {
	for name, tag := range byName {
		got, err := Parse(name)
		if err != nil {
			t.Fatalf("Parse(%q): %v", name, err)
		}
		if got != tag {
			t.Fatalf("Parse(%q) = %v, want %v", name, got, tag)
		}
		if got.String() != name {
			t.Fatalf("%v.String() = %q, want %q", got, got.String(), name)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("nope"); err == nil {
		t.Fatalf("expected error for unknown type name")
	}
}

func TestValid(t *testing.T) {
	if !Float32.Valid() {
		t.Fatalf("Float32 should be valid")
	}
	if Type('z').Valid() {
		t.Fatalf("'z' should not be valid")
	}
}

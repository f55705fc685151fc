// Package sendtype defines the closed set of sample-type tags advertised
// during negotiation. The steady-state data path in this module is
// f32-only; the tag is informational, recorded from the peer but never
// enforced locally.
package sendtype

import "fmt"

// Type is one of the ten wire sample-type tags.
type Type byte

const (
	Int8    Type = 'b'
	Uint8   Type = 'B'
	Int16   Type = 'h'
	Uint16  Type = 'H'
	Int32   Type = 'i'
	Uint32  Type = 'I'
	Int64   Type = 'q'
	Uint64  Type = 'Q'
	Float32 Type = 'f'
	Float64 Type = 'd'
)

var names = map[Type]string{
	Int8:    "i8",
	Uint8:   "u8",
	Int16:   "i16",
	Uint16:  "u16",
	Int32:   "i32",
	Uint32:  "u32",
	Int64:   "i64",
	Uint64:  "u64",
	Float32: "f32",
	Float64: "f64",
}

var byName = map[string]Type{
	"i8":  Int8,
	"u8":  Uint8,
	"i16": Int16,
	"u16": Uint16,
	"i32": Int32,
	"u32": Uint32,
	"i64": Int64,
	"u64": Uint64,
	"f32": Float32,
	"f64": Float64,
}

// String returns the human-readable name ("f32", "i16", ...).
func (t Type) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%q)", byte(t))
}

// Valid reports whether t is one of the ten recognized tags.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}

// Parse resolves a human-readable name ("f32", "i16", ...) to its tag.
func Parse(name string) (Type, error) {
	t, ok := byName[name]
	if !ok {
		return 0, fmt.Errorf("sendtype: unknown send type %q", name)
	}
	return t, nil
}

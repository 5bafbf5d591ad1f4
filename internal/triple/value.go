package triple

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ValueKind tags the variant of a Value. The numeric order of kinds is the
// primary order of SortKey, so it must never be renumbered.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindLangString
	KindTyped
	KindDateTime
	KindNode
	KindBytes
	KindJSON
)

var kindNames = [...]string{
	KindNull:       "null",
	KindBoolean:    "boolean",
	KindInteger:    "integer",
	KindFloat:      "float",
	KindString:     "string",
	KindLangString: "lang_string",
	KindTyped:      "typed",
	KindDateTime:   "datetime",
	KindNode:       "node",
	KindBytes:      "bytes",
	KindJSON:       "json",
}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a sealed interface over the object variants a triple can hold.
// Only the types in this file implement it.
type Value interface {
	Kind() ValueKind
	// SortKey returns the canonical byte encoding used for index ordering
	// and equality. It does not depend on how the value was constructed.
	SortKey() []byte
	String() string
	value()
}

// Null is the absent value.
type Null struct{}

// String is a plain literal.
type String string

// Integer is a signed 64-bit integer literal.
type Integer int64

// Float is a 64-bit floating point literal.
type Float float64

// Boolean is a boolean literal.
type Boolean bool

// DateTime is a timestamp literal kept in its lexical form.
type DateTime string

// Bytes is an opaque binary literal.
type Bytes []byte

// JSON is a raw JSON document. Its sort key is the canonical form, so
// documents differing only in key order or whitespace compare equal.
type JSON string

// Node references another graph node. Only Node objects extend traversals.
type Node struct {
	ID NodeID
}

// Typed is a literal with an explicit datatype IRI.
type Typed struct {
	Value    string
	Datatype string
}

// LangString is a literal tagged with a language.
type LangString struct {
	Value string
	Lang  string
}

func (Null) value()       {}
func (String) value()     {}
func (Integer) value()    {}
func (Float) value()      {}
func (Boolean) value()    {}
func (DateTime) value()   {}
func (Bytes) value()      {}
func (JSON) value()       {}
func (Node) value()       {}
func (Typed) value()      {}
func (LangString) value() {}

func (Null) Kind() ValueKind       { return KindNull }
func (String) Kind() ValueKind     { return KindString }
func (Integer) Kind() ValueKind    { return KindInteger }
func (Float) Kind() ValueKind      { return KindFloat }
func (Boolean) Kind() ValueKind    { return KindBoolean }
func (DateTime) Kind() ValueKind   { return KindDateTime }
func (Bytes) Kind() ValueKind      { return KindBytes }
func (JSON) Kind() ValueKind       { return KindJSON }
func (Node) Kind() ValueKind       { return KindNode }
func (Typed) Kind() ValueKind      { return KindTyped }
func (LangString) Kind() ValueKind { return KindLangString }

// NodeValue wraps a NodeID as an object value.
func NodeValue(id NodeID) Node { return Node{ID: id} }

// Escaping for variable-length components that are followed by another
// component: 0x00 becomes 0x00 0xFF and the component ends with 0x00 0x01.
// Both rules preserve byte-lexicographic order.
var componentEnd = []byte{0x00, 0x01}

func appendComponent(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		if s[i] == 0x00 {
			buf = append(buf, 0x00, 0xFF)
			continue
		}
		buf = append(buf, s[i])
	}
	return append(buf, componentEnd...)
}

func keyWith(kind ValueKind, payload ...byte) []byte {
	buf := make([]byte, 0, 1+len(payload))
	buf = append(buf, byte(kind))
	return append(buf, payload...)
}

func (Null) SortKey() []byte { return keyWith(KindNull) }

func (v String) SortKey() []byte {
	return keyWith(KindString, []byte(norm.NFC.String(string(v)))...)
}

// Integers sort numerically: big-endian with the sign bit flipped.
func (v Integer) SortKey() []byte {
	buf := keyWith(KindInteger, make([]byte, 8)...)
	binary.BigEndian.PutUint64(buf[1:], uint64(v)^(1<<63))
	return buf
}

// Floats sort numerically. Negative zero collapses onto zero and every NaN
// onto a single bit pattern that orders after +Inf.
func (v Float) SortKey() []byte {
	f := float64(v)
	var bits uint64
	switch {
	case math.IsNaN(f):
		bits = math.MaxUint64
	case f == 0:
		bits = 1 << 63
	default:
		bits = math.Float64bits(f)
		if bits&(1<<63) == 0 {
			bits ^= 1 << 63
		} else {
			bits = ^bits
		}
	}
	buf := keyWith(KindFloat, make([]byte, 8)...)
	binary.BigEndian.PutUint64(buf[1:], bits)
	return buf
}

func (v Boolean) SortKey() []byte {
	if v {
		return keyWith(KindBoolean, 1)
	}
	return keyWith(KindBoolean, 0)
}

func (v DateTime) SortKey() []byte {
	return keyWith(KindDateTime, []byte(strings.TrimSpace(string(v)))...)
}

func (v Bytes) SortKey() []byte {
	return keyWith(KindBytes, v...)
}

func (v JSON) SortKey() []byte {
	canonical, err := CanonicalJSON([]byte(v))
	if err != nil {
		// Not valid JSON; fall back to the raw text so the key stays total.
		return keyWith(KindJSON, []byte(v)...)
	}
	return keyWith(KindJSON, canonical...)
}

func (v Node) SortKey() []byte {
	return keyWith(KindNode, v.ID.Bytes()...)
}

func (v Typed) SortKey() []byte {
	buf := keyWith(KindTyped)
	buf = appendComponent(buf, norm.NFC.String(v.Value))
	return append(buf, norm.NFC.String(v.Datatype)...)
}

// Language tags are case-insensitive, so the key lower-cases them.
func (v LangString) SortKey() []byte {
	buf := keyWith(KindLangString)
	buf = appendComponent(buf, norm.NFC.String(v.Value))
	return append(buf, strings.ToLower(v.Lang)...)
}

func (Null) String() string      { return "null" }
func (v String) String() string  { return strconv.Quote(string(v)) }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v Node) String() string    { return v.ID.String() }

// Floats render in exponent form so they never read back as integers.
func (v Float) String() string {
	return strconv.FormatFloat(float64(v), 'e', -1, 64)
}

func (v DateTime) String() string {
	return strconv.Quote(string(v)) + "^^<xsd:dateTime>"
}

func (v Bytes) String() string {
	return "0x" + hex.EncodeToString(v)
}

func (v JSON) String() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(v)); err != nil {
		return strconv.Quote(string(v)) + "^^<rdf:JSON>"
	}
	return strconv.Quote(buf.String()) + "^^<rdf:JSON>"
}

func (v Typed) String() string {
	return strconv.Quote(v.Value) + "^^<" + v.Datatype + ">"
}

func (v LangString) String() string {
	return strconv.Quote(v.Value) + "@" + v.Lang
}

// ValuesEqual reports whether two values have identical sort keys.
// A nil Value only equals another nil Value.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a.SortKey(), b.SortKey())
}

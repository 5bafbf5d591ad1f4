package triple

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Predicate is a URI-like string identifying a relation.
type Predicate string

// Namespace returns everything before the last colon, or "" if there is none.
func (p Predicate) Namespace() string {
	i := strings.LastIndexByte(string(p), ':')
	if i < 0 {
		return ""
	}
	return string(p[:i])
}

// LocalName returns everything after the last colon, or the whole predicate.
func (p Predicate) LocalName() string {
	i := strings.LastIndexByte(string(p), ':')
	if i < 0 {
		return string(p)
	}
	return string(p[i+1:])
}

// Bytes returns the canonical key encoding (NFC-normalized UTF-8).
func (p Predicate) Bytes() []byte {
	return []byte(norm.NFC.String(string(p)))
}

func (p Predicate) String() string {
	return "<" + string(p) + ">"
}

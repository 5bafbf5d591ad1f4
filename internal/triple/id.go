package triple

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
)

// DomainTriple separates triple identities from any other SHA-256 use.
// The version suffix leaves room for a future algorithm migration.
const DomainTriple = "tristore/triple/v1"

// IDSize is the length of a TripleID in bytes.
const IDSize = sha256.Size

// ID is the content-addressed identity of a triple.
type ID [IDSize]byte

// ComputeID hashes the canonical encodings of subject, predicate and object.
// Format: SHA256(domain 0x00 len(s) s len(p) p len(o) o), lengths as uvarints.
// CreatedAt and any other metadata are excluded.
func ComputeID(s NodeID, p Predicate, o Value) ID {
	h := sha256.New()
	h.Write([]byte(DomainTriple))
	h.Write([]byte{0x00})
	writeField(h, s.Bytes())
	writeField(h, p.Bytes())
	if o == nil {
		o = Null{}
	}
	writeField(h, o.SortKey())

	var id ID
	h.Sum(id[:0])
	return id
}

func writeField(h hash.Hash, b []byte) {
	var n [binary.MaxVarintLen64]byte
	h.Write(n[:binary.PutUvarint(n[:], uint64(len(b)))])
	h.Write(b)
}

// Hex renders the ID as lowercase hex, the form other layers use to
// reference a triple.
func (id ID) Hex() string { return hex.EncodeToString(id[:]) }

func (id ID) String() string { return id.Hex() }

// Bytes returns a copy of the raw digest, used as the backend key.
func (id ID) Bytes() []byte {
	b := make([]byte, IDSize)
	copy(b, id[:])
	return b
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id == ID{} }

// Compare orders IDs bytewise.
func (id ID) Compare(other ID) int { return bytes.Compare(id[:], other[:]) }

// ParseID parses a 64-character hex ID.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parse id %q: %w", s, err)
	}
	return IDFromBytes(b)
}

// IDFromBytes converts a raw backend key into an ID.
func IDFromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != IDSize {
		return id, fmt.Errorf("id must be %d bytes, got %d", IDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

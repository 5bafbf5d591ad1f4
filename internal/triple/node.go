package triple

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// NodeKind identifies the variant held by a NodeID.
type NodeKind uint8

const (
	NodeInvalid NodeKind = iota
	NodeNamed
	NodeHash
	NodeBlank
)

func (k NodeKind) String() string {
	switch k {
	case NodeNamed:
		return "named"
	case NodeHash:
		return "hash"
	case NodeBlank:
		return "blank"
	default:
		return "invalid"
	}
}

// NodeID identifies a graph node acting as subject or object reference.
// It is comparable and safe to use as a map key.
type NodeID struct {
	kind  NodeKind
	str   string // IRI for named nodes, raw digest for hash nodes
	blank uint64
}

// NamedNode returns a node identified by an IRI-like name.
func NamedNode(name string) NodeID {
	return NodeID{kind: NodeNamed, str: name}
}

// HashNode returns a node identified by a raw digest.
func HashNode(digest []byte) NodeID {
	return NodeID{kind: NodeHash, str: string(digest)}
}

// BlankNode returns a blank node with a store-local integer label.
func BlankNode(n uint64) NodeID {
	return NodeID{kind: NodeBlank, blank: n}
}

// NewNamedNode mints a fresh named node with a urn:uuid: IRI.
func NewNamedNode() NodeID {
	return NamedNode("urn:uuid:" + uuid.NewString())
}

func (n NodeID) Kind() NodeKind { return n.kind }

// IsZero reports whether n is the zero NodeID.
func (n NodeID) IsZero() bool { return n.kind == NodeInvalid }

// Name returns the IRI of a named node, or "" for other kinds.
func (n NodeID) Name() string {
	if n.kind != NodeNamed {
		return ""
	}
	return n.str
}

// Digest returns a copy of the digest of a hash node, or nil for other kinds.
func (n NodeID) Digest() []byte {
	if n.kind != NodeHash {
		return nil
	}
	return []byte(n.str)
}

// Blank returns the label of a blank node, or 0 for other kinds.
func (n NodeID) Blank() uint64 {
	if n.kind != NodeBlank {
		return 0
	}
	return n.blank
}

// Bytes returns the canonical key encoding used by the index and the ID hash:
// a kind byte followed by the NFC-normalized name, the raw digest, or the
// big-endian blank label.
func (n NodeID) Bytes() []byte {
	switch n.kind {
	case NodeNamed:
		name := norm.NFC.String(n.str)
		buf := make([]byte, 0, 1+len(name))
		buf = append(buf, byte(NodeNamed))
		return append(buf, name...)
	case NodeHash:
		buf := make([]byte, 0, 1+len(n.str))
		buf = append(buf, byte(NodeHash))
		return append(buf, n.str...)
	case NodeBlank:
		buf := make([]byte, 9)
		buf[0] = byte(NodeBlank)
		binary.BigEndian.PutUint64(buf[1:], n.blank)
		return buf
	default:
		return []byte{byte(NodeInvalid)}
	}
}

// Equal reports whether two nodes have the same canonical encoding.
func (n NodeID) Equal(other NodeID) bool {
	if n.kind != other.kind {
		return false
	}
	if n.kind == NodeNamed {
		return norm.NFC.String(n.str) == norm.NFC.String(other.str)
	}
	return n.str == other.str && n.blank == other.blank
}

// String renders the node in text form: <name>, #hex or _:bN.
func (n NodeID) String() string {
	switch n.kind {
	case NodeNamed:
		return "<" + n.str + ">"
	case NodeHash:
		return "#" + hex.EncodeToString([]byte(n.str))
	case NodeBlank:
		return "_:b" + strconv.FormatUint(n.blank, 10)
	default:
		return "<invalid>"
	}
}

// ParseNode parses the text form produced by String. A bare word without
// brackets is accepted as a named node.
func ParseNode(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return NodeID{}, fmt.Errorf("parse node: empty")
	case strings.HasPrefix(s, "_:b"):
		n, err := strconv.ParseUint(s[3:], 10, 64)
		if err != nil {
			return NodeID{}, fmt.Errorf("parse node %q: %w", s, err)
		}
		return BlankNode(n), nil
	case strings.HasPrefix(s, "#"):
		digest, err := hex.DecodeString(s[1:])
		if err != nil {
			return NodeID{}, fmt.Errorf("parse node %q: %w", s, err)
		}
		return HashNode(digest), nil
	case strings.HasPrefix(s, "<"):
		if !strings.HasSuffix(s, ">") || len(s) < 3 {
			return NodeID{}, fmt.Errorf("parse node %q: unterminated IRI", s)
		}
		return NamedNode(s[1 : len(s)-1]), nil
	default:
		return NamedNode(s), nil
	}
}

package triple

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeIDDeterminism(t *testing.T) {
	alice := NamedNode("alice")

	t1 := NewAt(alice, "has_name", String("Alice"), time.Unix(100, 0))
	t2 := NewAt(alice, "has_name", String("Alice"), time.Unix(999, 0))

	assert.Equal(t, t1.ID(), t2.ID(), "CreatedAt must not affect identity")
	assert.Len(t, t1.ID().Hex(), 64, "SHA-256 hex is 64 characters")
}

func TestComputeIDChangesWithContent(t *testing.T) {
	base := ComputeID(NamedNode("alice"), "has_name", String("Alice"))

	assert.NotEqual(t, base, ComputeID(NamedNode("bob"), "has_name", String("Alice")), "different subject")
	assert.NotEqual(t, base, ComputeID(NamedNode("alice"), "has_label", String("Alice")), "different predicate")
	assert.NotEqual(t, base, ComputeID(NamedNode("alice"), "has_name", String("Alicia")), "different object")
	assert.NotEqual(t, base, ComputeID(NamedNode("alice"), "has_name", LangString{Value: "Alice", Lang: "en"}), "different object kind")
}

func TestComputeIDFieldBoundaries(t *testing.T) {
	// Length prefixes keep shifted boundaries from colliding.
	id1 := ComputeID(NamedNode("ab"), "c", String("d"))
	id2 := ComputeID(NamedNode("a"), "bc", String("d"))
	assert.NotEqual(t, id1, id2)
}

func TestComputeIDNormalizesUnicode(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	id1 := ComputeID(NamedNode(composed), "p", String(composed))
	id2 := ComputeID(NamedNode(decomposed), "p", String(decomposed))
	assert.Equal(t, id1, id2, "NFC and NFD forms must share an identity")
}

func TestComputeIDNilObjectIsNull(t *testing.T) {
	assert.Equal(t,
		ComputeID(NamedNode("a"), "p", Null{}),
		ComputeID(NamedNode("a"), "p", nil))
}

func TestParseIDRoundTrip(t *testing.T) {
	id := ComputeID(NamedNode("alice"), "knows", NodeValue(NamedNode("bob")))

	parsed, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	fromBytes, err := IDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, fromBytes)
}

func TestParseIDRejectsBadInput(t *testing.T) {
	_, err := ParseID("not-hex")
	assert.Error(t, err)

	_, err = ParseID("abcd")
	assert.Error(t, err, "short IDs are rejected")

	_, err = IDFromBytes(make([]byte, 31))
	assert.Error(t, err)
}

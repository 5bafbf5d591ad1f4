package triple

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrCorrupt is returned by Decode for blobs that are truncated, carry an
// unknown version or kind, or have trailing bytes.
var ErrCorrupt = errors.New("corrupt triple encoding")

const (
	codecVersion  = 0x01
	flagCreatedAt = 0x01
)

// Encode serializes t into the backend blob format:
//
//	version | flags | [created_at sec varint, nsec uvarint] |
//	subject | predicate | object
//
// Strings are stored as written (no normalization) so the blob round-trips
// exactly. The layout is private to one deployment.
func Encode(t Triple) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, codecVersion)
	if t.CreatedAt.IsZero() {
		buf = append(buf, 0)
	} else {
		buf = append(buf, flagCreatedAt)
		buf = binary.AppendVarint(buf, t.CreatedAt.Unix())
		buf = binary.AppendUvarint(buf, uint64(t.CreatedAt.Nanosecond()))
	}
	buf = appendNode(buf, t.Subject)
	buf = appendString(buf, string(t.Predicate))
	obj := t.Object
	if obj == nil {
		obj = Null{}
	}
	return appendValue(buf, obj)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendNode(buf []byte, n NodeID) []byte {
	buf = append(buf, byte(n.kind))
	switch n.kind {
	case NodeNamed, NodeHash:
		buf = appendString(buf, n.str)
	case NodeBlank:
		buf = binary.AppendUvarint(buf, n.blank)
	}
	return buf
}

func appendValue(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind()))
	switch val := v.(type) {
	case Null:
	case Boolean:
		if val {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case Integer:
		buf = binary.AppendVarint(buf, int64(val))
	case Float:
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(float64(val)))
	case String:
		buf = appendString(buf, string(val))
	case DateTime:
		buf = appendString(buf, string(val))
	case JSON:
		buf = appendString(buf, string(val))
	case Bytes:
		buf = appendString(buf, string(val))
	case Node:
		buf = appendNode(buf, val.ID)
	case Typed:
		buf = appendString(buf, val.Value)
		buf = appendString(buf, val.Datatype)
	case LangString:
		buf = appendString(buf, val.Value)
		buf = appendString(buf, val.Lang)
	}
	return buf
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (Triple, error) {
	d := decoder{data: data}
	if v := d.readByte(); d.err == nil && v != codecVersion {
		return Triple{}, fmt.Errorf("%w: unknown version %d", ErrCorrupt, v)
	}

	var t Triple
	if flags := d.readByte(); flags&flagCreatedAt != 0 {
		sec := d.readVarint()
		nsec := d.readUvarint()
		if nsec >= uint64(time.Second) {
			d.fail("nanoseconds out of range")
		}
		t.CreatedAt = time.Unix(sec, int64(nsec)).UTC()
	}
	t.Subject = d.readNode()
	t.Predicate = Predicate(d.readString())
	t.Object = d.readValue()

	if d.err == nil && d.pos != len(d.data) {
		d.fail(fmt.Sprintf("%d trailing bytes", len(d.data)-d.pos))
	}
	if d.err != nil {
		return Triple{}, d.err
	}
	return t, nil
}

// decoder records the first error and turns every later read into a no-op.
type decoder struct {
	data []byte
	pos  int
	err  error
}

func (d *decoder) fail(msg string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s at offset %d", ErrCorrupt, msg, d.pos)
	}
}

func (d *decoder) readByte() byte {
	if d.err != nil {
		return 0
	}
	if d.pos >= len(d.data) {
		d.fail("unexpected end of data")
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

func (d *decoder) readUvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		d.fail("bad uvarint")
		return 0
	}
	d.pos += n
	return v
}

func (d *decoder) readVarint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.data[d.pos:])
	if n <= 0 {
		d.fail("bad varint")
		return 0
	}
	d.pos += n
	return v
}

func (d *decoder) readString() string {
	n := d.readUvarint()
	if d.err != nil {
		return ""
	}
	if n > uint64(len(d.data)-d.pos) {
		d.fail("string length exceeds data")
		return ""
	}
	s := string(d.data[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s
}

func (d *decoder) readNode() NodeID {
	switch kind := NodeKind(d.readByte()); kind {
	case NodeNamed:
		return NamedNode(d.readString())
	case NodeHash:
		return NodeID{kind: NodeHash, str: d.readString()}
	case NodeBlank:
		return BlankNode(d.readUvarint())
	default:
		d.fail(fmt.Sprintf("unknown node kind %d", kind))
		return NodeID{}
	}
}

func (d *decoder) readValue() Value {
	switch kind := ValueKind(d.readByte()); kind {
	case KindNull:
		return Null{}
	case KindBoolean:
		switch d.readByte() {
		case 0:
			return Boolean(false)
		case 1:
			return Boolean(true)
		default:
			d.fail("bad boolean")
			return nil
		}
	case KindInteger:
		return Integer(d.readVarint())
	case KindFloat:
		if len(d.data)-d.pos < 8 {
			d.fail("truncated float")
			return nil
		}
		bits := binary.BigEndian.Uint64(d.data[d.pos:])
		d.pos += 8
		return Float(math.Float64frombits(bits))
	case KindString:
		return String(d.readString())
	case KindDateTime:
		return DateTime(d.readString())
	case KindJSON:
		return JSON(d.readString())
	case KindBytes:
		return Bytes(d.readString())
	case KindNode:
		return Node{ID: d.readNode()}
	case KindTyped:
		v := d.readString()
		return Typed{Value: v, Datatype: d.readString()}
	case KindLangString:
		v := d.readString()
		return LangString{Value: v, Lang: d.readString()}
	default:
		d.fail(fmt.Sprintf("unknown value kind %d", kind))
		return nil
	}
}

package triple

import (
	"time"
)

// Triple is a (subject, predicate, object) fact. It is immutable once
// stored; changing content means deleting it and inserting a new triple,
// which also yields a new ID.
type Triple struct {
	Subject   NodeID
	Predicate Predicate
	Object    Value
	CreatedAt time.Time
}

// New builds a triple stamped with the current UTC time.
func New(s NodeID, p Predicate, o Value) Triple {
	return NewAt(s, p, o, time.Now().UTC())
}

// NewAt builds a triple with an explicit creation time.
func NewAt(s NodeID, p Predicate, o Value, createdAt time.Time) Triple {
	if o == nil {
		o = Null{}
	}
	return Triple{Subject: s, Predicate: p, Object: o, CreatedAt: createdAt}
}

// ID returns the content-addressed identity of t.
func (t Triple) ID() ID {
	return ComputeID(t.Subject, t.Predicate, t.Object)
}

// SameContent reports whether two triples have the same subject, predicate
// and object, ignoring metadata.
func (t Triple) SameContent(other Triple) bool {
	return t.ID() == other.ID()
}

// String renders t as one N-Triples-like line.
func (t Triple) String() string {
	obj := Value(Null{})
	if t.Object != nil {
		obj = t.Object
	}
	return t.Subject.String() + " " + t.Predicate.String() + " " + obj.String() + " ."
}

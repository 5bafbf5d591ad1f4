package triple

import "bytes"

// Pattern selects triples by any combination of bound components.
// A nil field is unbound.
type Pattern struct {
	Subject   *NodeID
	Predicate *Predicate
	Object    Value
}

// AnyPattern matches every triple.
func AnyPattern() Pattern { return Pattern{} }

// SubjectPattern binds the subject only.
func SubjectPattern(s NodeID) Pattern { return Pattern{Subject: &s} }

// SubjectPredicatePattern binds subject and predicate.
func SubjectPredicatePattern(s NodeID, p Predicate) Pattern {
	return Pattern{Subject: &s, Predicate: &p}
}

// PredicatePattern binds the predicate only.
func PredicatePattern(p Predicate) Pattern { return Pattern{Predicate: &p} }

// PredicateObjectPattern binds predicate and object.
func PredicateObjectPattern(p Predicate, o Value) Pattern {
	return Pattern{Predicate: &p, Object: o}
}

// ObjectPattern binds the object only.
func ObjectPattern(o Value) Pattern { return Pattern{Object: o} }

// ObjectSubjectPattern binds object and subject.
func ObjectSubjectPattern(o Value, s NodeID) Pattern {
	return Pattern{Subject: &s, Object: o}
}

// ExactPattern binds all three components.
func ExactPattern(s NodeID, p Predicate, o Value) Pattern {
	return Pattern{Subject: &s, Predicate: &p, Object: o}
}

// IsWildcard reports whether no component is bound.
func (p Pattern) IsWildcard() bool {
	return p.Subject == nil && p.Predicate == nil && p.Object == nil
}

// Matches reports whether t satisfies every bound component of p.
func (p Pattern) Matches(t Triple) bool {
	if p.Subject != nil && !bytes.Equal(p.Subject.Bytes(), t.Subject.Bytes()) {
		return false
	}
	if p.Predicate != nil && !bytes.Equal(p.Predicate.Bytes(), t.Predicate.Bytes()) {
		return false
	}
	if p.Object != nil && !ValuesEqual(p.Object, t.Object) {
		return false
	}
	return true
}

func (p Pattern) String() string {
	s, pr, o := "?s", "?p", "?o"
	if p.Subject != nil {
		s = p.Subject.String()
	}
	if p.Predicate != nil {
		pr = p.Predicate.String()
	}
	if p.Object != nil {
		o = p.Object.String()
	}
	return s + " " + pr + " " + o
}

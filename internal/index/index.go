package index

import (
	"github.com/roach88/tristore/internal/triple"
)

// Route names the ordering that serves a pattern.
type Route int

const (
	// RouteScan means no component is bound: the index is bypassed and the
	// caller scans the backend.
	RouteScan Route = iota
	RouteSPO
	RoutePOS
	RouteOSP
	// RouteExact looks up SPO[s][p] and confirms each id in OSP[o][s].
	RouteExact
)

func (r Route) String() string {
	switch r {
	case RouteScan:
		return "scan"
	case RouteSPO:
		return "spo"
	case RoutePOS:
		return "pos"
	case RouteOSP:
		return "osp"
	case RouteExact:
		return "exact"
	default:
		return "unknown"
	}
}

// Index is the SPO/POS/OSP triple index.
type Index struct {
	spo ordering
	pos ordering
	osp ordering
	n   int
}

// New returns an empty index.
func New() *Index {
	return &Index{
		spo: newOrdering(),
		pos: newOrdering(),
		osp: newOrdering(),
	}
}

// Insert records id under the three orderings of t. Inserting an id that
// is already present leaves the index unchanged.
func (ix *Index) Insert(t triple.Triple, id triple.ID) {
	s, p, o := keysOf(t)
	if ix.spo.add(s, p, id) {
		ix.n++
	}
	ix.pos.add(p, o, id)
	ix.osp.add(o, s, id)
}

// Remove deletes id from the three orderings of t, pruning emptied keys.
// Removing an id that is not present is a silent no-op.
func (ix *Index) Remove(t triple.Triple, id triple.ID) {
	s, p, o := keysOf(t)
	if ix.spo.remove(s, p, id) {
		ix.n--
	}
	ix.pos.remove(p, o, id)
	ix.osp.remove(o, s, id)
}

func keysOf(t triple.Triple) (s, p, o []byte) {
	obj := t.Object
	if obj == nil {
		obj = triple.Null{}
	}
	return t.Subject.Bytes(), t.Predicate.Bytes(), obj.SortKey()
}

// Plan picks the ordering pre-sorted on the bound components of pat.
func Plan(pat triple.Pattern) Route {
	s, p, o := pat.Subject != nil, pat.Predicate != nil, pat.Object != nil
	switch {
	case s && p && o:
		return RouteExact
	case s && o:
		return RouteOSP
	case s:
		return RouteSPO
	case p:
		return RoutePOS
	case o:
		return RouteOSP
	default:
		return RouteScan
	}
}

// Candidates resolves pat to the ids that satisfy it. For RouteScan it
// returns nil and the caller must scan the backend instead.
func (ix *Index) Candidates(pat triple.Pattern) ([]triple.ID, Route) {
	route := Plan(pat)
	switch route {
	case RouteExact:
		s, p, o := pat.Subject.Bytes(), pat.Predicate.Bytes(), pat.Object.SortKey()
		var ids []triple.ID
		for _, id := range ix.spo.at(s, p) {
			if ix.osp.has(o, s, id) {
				ids = append(ids, id)
			}
		}
		return ids, route
	case RouteSPO:
		if pat.Predicate != nil {
			return ix.spo.at(pat.Subject.Bytes(), pat.Predicate.Bytes()), route
		}
		return ix.spo.under(pat.Subject.Bytes()), route
	case RoutePOS:
		if pat.Object != nil {
			return ix.pos.at(pat.Predicate.Bytes(), pat.Object.SortKey()), route
		}
		return ix.pos.under(pat.Predicate.Bytes()), route
	case RouteOSP:
		if pat.Subject != nil {
			return ix.osp.at(pat.Object.SortKey(), pat.Subject.Bytes()), route
		}
		return ix.osp.under(pat.Object.SortKey()), route
	default:
		return nil, RouteScan
	}
}

// SubjectCount is the number of distinct subjects (top-level SPO keys).
func (ix *Index) SubjectCount() int { return ix.spo.keys() }

// PredicateCount is the number of distinct predicates (top-level POS keys).
func (ix *Index) PredicateCount() int { return ix.pos.keys() }

// ObjectCount is the number of distinct objects (top-level OSP keys).
func (ix *Index) ObjectCount() int { return ix.osp.keys() }

// Len is the number of indexed triple ids.
func (ix *Index) Len() int { return ix.n }

// Clear drops all three orderings.
func (ix *Index) Clear() {
	ix.spo = newOrdering()
	ix.pos = newOrdering()
	ix.osp = newOrdering()
	ix.n = 0
}

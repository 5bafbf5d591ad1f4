package index

import (
	"bytes"

	"github.com/google/btree"

	"github.com/roach88/tristore/internal/triple"
)

const degree = 32

type leaf struct {
	key []byte
	ids *btree.BTreeG[triple.ID]
}

type branch struct {
	key    []byte
	leaves *btree.BTreeG[*leaf]
}

func lessLeaf(a, b *leaf) bool     { return bytes.Compare(a.key, b.key) < 0 }
func lessBranch(a, b *branch) bool { return bytes.Compare(a.key, b.key) < 0 }
func lessID(a, b triple.ID) bool   { return a.Compare(b) < 0 }

// ordering is one of the three nested maps.
type ordering struct {
	branches *btree.BTreeG[*branch]
}

func newOrdering() ordering {
	return ordering{branches: btree.NewG(degree, lessBranch)}
}

// add inserts id under k1/k2 and reports whether it was not already there.
func (o ordering) add(k1, k2 []byte, id triple.ID) bool {
	b, ok := o.branches.Get(&branch{key: k1})
	if !ok {
		b = &branch{key: k1, leaves: btree.NewG(degree, lessLeaf)}
		o.branches.ReplaceOrInsert(b)
	}
	l, ok := b.leaves.Get(&leaf{key: k2})
	if !ok {
		l = &leaf{key: k2, ids: btree.NewG(degree, lessID)}
		b.leaves.ReplaceOrInsert(l)
	}
	_, existed := l.ids.ReplaceOrInsert(id)
	return !existed
}

// remove deletes id under k1/k2, pruning the leaf and branch once empty.
// Removing an absent id is a no-op.
func (o ordering) remove(k1, k2 []byte, id triple.ID) bool {
	b, ok := o.branches.Get(&branch{key: k1})
	if !ok {
		return false
	}
	l, ok := b.leaves.Get(&leaf{key: k2})
	if !ok {
		return false
	}
	_, removed := l.ids.Delete(id)
	if l.ids.Len() == 0 {
		b.leaves.Delete(l)
	}
	if b.leaves.Len() == 0 {
		o.branches.Delete(b)
	}
	return removed
}

// under returns every id below k1, ordered by second key then id.
func (o ordering) under(k1 []byte) []triple.ID {
	b, ok := o.branches.Get(&branch{key: k1})
	if !ok {
		return nil
	}
	var ids []triple.ID
	b.leaves.Ascend(func(l *leaf) bool {
		l.ids.Ascend(func(id triple.ID) bool {
			ids = append(ids, id)
			return true
		})
		return true
	})
	return ids
}

// at returns the ids in the k1/k2 leaf in ascending order.
func (o ordering) at(k1, k2 []byte) []triple.ID {
	l, ok := o.leaf(k1, k2)
	if !ok {
		return nil
	}
	ids := make([]triple.ID, 0, l.ids.Len())
	l.ids.Ascend(func(id triple.ID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

func (o ordering) has(k1, k2 []byte, id triple.ID) bool {
	l, ok := o.leaf(k1, k2)
	return ok && l.ids.Has(id)
}

func (o ordering) leaf(k1, k2 []byte) (*leaf, bool) {
	b, ok := o.branches.Get(&branch{key: k1})
	if !ok {
		return nil, false
	}
	return b.leaves.Get(&leaf{key: k2})
}

func (o ordering) keys() int { return o.branches.Len() }

// Package index maintains the three-way in-memory triple index.
//
// Each ordering (SPO, POS, OSP) is a two-level ordered map from canonical
// byte keys to sets of triple IDs:
//
//	SPO[subject][predicate]  -> {id}
//	POS[predicate][object]   -> {id}
//	OSP[object][subject]     -> {id}
//
// Keys are compared bytewise, so object sort keys group exactly as
// triple.Value.SortKey orders them. Emptied leaves and branches are pruned
// on removal so churn does not grow memory.
//
// An Index holds IDs only, never triple content, and is not safe for
// concurrent use; the owning store serializes access.
package index

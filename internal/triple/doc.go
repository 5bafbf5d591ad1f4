// Package triple provides the passive data model of the store: nodes,
// predicates, object values, triples and their content-addressed IDs.
//
// This package imports nothing internal. Every other package builds on it.
//
// Key design constraints:
//   - A triple's ID is a pure function of (subject, predicate, object);
//     CreatedAt never participates in identity.
//   - Value.SortKey is the only encoding used for index ordering and equality.
//     It is order-preserving within a value kind and NFC-normalizes text.
//   - The binary codec (Encode/Decode) is lossless and private to one
//     deployment. Decode reports ErrCorrupt instead of panicking.
package triple

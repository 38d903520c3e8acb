// Package badger implements the storage interfaces on BadgerDB.
//
// Documents and taxonomy terms are stored as MUS-encoded values under typed
// key prefixes. Secondary lookups (filename, status, creation time, term
// name, synonym name, subcategory, parent) are maintained as index keys whose
// values are the referenced record IDs. Time-ordered indexes encode the
// timestamp BigEndian so lexicographic iteration matches time order.
package badger

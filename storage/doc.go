// Package storage defines the persistence interfaces for Canvass.
//
// It declares repository contracts for documents and the taxonomy vocabulary
// plus the MUS-based serialization helpers shared by backends. The badger
// subpackage provides the BadgerDB implementation.
package storage

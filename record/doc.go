// Package record persists typed records in a key-value storage.
//
// A Table binds one record shape to a storage.Storage. The shape converts a
// record R into its storable entity E and back, names the table and may add
// a version order, a clone function and unique secondary indexes. The table
// derives storage keys with a namer, encodes entities with a marshaller and
// keeps primary entities and their index entries consistent in single
// storage transactions.
//
// Reconcile is a last-writer-wins upsert: an incoming record replaces the
// stored one only when its version is strictly greater. Concurrent writers
// are serialized by the driver's compare-and-swap on mod revisions.
package record

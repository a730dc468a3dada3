// Package storage provides a uniform transactional key-value facade over the
// persistence engines in the driver subpackages.
//
// See the [github.com/tarantool/go-record/record] package for the typed record
// table built on top of it.
package storage

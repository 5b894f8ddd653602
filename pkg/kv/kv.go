// Package kv provides the small key-value store used to persist derived
// rendering data (string configurations keyed by pitch signature) across
// process restarts.
//
// Keys are hierarchical segments joined with ':' (Key{"stringcfg", "D4,E4"}
// encodes to "stringcfg:D4,E4"). A BadgerDB-backed implementation is used on
// disk; Memory is a drop-in for tests and single-run tools.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments. Segments must not contain it.
const Separator = ":"

// Key is a hierarchical path of string segments.
type Key []string

// String returns the encoded key.
func (k Key) String() string {
	return strings.Join(k, Separator)
}

func (k Key) bytes() []byte {
	return []byte(k.String())
}

func parseKey(b []byte) Key {
	return Key(strings.Split(string(b), Separator))
}

// prefixBytes returns the encoded prefix followed by the separator so that
// "a:b" does not match "a:bc". An empty prefix matches everything.
func (k Key) prefixBytes() []byte {
	if len(k) == 0 {
		return nil
	}
	return []byte(k.String() + Separator)
}

// Entry is a key-value pair returned by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates over entries under prefix in lexicographic key order.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Close releases any resources held by the store.
	Close() error
}

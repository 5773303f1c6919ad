// Package cache is a content-addressed, time-bounded store for upstream
// responses: an in-memory map in front of an on-disk payload store, with
// per-resource freshness policies and single-flight miss coalescing.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key identifies one cached response. Tag names the adapter family and
// Canonical is the query's byte-stable canonical form; entries are
// addressed by the SHA-256 of the canonical form.
type Key struct {
	Tag       string
	Canonical string
}

// NewKey builds a Key from an adapter tag and canonical query form.
func NewKey(tag, canonical string) Key {
	return Key{Tag: tag, Canonical: canonical}
}

// Hash returns the SHA-256 hex digest of the canonical form.
func (k Key) Hash() string {
	h := sha256.Sum256([]byte(k.Canonical))
	return hex.EncodeToString(h[:])
}

// String returns the canonical form, which embeds the tag.
func (k Key) String() string { return k.Canonical }

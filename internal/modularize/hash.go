package modularize

import (
	"crypto/sha1" //nolint:gosec // G505: identifiers, not security
	"encoding/hex"
)

// Hash returns the hex SHA-1 digest of s
func Hash(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // G401: identifiers, not security
	return hex.EncodeToString(sum[:])
}

// UniqueID derives the identifier that replaces name in a stylesheet whose
// content hash is sourceHash. Equal content gives equal ids; any change to
// the stylesheet gives every name a new id.
func UniqueID(sourceHash, name string) string {
	return name + "-" + Hash(sourceHash+"-"+name)
}

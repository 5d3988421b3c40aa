package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough to tell runs apart in logs
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Domain-specific hash types
type (
	InputHash  Hash
	PolicyHash Hash
)

func (h InputHash) String() string  { return Hash(h).String() }
func (h PolicyHash) String() string { return Hash(h).String() }

// ComputeInputHash fingerprints a set of raw rows independent of their order.
// Each row is given as its already-stringified cells.
func ComputeInputHash(rows [][]string) InputHash {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, "\x1f"))
	}
	sort.Strings(lines)
	return InputHash(NewHash([]byte(strings.Join(lines, "\n"))))
}

// ComputePolicyHash fingerprints a flat parameter map with sorted keys
func ComputePolicyHash(params map[string]interface{}) PolicyHash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(fmt.Sprintf("%v", params[key]))
		data.WriteString(";")
	}

	return PolicyHash(NewHash([]byte(data.String())))
}

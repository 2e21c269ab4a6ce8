// Package ids makes short task IDs and resolves the prefixes users type.
package ids

import (
	"crypto/sha256"
	"encoding/base32"
	"strconv"
	"strings"
	"time"
)

// Length is the length of a task ID.
const Length = 8

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Hash returns the first n lowercase base32 characters of the SHA-256 of
// input, capped at the encoded length.
func Hash(input string, n int) string {
	if n <= 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(input))
	encoded := encoding.EncodeToString(sum[:])
	return strings.ToLower(encoded[:min(n, len(encoded))])
}

// New returns the ID of a task titled title created at created. While taken
// reports the ID in use, a counter is mixed into the hash.
func New(title string, created time.Time, taken func(string) bool) string {
	seed := title + "@" + created.UTC().Format(time.RFC3339Nano)
	id := Hash(seed, Length)
	for n := 1; taken != nil && taken(id); n++ {
		id = Hash(seed+"#"+strconv.Itoa(n), Length)
	}
	return id
}

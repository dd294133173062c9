// Package xhash provides the xxh3-64 content hashing primitives shared by
// the workspace indexer, the hash planner/executor, and the artifact cache.
// Every hash produced by this package is a lowercase hex-encoded xxh3-64
// digest, matching the on-disk and wire representations used elsewhere.
package xhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/zeebo/xxh3"
)

// HashBytes returns the hex-encoded xxh3-64 of b.
func HashBytes(b []byte) string {
	sum := xxh3.Hash(b)
	return encodeUint64(sum)
}

// HashString is a convenience wrapper around HashBytes for string input.
func HashString(s string) string {
	sum := xxh3.HashString(s)
	return encodeUint64(sum)
}

// HashFile streams the contents of the file at path through xxh3 without
// loading it fully into memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return encodeUint64(h.Sum64()), nil
}

// CombineHashes hashes the concatenation of the given hash strings, in the
// order given by the caller. Callers that need order-independence must sort
// before calling (see CombineSorted).
func CombineHashes(hashes []string) string {
	h := xxh3.New()
	for _, hash := range hashes {
		_, _ = h.WriteString(hash)
	}
	return encodeUint64(h.Sum64())
}

// CombineSorted sorts a copy of hashes lexicographically and combines them.
// This is the form used anywhere hash-order invariance is required,
// e.g. combining dependency task hashes or glob match sets.
func CombineSorted(hashes []string) string {
	cp := make([]string, len(hashes))
	copy(cp, hashes)
	sort.Strings(cp)
	return CombineHashes(cp)
}

// HashObject renders v with %v and hashes the resulting bytes. It mirrors
// a convenience for hashing arbitrary small
// configuration fragments where a dedicated encoder would be overkill.
func HashObject(v interface{}) string {
	return HashString(fmt.Sprintf("%v", v))
}

func encodeUint64(sum uint64) string {
	var b [8]byte
	b[0] = byte(sum >> 56)
	b[1] = byte(sum >> 48)
	b[2] = byte(sum >> 40)
	b[3] = byte(sum >> 32)
	b[4] = byte(sum >> 24)
	b[5] = byte(sum >> 16)
	b[6] = byte(sum >> 8)
	b[7] = byte(sum)
	return hex.EncodeToString(b[:])
}

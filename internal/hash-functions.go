package internal

import "hash/fnv"

// StringHash computes a hash value for the given string.
func StringHash(s string) (hash uint64) {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

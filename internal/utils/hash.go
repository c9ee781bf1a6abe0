package utils

import "hash/fnv"

func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// LockKey maps a name to a Postgres advisory lock key.
func LockKey(name string) int64 {
	return int64(HashStringToUint64(name))
}

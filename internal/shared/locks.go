package shared

import "hash/fnv"

// AdvisoryLockKey derives a stable pg_advisory_xact_lock key for a named critical section.
func AdvisoryLockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("backoffice:" + name))
	return int64(h.Sum64())
}

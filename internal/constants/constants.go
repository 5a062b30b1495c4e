// Package constants holds the capacity constants and the private-key
// sentinel shared by the tag registry, the level table, and the service
// facade.
package constants

// Capacity constants bound the registry and its level tables. Both are
// small fixed caps by design: a hash-based registry would preserve the
// same externally-observable behavior, but the fixed-slot table keeps
// descriptor allocation, reuse, and the search hint trivially inspectable.
const (
	// MaxTags is the number of descriptor slots in the registry.
	MaxTags = 1024

	// MaxLevels is the number of distinct level numbers permitted per tag.
	MaxLevels = 256

	// MaxMessageSize is the largest message, in bytes, a single send may carry.
	MaxMessageSize = 4096

	// MaxWaitersHint is a soft threshold: a level accumulating more waiters
	// than this logs a warning but is never rejected. It exists for
	// observability, not enforcement, hence "hint".
	MaxWaitersHint = 64

	// PrivateSentinel is the key value that marks a tag as private: a
	// private tag is created but never indexed by key, so OPEN can never
	// find it. Mirrors the platform's IPC_PRIVATE convention.
	PrivateSentinel int32 = -1
)

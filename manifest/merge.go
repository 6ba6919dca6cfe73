package manifest

import (
	"fmt"
)

// MergeStrategy defines how to handle conflicts when merging manifests.
type MergeStrategy int

const (
	// MergePreferExisting keeps existing entries on conflict.
	MergePreferExisting MergeStrategy = iota

	// MergePreferNew overwrites with new entries on conflict.
	MergePreferNew

	// MergeErrorOnConflict returns an error if hashes differ.
	MergeErrorOnConflict
)

// Merge combines other into m. Entries are in conflict when their hashes
// differ; identical hashes are never a conflict.
//
// Merging is how manifests from several nodes or build shards are combined
// into one release manifest.
func (m *Manifest) Merge(other *Manifest, strategy MergeStrategy) error {
	if other == nil {
		return nil
	}
	for _, key := range other.Keys() {
		incoming := other.Batches[key]
		existing, exists := m.Batches[key]
		if !exists {
			m.Set(key, incoming)
			continue
		}
		if existing.Hash == incoming.Hash {
			continue
		}

		switch strategy {
		case MergePreferExisting:
			// Keep existing
		case MergePreferNew:
			m.Set(key, incoming)
		case MergeErrorOnConflict:
			return fmt.Errorf("hash conflict for %s: existing=%s, new=%s", key, existing.Hash, incoming.Hash)
		}
	}
	return nil
}

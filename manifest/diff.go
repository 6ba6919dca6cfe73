package manifest

import (
	"fmt"
	"strings"
)

// Change is an added or removed batch.
type Change struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

// HashChange is a batch whose hash changed.
type HashChange struct {
	Key     string `json:"key"`
	OldHash string `json:"old_hash"`
	NewHash string `json:"new_hash"`
}

// Diff describes the differences between two manifests.
//
// This is useful for:
//   - Reviewing which cached batches a deploy invalidates
//   - CI checks that a change touched only the expected batches
//
// Example usage:
//
//	diff := manifest.Compare(previous, current)
//	if !diff.IsEmpty() {
//	    fmt.Print(diff.Summary())
//	}
type Diff struct {
	// Added contains batches present only in the newer manifest.
	Added []Change `json:"added,omitempty"`

	// Removed contains batches present only in the older manifest.
	Removed []Change `json:"removed,omitempty"`

	// Changed contains batches whose hash differs.
	Changed []HashChange `json:"changed,omitempty"`
}

// Compare returns the differences from before to after, each list sorted
// by key. A nil manifest compares as empty.
func Compare(before, after *Manifest) *Diff {
	if before == nil {
		before = New()
	}
	if after == nil {
		after = New()
	}

	diff := &Diff{}
	for _, key := range after.Keys() {
		entry := after.Batches[key]
		prev, exists := before.Batches[key]
		switch {
		case !exists:
			diff.Added = append(diff.Added, Change{Key: key, Hash: entry.Hash})
		case prev.Hash != entry.Hash:
			diff.Changed = append(diff.Changed, HashChange{Key: key, OldHash: prev.Hash, NewHash: entry.Hash})
		}
	}
	for _, key := range before.Keys() {
		if _, exists := after.Batches[key]; !exists {
			diff.Removed = append(diff.Removed, Change{Key: key, Hash: before.Batches[key].Hash})
		}
	}
	return diff
}

// IsEmpty returns true if the manifests serve identical batches.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// TotalChanges returns the number of added, removed and changed batches.
func (d *Diff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Changed)
}

// Summary returns a human-readable listing of the differences.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "no changes\n"
	}

	var b strings.Builder
	for _, c := range d.Added {
		fmt.Fprintf(&b, "+ %s (%s)\n", c.Key, c.Hash)
	}
	for _, c := range d.Removed {
		fmt.Fprintf(&b, "- %s (%s)\n", c.Key, c.Hash)
	}
	for _, c := range d.Changed {
		fmt.Fprintf(&b, "~ %s (%s -> %s)\n", c.Key, c.OldHash, c.NewHash)
	}
	fmt.Fprintf(&b, "%d added, %d removed, %d changed\n", len(d.Added), len(d.Removed), len(d.Changed))
	return b.String()
}

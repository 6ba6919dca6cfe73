package webresource

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"

	"github.com/albertocavalcante/go-webresource/catalog"
)

// PlaceholderHash replaces a batch hash that could not be computed. A batch
// carrying it is still servable but its URL no longer changes with content.
const PlaceholderHash = "0"

// newDigest creates the batch digest. MD5 is sufficient: the hash is a cache
// key, not a security boundary.
var newDigest func() hash.Hash = md5.New

// HashModules digests the ordered (complete key, version) sequence of mods
// and returns it hex-encoded. Identical sequences always hash identically;
// any change in membership, order or version changes the result.
func HashModules(mods []*catalog.ModuleDescriptor) (string, error) {
	h := newDigest()
	for _, m := range mods {
		if _, err := io.WriteString(h, m.Key.String()+m.Version); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashOrPlaceholder is HashModules with the placeholder fallback.
func hashOrPlaceholder(mods []*catalog.ModuleDescriptor) (string, error) {
	h, err := HashModules(mods)
	if err != nil {
		return PlaceholderHash, err
	}
	return h, nil
}

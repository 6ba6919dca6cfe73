// Package manifest records the batch URLs a deployment serves together with
// their content hashes.
//
// A manifest written at build time and compared with the previous release
// shows which cached batches a deploy invalidates: a batch whose hash
// changed gets a new URL, a batch that disappeared stops being served.
//
// # Manifest Structure
//
// A manifest is a JSON document:
//   - manifestVersion: schema version for format compatibility
//   - batches: batch key -> {hash, url, modules}
//
// Batch keys are the unhashed development-mode path plus the canonical
// query, so a key stays stable while its hash changes.
//
// # Usage
//
//	mf := manifest.New()
//	mf.Add(resource, url, modules)
//	if err := mf.WriteFile("webresources.manifest.json"); err != nil {
//	    log.Fatal(err)
//	}
//
//	old, _ := manifest.ReadFile("previous.json")
//	diff := manifest.Compare(old, mf)
//	fmt.Print(diff.Summary())
//
// Output is deterministic: entries are sorted by key, so a manifest can be
// checked in and diffed textually.
package manifest

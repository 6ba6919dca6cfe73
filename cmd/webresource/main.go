// Command webresource inspects web resource descriptors: it resolves
// dependency closures, builds context batches, renders tags, parses
// resource URLs, draws the module graph and writes batch manifests.
package main

import (
	"os"
)

func main() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

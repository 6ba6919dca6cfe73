package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// DescriptorExt is the file extension LoadDir looks for.
const DescriptorExt = ".webresource"

// LoadDir parses every descriptor file under dir and registers the declared
// modules in a new MemoryCatalog. Files are visited in lexical path order so
// that registration order, and therefore context order, is deterministic.
//
// Any parse error aborts the load; all errors from all files are reported.
func LoadDir(dir string) (*MemoryCatalog, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), DescriptorExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	slices.Sort(files)

	c := NewMemoryCatalog()
	if err := c.LoadFiles(files...); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFiles parses the given descriptor files and registers their modules.
// A key declared by more than one file is an error.
func (c *MemoryCatalog) LoadFiles(files ...string) error {
	var errs []error
	origin := make(map[string]string)

	for _, file := range files {
		result, err := ParseFile(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := result.Err(); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, m := range result.Modules {
			key := m.Key.String()
			if prev, dup := origin[key]; dup {
				errs = append(errs, fmt.Errorf("%s: module %s already declared in %s", file, key, prev))
				continue
			}
			origin[key] = file
			if err := c.Put(m); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", file, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Package pipeline implements component D: the crash-recoverable
// encrypt/decrypt passes over a vault folder, driven by a manifest.
package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ManifestFileName is the reserved manifest filename living at the
	// vault folder root.
	ManifestFileName = ".coffer-manifest.json"
	// IndexingBlockerFileName opts a locked vault folder out of OS
	// content indexing.
	IndexingBlockerFileName = ".metadata_never_index"
	// CiphertextExt is the extension applied to encrypted files.
	CiphertextExt = "cfr"
)

var reservedNames = map[string]bool{
	ManifestFileName:        true,
	IndexingBlockerFileName: true,
	".DS_Store":             true,
}

// collectRegularFiles walks root recursively and returns an ordered
// list of absolute paths, lexicographically sorted. Symlinks, non-
// regular entries, top-level hidden entries, reserved filenames, and
// already-encrypted (.cfr) files are excluded.
func collectRegularFiles(root string) ([]string, error) {
	var results []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.Type()&os.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		isTopLevel := !strings.Contains(rel, string(filepath.Separator))

		if d.IsDir() {
			if isTopLevel && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if isTopLevel && strings.HasPrefix(name, ".") {
			return nil
		}
		if reservedNames[name] {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.TrimPrefix(filepath.Ext(name), ".") == CiphertextExt {
			return nil
		}

		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

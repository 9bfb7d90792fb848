package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loganross/coffer/internal/models"
)

func manifestPath(root string) string {
	return filepath.Join(root, ManifestFileName)
}

// readManifest loads and parses the manifest at root. A missing file
// returns (nil, nil); a present but unparseable file returns
// ErrManifestCorrupt.
func readManifest(root string) (*models.Manifest, error) {
	data, err := os.ReadFile(manifestPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, models.ErrManifestCorrupt
	}
	return &m, nil
}

// writeManifest persists the manifest atomically, pretty-printed.
func writeManifest(root string, m *models.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return atomicWriteFile(manifestPath(root), data, 0o600)
}

// removeManifest deletes the manifest file, best-effort.
func removeManifest(root string) error {
	err := os.Remove(manifestPath(root))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HasInterruptedManifest reports whether the vault folder holds a
// manifest whose status is in-progress or interrupted.
func HasInterruptedManifest(root string) (bool, error) {
	m, err := readManifest(root)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}
	return m.IsInterrupted(), nil
}

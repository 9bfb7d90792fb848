package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loganross/coffer/internal/crypto"
	"github.com/loganross/coffer/internal/events"
	"github.com/loganross/coffer/internal/models"
)

// ProgressFunc is invoked after each file completes a pass.
type ProgressFunc func(models.Progress)

// Pipeline is component D: the encrypt/decrypt passes over a vault
// folder, and the manifest/secure-delete/open-handle machinery they
// depend on.
type Pipeline struct {
	runner CommandRunner
	logger *events.Logger
}

// New creates a Pipeline. runner may be nil, in which case the real
// lsof-backed CommandRunner is used.
func New(runner CommandRunner, logger *events.Logger) *Pipeline {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Pipeline{runner: runner, logger: logger.WithField("component", "pipeline")}
}

// HasInterruptedManifest exposes the package-level check.
func (p *Pipeline) HasInterruptedManifest(root string) (bool, error) {
	return HasInterruptedManifest(root)
}

func cfrPath(originalPath string) string {
	return originalPath + "." + CiphertextExt
}

// Encrypt runs the encryption pass (lock) over root, sealing every
// enumerated file under masterKey and writing the crash-recoverable
// manifest as it goes.
func (p *Pipeline) Encrypt(vaultID, root string, masterKey []byte, progress ProgressFunc) (*models.Manifest, error) {
	files, err := collectRegularFiles(root)
	if err != nil {
		return nil, fmt.Errorf("enumerate files: %w", err)
	}

	entries := make([]models.FileEntry, 0, len(files))
	relPaths := make([]string, 0, len(files))
	perms := make(map[string]uint32, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", f, err)
		}
		var size int64
		var mode uint32 = 0o644
		if info, statErr := os.Stat(f); statErr == nil {
			size = info.Size()
			mode = uint32(info.Mode().Perm())
		}
		entries = append(entries, models.FileEntry{
			RelativePath:     rel,
			OriginalSize:     size,
			PosixPermissions: mode,
			IsEncrypted:      false,
		})
		relPaths = append(relPaths, rel)
		perms[rel] = mode
	}

	manifest := models.NewManifest(vaultID, entries, time.Now().UTC())
	if err := writeManifest(root, manifest); err != nil {
		return nil, fmt.Errorf("write initial manifest: %w", err)
	}

	total := len(relPaths)
	for i, rel := range relPaths {
		absPath := filepath.Join(root, rel)

		plaintext, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}

		sealed, err := crypto.Seal(plaintext, masterKey)
		if err != nil {
			return nil, fmt.Errorf("seal %s: %w", rel, err)
		}

		if err := atomicWriteFile(cfrPath(absPath), sealed.Combined, os.FileMode(perms[rel])); err != nil {
			return nil, fmt.Errorf("write ciphertext for %s: %w", rel, err)
		}

		manifest.MarkEncrypted(
			rel,
			int64(len(sealed.Combined)),
			base64.StdEncoding.EncodeToString(sealed.Nonce),
			base64.StdEncoding.EncodeToString(sealed.Tag),
		)
		if err := writeManifest(root, manifest); err != nil {
			return nil, fmt.Errorf("update manifest for %s: %w", rel, err)
		}

		if err := secureDelete(absPath); err != nil {
			p.logger.WithError(err).WithField("path", rel).Warn("secure delete of plaintext failed")
		}

		if progress != nil {
			progress(models.Progress{VaultID: vaultID, FilesDone: i + 1, Total: total, CurrentRel: rel})
		}
	}

	blockerPath := filepath.Join(root, IndexingBlockerFileName)
	if err := os.WriteFile(blockerPath, nil, 0o644); err != nil {
		p.logger.WithError(err).Warn("failed to write indexing blocker file")
	}

	now := time.Now().UTC()
	manifest.Status = models.ManifestCompleted
	manifest.CompletedAt = &now
	if err := writeManifest(root, manifest); err != nil {
		return nil, fmt.Errorf("finalize manifest: %w", err)
	}

	return manifest, nil
}

// Decrypt runs the decryption pass (unlock) over root, opening every
// manifest entry marked isEncrypted under masterKey.
func (p *Pipeline) Decrypt(vaultID, root string, masterKey []byte, progress ProgressFunc) error {
	manifest, err := readManifest(root)
	if err != nil {
		return err
	}
	if manifest == nil {
		return fmt.Errorf("decrypt: %w", models.ErrManifestCorrupt)
	}

	encrypted := manifest.EncryptedEntries()
	total := len(encrypted)

	for i, entry := range encrypted {
		absPath := filepath.Join(root, entry.RelativePath)
		ctPath := cfrPath(absPath)

		combined, err := os.ReadFile(ctPath)
		if err != nil {
			if os.IsNotExist(err) {
				return &models.EncryptedFileMissingError{RelativePath: entry.RelativePath}
			}
			return fmt.Errorf("read ciphertext %s: %w", entry.RelativePath, err)
		}

		plaintext, err := crypto.Open(combined, masterKey)
		if err != nil {
			return fmt.Errorf("open %s: %w", entry.RelativePath, err)
		}

		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", entry.RelativePath, err)
		}
		if err := atomicWriteFile(absPath, plaintext, os.FileMode(entry.PosixPermissions)); err != nil {
			return fmt.Errorf("write plaintext %s: %w", entry.RelativePath, err)
		}
		if err := os.Chmod(absPath, os.FileMode(entry.PosixPermissions)); err != nil {
			p.logger.WithError(err).WithField("path", entry.RelativePath).Warn("failed to restore permissions")
		}

		if err := os.Remove(ctPath); err != nil && !os.IsNotExist(err) {
			p.logger.WithError(err).WithField("path", entry.RelativePath).Warn("failed to remove ciphertext")
		}

		if progress != nil {
			progress(models.Progress{VaultID: vaultID, FilesDone: i + 1, Total: total, CurrentRel: entry.RelativePath})
		}
	}

	_ = removeManifest(root)
	_ = os.Remove(filepath.Join(root, IndexingBlockerFileName))

	return nil
}

// OpenHandles checks for files under root held open by another process.
func (p *Pipeline) OpenHandles(ctx context.Context, root string) (map[string]bool, error) {
	return OpenFileHandles(ctx, p.runner, root)
}

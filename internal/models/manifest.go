package models

import "time"

// ManifestVersion is the manifest schema version written to disk.
const ManifestVersion = 1

// ManifestStatus tracks the progress of a pipeline pass across a vault's
// files, allowing a crash mid-pass to be detected and resumed.
type ManifestStatus string

const (
	ManifestInProgress  ManifestStatus = "in-progress"
	ManifestCompleted   ManifestStatus = "completed"
	ManifestInterrupted ManifestStatus = "interrupted"
)

// FileEntry records one file's encryption state, matching the on-disk
// manifest schema field for field (fields declared alphabetically so
// json.Marshal emits them in the documented order).
type FileEntry struct {
	EncryptedSize    int64  `json:"encryptedSize"`
	IsEncrypted      bool   `json:"isEncrypted"`
	Nonce            string `json:"nonce"`
	OriginalSize     int64  `json:"originalSize"`
	PosixPermissions uint32 `json:"posixPermissions"`
	RelativePath     string `json:"relativePath"`
	Tag              string `json:"tag"`
}

// Manifest is the crash-recoverable record of an in-flight or completed
// pipeline pass over a vault's folder tree. Fields are declared
// alphabetically to match the documented on-disk key order.
type Manifest struct {
	CompletedAt *time.Time     `json:"completedAt"`
	Files       []FileEntry    `json:"files"`
	StartedAt   time.Time      `json:"startedAt"`
	Status      ManifestStatus `json:"status"`
	VaultID     string         `json:"vaultID"`
	Version     int            `json:"version"`
}

// NewManifest starts a fresh in-progress manifest for the given ordered
// file list.
func NewManifest(vaultID string, files []FileEntry, now time.Time) *Manifest {
	return &Manifest{
		Files:     files,
		StartedAt: now,
		Status:    ManifestInProgress,
		VaultID:   vaultID,
		Version:   ManifestVersion,
	}
}

// EncryptedEntries returns the entries marked isEncrypted=true.
func (m *Manifest) EncryptedEntries() []FileEntry {
	var out []FileEntry
	for _, f := range m.Files {
		if f.IsEncrypted {
			out = append(out, f)
		}
	}
	return out
}

// AllEncrypted reports whether every entry is marked encrypted.
func (m *Manifest) AllEncrypted() bool {
	for _, f := range m.Files {
		if !f.IsEncrypted {
			return false
		}
	}
	return true
}

// MarkEncrypted updates one entry in place by relative path.
func (m *Manifest) MarkEncrypted(relPath string, encryptedSize int64, nonce, tag string) {
	for i := range m.Files {
		if m.Files[i].RelativePath == relPath {
			m.Files[i].EncryptedSize = encryptedSize
			m.Files[i].Nonce = nonce
			m.Files[i].Tag = tag
			m.Files[i].IsEncrypted = true
			return
		}
	}
}

// IsInterrupted reports has-interrupted-manifest semantics: true iff
// status is in-progress or interrupted.
func (m *Manifest) IsInterrupted() bool {
	return m.Status == ManifestInProgress || m.Status == ManifestInterrupted
}

// Progress reports pass completion for progress callbacks.
type Progress struct {
	VaultID    string
	FilesDone  int
	Total      int
	CurrentRel string
}

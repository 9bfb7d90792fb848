package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganross/coffer/internal/crypto"
	"github.com/loganross/coffer/internal/events"
	"github.com/loganross/coffer/internal/models"
	"github.com/loganross/coffer/internal/pipeline"
)

type stubRunner struct {
	out []byte
	err error
}

func (s stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return s.out, s.err
}

func newTestPipeline(runner pipeline.CommandRunner) *pipeline.Pipeline {
	logger := events.NewTestLogger(events.ErrorLevel, "text", nil)
	return pipeline.New(runner, logger)
}

func writeTree(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("hello b"), 0o644))
}

func TestEncryptThenDecryptRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	p := newTestPipeline(stubRunner{})

	manifest, err := p.Encrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ManifestCompleted, manifest.Status)
	assert.True(t, manifest.AllEncrypted())

	// Plaintexts gone, ciphertexts present.
	_, err = os.Stat(filepath.Join(root, "a.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "a.txt.cfr"))
	assert.NoError(t, err)

	err = p.Decrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello a", string(data))

	data2, err := os.ReadFile(filepath.Join(root, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello b", string(data2))

	_, err = os.Stat(filepath.Join(root, "a.txt.cfr"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(root, pipeline.ManifestFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestDecryptMissingCiphertextReturnsTypedError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	p := newTestPipeline(stubRunner{})
	_, err = p.Encrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "a.txt.cfr")))

	err = p.Decrypt("vault-1", root, masterKey, nil)
	require.Error(t, err)
	var missing *models.EncryptedFileMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "a.txt", missing.RelativePath)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)
	wrongKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	p := newTestPipeline(stubRunner{})

	_, err = p.Encrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)

	err = p.Decrypt("vault-1", root, wrongKey, nil)
	assert.Error(t, err)
}

func TestEncryptSkipsReservedAndHiddenFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("keep"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("skip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".DS_Store"), []byte("skip"), 0o644))

	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	p := newTestPipeline(stubRunner{})
	manifest, err := p.Encrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)

	assert.Len(t, manifest.Files, 1)
	assert.Equal(t, "keep.txt", manifest.Files[0].RelativePath)

	_, err = os.Stat(filepath.Join(root, ".hidden"))
	assert.NoError(t, err, "hidden files should be left untouched")
}

func TestEncryptSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.txt"), []byte("real"), 0o644))
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported on this filesystem: %v", err)
	}

	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	p := newTestPipeline(stubRunner{})
	manifest, err := p.Encrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)

	assert.Len(t, manifest.Files, 1)
	assert.Equal(t, "real.txt", manifest.Files[0].RelativePath)

	_, err = os.Lstat(filepath.Join(root, "link.txt"))
	assert.NoError(t, err, "the symlink itself should be left untouched")
	_, err = os.Stat(filepath.Join(root, "link.txt.cfr"))
	assert.True(t, os.IsNotExist(err), "a symlink must never be sealed")
}

func TestEncryptRecoversFromCrashMidPass(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	p := newTestPipeline(stubRunner{})

	// Simulate a crash after a.txt's ciphertext was written but before
	// secure-delete removed the plaintext: both a.txt and a.txt.cfr
	// exist, no manifest is on disk, and sub/b.txt was never touched.
	sealed, err := crypto.Seal([]byte("hello a"), masterKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt.cfr"), sealed.Combined, 0o644))

	interrupted, err := p.HasInterruptedManifest(root)
	require.NoError(t, err)
	assert.False(t, interrupted, "no manifest was ever written for this simulated crash")

	manifest, err := p.Encrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ManifestCompleted, manifest.Status)
	assert.True(t, manifest.AllEncrypted())

	_, err = os.Stat(filepath.Join(root, "a.txt"))
	assert.True(t, os.IsNotExist(err), "re-running the pass must finish sealing every file")
	_, err = os.Stat(filepath.Join(root, "sub", "b.txt"))
	assert.True(t, os.IsNotExist(err))

	err = p.Decrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello a", string(data), "the leftover ciphertext must be overwritten, not appended to")
}

func TestHasInterruptedManifestFalseAfterCompletedPass(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root)

	masterKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)

	p := newTestPipeline(stubRunner{})
	_, err = p.Encrypt("vault-1", root, masterKey, nil)
	require.NoError(t, err)

	interrupted, err := p.HasInterruptedManifest(root)
	require.NoError(t, err)
	assert.False(t, interrupted, "a completed pass should not be flagged interrupted")
}

func TestHasInterruptedManifestNoManifest(t *testing.T) {
	root := t.TempDir()

	interrupted, err := pipeline.HasInterruptedManifest(root)
	require.NoError(t, err)
	assert.False(t, interrupted)
}

func TestOpenFileHandlesFailOpenOnRunnerError(t *testing.T) {
	root := t.TempDir()
	p := newTestPipeline(stubRunner{err: assertError{}})

	handles, err := p.OpenHandles(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, handles)
}

type assertError struct{}

func (assertError) Error() string { return "lsof not found" }

func TestOpenFileHandlesParsesOutput(t *testing.T) {
	root := t.TempDir()
	inUse := filepath.Join(root, "open.txt")
	require.NoError(t, os.WriteFile(inUse, []byte("x"), 0o644))

	out := []byte("COMMAND  PID USER   FD   TYPE DEVICE SIZE/OFF NODE NAME\n" +
		"someproc 123 user  3r   REG    1,2      100  456 " + inUse + "\n")

	p := newTestPipeline(stubRunner{out: out})

	handles, err := p.OpenHandles(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, handles[inUse])
}

package pipeline

import (
	"crypto/rand"
	"io"
	"os"
)

const secureDeleteChunkSize = 64 * 1024

// secureDelete overwrites the full length of path with CSPRNG bytes in
// chunks, flushes, closes, then unlinks it. Best-effort: an overwrite
// failure still leads to an unlink attempt. This technique gives no
// guarantee against flash/copy-on-write media that remap writes rather
// than overwrite in place.
func secureDelete(path string) error {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil
		}
		return statErr
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err == nil {
		size := info.Size()
		buf := make([]byte, secureDeleteChunkSize)
		var written int64
		for written < size {
			n := secureDeleteChunkSize
			if remaining := size - written; remaining < int64(n) {
				n = int(remaining)
			}
			if _, err := io.ReadFull(rand.Reader, buf[:n]); err == nil {
				_, _ = f.WriteAt(buf[:n], written)
			}
			written += int64(n)
		}
		_ = f.Sync()
		_ = f.Close()
	}

	return os.Remove(path)
}

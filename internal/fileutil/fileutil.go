package fileutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"shelver/internal/services"
)

// CopyVerified streams src to dst and verifies the copy before returning.
// The copied byte count must equal the source size; when verifyChecksum is
// set, SHA-256 digests of the bytes read and the bytes written must match.
// On any mismatch dst is removed and an integrity error is returned, so a
// failed copy never leaves a plausible-looking destination behind.
func CopyVerified(src, dst string, verifyChecksum bool) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = out.Close()
	}()

	var reader io.Reader = in
	var writer io.Writer = out
	var srcHasher, dstHasher = sha256.New(), sha256.New()
	if verifyChecksum {
		reader = io.TeeReader(in, srcHasher)
		writer = io.MultiWriter(out, dstHasher)
	}

	written, err := io.Copy(writer, reader)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return 0, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return 0, err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return 0, services.Wrap(services.ErrIntegrity, "fileutil", "verify",
			fmt.Sprintf("size mismatch: source %d bytes, copied %d bytes", srcSize, written), nil)
	}
	if verifyChecksum && !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return 0, services.Wrap(services.ErrIntegrity, "fileutil", "verify",
			"hash mismatch: file corrupted during copy", nil)
	}

	return written, nil
}

// HashFile returns the hex-encoded SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// SameContent reports whether the files at a and b have equal size and, when
// verifyChecksum is set, equal SHA-256 digests. Used to recognize an
// already-committed destination without re-copying.
func SameContent(a, b string, verifyChecksum bool) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}
	if !verifyChecksum {
		return true, nil
	}
	hashA, err := HashFile(a)
	if err != nil {
		return false, err
	}
	hashB, err := HashFile(b)
	if err != nil {
		return false, err
	}
	return hashA == hashB, nil
}

// Package crypto wraps the MD5 digest the md5sums control file format
// mandates; this is a compatibility requirement of the Debian wire format
// itself, not a security property, so no ecosystem library replaces it.
//
//nolint:revive // Intentional wrapper around stdlib crypto for package-specific hashing
package crypto

import (
	"crypto/md5" //nolint:gosec // md5sums is a Debian archive format requirement, not a security control
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/dpkgo/dpkgo/pkg/logger"
)

// CalculateMD5 calculates the MD5 checksum of a file, as recorded in a
// package's md5sums control file.
func CalculateMD5(path string) ([]byte, error) {
	cleanFilePath := filepath.Clean(path)

	file, err := os.Open(cleanFilePath)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("failed to close file after hashing", "path", cleanFilePath, "error", closeErr)
		}
	}()

	hash := md5.New() //nolint:gosec // see package doc comment

	if _, err := io.Copy(hash, file); err != nil {
		return nil, err
	}

	return hash.Sum(nil), nil
}

// CalculateMD5FromReader calculates MD5 from an io.Reader.
func CalculateMD5FromReader(reader io.Reader) ([]byte, error) {
	hash := md5.New() //nolint:gosec // see package doc comment

	if _, err := io.Copy(hash, reader); err != nil {
		return nil, err
	}

	return hash.Sum(nil), nil
}

// CalculateMD5Hex calculates a file's MD5 checksum and hex-encodes it, the
// representation used verbatim in an md5sums entry.
func CalculateMD5Hex(path string) (string, error) {
	sum, err := CalculateMD5(path)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(sum), nil
}

// VerifyMD5 verifies that a file's MD5 digest matches expectedHex, the
// textual digest recorded in an md5sums entry.
func VerifyMD5(path string, expectedHex string) (bool, error) {
	actualHex, err := CalculateMD5Hex(path)
	if err != nil {
		return false, err
	}

	return actualHex == expectedHex, nil
}

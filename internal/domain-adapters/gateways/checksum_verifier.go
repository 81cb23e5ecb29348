package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ChecksumVerifier checks source tarballs against the sha256 a recipe
// declares. Pure Go, no external sha256sum binary needed.
type ChecksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier.
func NewChecksumVerifier() *ChecksumVerifier {
	return &ChecksumVerifier{}
}

// Verify hashes the file and compares it to expectedSum
// (case-insensitive hex).
func (v *ChecksumVerifier) Verify(_ context.Context, filePath, expectedSum string) error {
	actual, err := v.Sum(filePath)
	if err != nil {
		return err
	}
	if actual != strings.ToLower(strings.TrimSpace(expectedSum)) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s",
			filePath, expectedSum, actual)
	}
	return nil
}

// Sum returns the lowercase hex SHA-256 of the file.
func (v *ChecksumVerifier) Sum(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

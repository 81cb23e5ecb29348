// Package gpg provides GPG signature verification capabilities.
package gpg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Upstream KEYS files can be large keyring dumps; signatures are tiny.
const (
	maxKeyringBytes   = 10 * 1024 * 1024
	maxSignatureBytes = 10 * 1024
)

const armorHeader = "-----BEGIN PGP SIGNATURE---"

// Verifier checks detached GPG signatures of source tarballs using
// ProtonMail's go-crypto, the maintained fork of x/crypto/openpgp.
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// NewVerifier creates a verifier with an empty keyring.
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// KeyringSize returns the number of imported keys.
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}

// ImportKeyringFile imports keys from a local armored or binary keyring
// file.
func (v *Verifier) ImportKeyringFile(keyPath string) error {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to read keyring file: %w", err)
	}
	return v.importKeyring(data)
}

// ImportKeyringURL downloads an upstream KEYS file and imports every key
// it contains. Projects in this ecosystem publish such files next to
// their release tarballs.
func (v *Verifier) ImportKeyringURL(ctx context.Context, keysURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keysURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download KEYS file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("KEYS file download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxKeyringBytes))
	if err != nil {
		return fmt.Errorf("failed to read KEYS file: %w", err)
	}
	return v.importKeyring(data)
}

func (v *Verifier) importKeyring(data []byte) error {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		// Retry as a binary keyring.
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to parse keyring: %w", err)
		}
	}
	if len(entities) == 0 {
		return fmt.Errorf("no keys found in keyring")
	}
	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifyDetached checks the detached signature at sigPath against the
// file at dataPath. The signature may be armored or binary.
func (v *Verifier) VerifyDetached(dataPath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported")
	}

	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to read signature file: %w", err)
	}
	return v.verify(dataPath, sigData)
}

// VerifyDetachedURL downloads a detached signature and checks it against
// the file at dataPath.
func (v *Verifier) VerifyDetachedURL(ctx context.Context, dataPath, sigURL string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sigURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create signature request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download signature: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signature download failed with status %d", resp.StatusCode)
	}

	sigData, err := io.ReadAll(io.LimitReader(resp.Body, maxSignatureBytes))
	if err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}
	return v.verify(dataPath, sigData)
}

func (v *Verifier) verify(dataPath string, sigData []byte) error {
	if len(sigData) < 10 {
		return fmt.Errorf("signature too small to be a GPG signature")
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	sig := bytes.NewReader(sigData)
	if strings.HasPrefix(string(sigData[:min(len(sigData), len(armorHeader))]), armorHeader) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, f, sig, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, f, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

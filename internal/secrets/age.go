// Package secrets seals stored export blobs with age.
package secrets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"filippo.io/age"
)

// AgeEncryptor encrypts to, and decrypts with, a single X25519 identity.
type AgeEncryptor struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewAgeEncryptor loads the first X25519 identity from an age key file.
func NewAgeEncryptor(path string) (*AgeEncryptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open age key: %w", err)
	}
	defer f.Close()

	ids, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse age key %s: %w", path, err)
	}
	for _, id := range ids {
		if x, ok := id.(*age.X25519Identity); ok {
			return &AgeEncryptor{identity: x, recipient: x.Recipient()}, nil
		}
	}
	return nil, fmt.Errorf("age key %s: no X25519 identity", path)
}

// NewEphemeralEncryptor creates an encryptor with a fresh in-memory key.
// Data it seals is unreadable after the process exits.
func NewEphemeralEncryptor() (*AgeEncryptor, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generate age identity: %w", err)
	}
	return &AgeEncryptor{identity: id, recipient: id.Recipient()}, nil
}

// GenerateKeyFile writes a new identity to path. It refuses to overwrite an
// existing file.
func GenerateKeyFile(path string) (*AgeEncryptor, error) {
	enc, err := NewEphemeralEncryptor()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create age key: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "# created: %s\n# public key: %s\n%s\n",
		time.Now().UTC().Format(time.RFC3339), enc.recipient, enc.identity)
	if err != nil {
		return nil, fmt.Errorf("write age key: %w", err)
	}
	return enc, nil
}

// EnsureKeyFile loads the identity at path, generating it first if the file
// does not exist.
func EnsureKeyFile(path string) (*AgeEncryptor, error) {
	enc, err := NewAgeEncryptor(path)
	if err == nil {
		return enc, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return GenerateKeyFile(path)
}

// Recipient returns the public key data is encrypted to.
func (e *AgeEncryptor) Recipient() string {
	return e.recipient.String()
}

// Encrypt seals plaintext.
func (e *AgeEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, e.recipient)
	if err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt opens data sealed by Encrypt.
func (e *AgeEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), e.identity)
	if err != nil {
		return nil, fmt.Errorf("age decrypt: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("age decrypt: %w", err)
	}
	return out, nil
}

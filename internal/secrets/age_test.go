package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	enc, err := NewEphemeralEncryptor()
	if err != nil {
		t.Fatal(err)
	}
	plain := []byte("\x89PNG mask bytes")
	sealed, err := enc.Encrypt(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("ciphertext contains plaintext")
	}
	got, err := enc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("got %q", got)
	}

	other, _ := NewEphemeralEncryptor()
	if _, err := other.Decrypt(sealed); err == nil {
		t.Fatal("expected decrypt with a different key to fail")
	}
}

func TestKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "pealink.age")

	created, err := EnsureKeyFile(path)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "# public key: "+created.Recipient()) {
		t.Fatalf("key file missing public key comment:\n%s", data)
	}

	loaded, err := EnsureKeyFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Recipient() != created.Recipient() {
		t.Fatal("reloaded key differs")
	}

	if _, err := GenerateKeyFile(path); err == nil {
		t.Fatal("expected refusal to overwrite key file")
	}
	if _, err := NewAgeEncryptor(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing key")
	}
}

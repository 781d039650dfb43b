package gpg

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

// newSigner generates a throwaway key pair and writes its armored public
// key to a file in a temp dir
func newSigner(t *testing.T) (*openpgp.Entity, string) {
	t.Helper()

	entity, err := openpgp.NewEntity("sqlitefetch test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("Failed to open armor writer: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("Failed to serialize key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close armor writer: %v", err)
	}

	keyPath := filepath.Join(t.TempDir(), "key.asc")
	if err := os.WriteFile(keyPath, buf.Bytes(), 0600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}
	return entity, keyPath
}

func armoredSignature(t *testing.T, signer *openpgp.Entity, content []byte) []byte {
	t.Helper()
	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, signer, bytes.NewReader(content), nil); err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	return sig.Bytes()
}

func binarySignature(t *testing.T, signer *openpgp.Entity, content []byte) []byte {
	t.Helper()
	var sig bytes.Buffer
	if err := openpgp.DetachSign(&sig, signer, bytes.NewReader(content), nil); err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	return sig.Bytes()
}

func serveSignature(t *testing.T, status int, sig []byte) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(sig)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeArtifact(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlite.zip")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}
	return path
}

func TestVerifier_VerifySignature(t *testing.T) {
	signer, keyPath := newSigner(t)
	content := []byte("SQLite format 3 release archive")

	v := NewVerifier(nil)
	if err := v.ImportKeyFromFile(keyPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}
	if v.KeyringSize() != 1 {
		t.Fatalf("KeyringSize() = %d, want 1", v.KeyringSize())
	}

	tests := []struct {
		name string
		sig  []byte
	}{
		{name: "armored", sig: armoredSignature(t, signer, content)},
		{name: "binary", sig: binarySignature(t, signer, content)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := serveSignature(t, http.StatusOK, tt.sig)
			if err := v.VerifySignature(context.Background(), writeArtifact(t, content), ts.URL); err != nil {
				t.Errorf("VerifySignature() error = %v", err)
			}
		})
	}
}

func TestVerifier_VerifySignature_TamperedFile(t *testing.T) {
	signer, keyPath := newSigner(t)
	content := []byte("SQLite format 3 release archive")

	v := NewVerifier(nil)
	if err := v.ImportKeyFromFile(keyPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}

	ts := serveSignature(t, http.StatusOK, armoredSignature(t, signer, content))
	err := v.VerifySignature(context.Background(), writeArtifact(t, []byte("SQLite format 3 release archivE")), ts.URL)
	if err == nil || !strings.Contains(err.Error(), "bad signature") {
		t.Errorf("VerifySignature() error = %v, want bad signature", err)
	}
}

func TestVerifier_VerifySignature_UnknownSigner(t *testing.T) {
	_, keyPath := newSigner(t)
	stranger, _ := newSigner(t)
	content := []byte("payload")

	v := NewVerifier(nil)
	if err := v.ImportKeyFromFile(keyPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}

	ts := serveSignature(t, http.StatusOK, armoredSignature(t, stranger, content))
	if err := v.VerifySignature(context.Background(), writeArtifact(t, content), ts.URL); err == nil {
		t.Error("VerifySignature() accepted a signature from a key outside the keyring")
	}
}

func TestVerifier_VerifySignature_NoKeys(t *testing.T) {
	v := NewVerifier(nil)
	err := v.VerifySignature(context.Background(), writeArtifact(t, []byte("x")), "http://127.0.0.1:0/sig")
	if err == nil || !strings.Contains(err.Error(), "no keys imported") {
		t.Errorf("VerifySignature() error = %v, want no keys imported", err)
	}
}

func TestVerifier_VerifySignature_HTTPStatus(t *testing.T) {
	_, keyPath := newSigner(t)
	v := NewVerifier(nil)
	if err := v.ImportKeyFromFile(keyPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}

	ts := serveSignature(t, http.StatusNotFound, nil)
	err := v.VerifySignature(context.Background(), writeArtifact(t, []byte("x")), ts.URL)

	var httpErr *entities.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("VerifySignature() error = %v, want *entities.HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", httpErr.StatusCode)
	}
}

func TestVerifier_VerifySignature_TooSmall(t *testing.T) {
	_, keyPath := newSigner(t)
	v := NewVerifier(nil)
	if err := v.ImportKeyFromFile(keyPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}

	ts := serveSignature(t, http.StatusOK, []byte("sig"))
	err := v.VerifySignature(context.Background(), writeArtifact(t, []byte("x")), ts.URL)
	if err == nil || !strings.Contains(err.Error(), "too small") {
		t.Errorf("VerifySignature() error = %v, want too small", err)
	}
}

// Test importing key from nonexistent file
func TestVerifier_ImportKeyFromFile_NonexistentFile(t *testing.T) {
	v := NewVerifier(nil)

	err := v.ImportKeyFromFile("/nonexistent/key.asc")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to open key file") {
		t.Errorf("Expected 'failed to open key file' error, got: %v", err)
	}
}

func TestVerifier_ImportKeyFromFile_Garbage(t *testing.T) {
	v := NewVerifier(nil)
	keyPath := filepath.Join(t.TempDir(), "garbage.asc")
	if err := os.WriteFile(keyPath, []byte("not a key"), 0600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}

	err := v.ImportKeyFromFile(keyPath)
	if err == nil {
		t.Fatal("Expected error for garbage key file, got nil")
	}
	if v.KeyringSize() != 0 {
		t.Errorf("KeyringSize() = %d, want 0", v.KeyringSize())
	}
}

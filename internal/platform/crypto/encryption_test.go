package crypto

import (
	"bytes"
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("service should be configured with a key")
	}

	sealed, err := svc.EncryptString("JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, []byte("JBSWY3DP")) {
		t.Fatal("ciphertext leaks plaintext")
	}

	plain, err := svc.DecryptString(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("round trip = %q", plain)
	}
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if svc.Configured() {
		t.Fatal("empty key must leave the service unconfigured")
	}
	sealed, err := svc.EncryptString("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(sealed) != "secret" {
		t.Fatalf("pass-through = %q", sealed)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("too-short"); err == nil {
		t.Fatal("expected an error for a short key")
	}
	raw32 := strings.Repeat("*", 32)
	if _, err := New(raw32); err != nil {
		t.Fatalf("raw 32-byte key rejected: %v", err)
	}
}

func TestDecryptRejectsTruncatedCiphertext(t *testing.T) {
	svc, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := svc.Decrypt([]byte{0x01, 0x02}); err == nil {
		t.Fatal("expected an error for truncated ciphertext")
	}
}

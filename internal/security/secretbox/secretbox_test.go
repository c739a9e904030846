package secretbox

import (
	"encoding/base64"
	"os"
	"strings"
	"testing"
)

func setKey(t *testing.T, seed byte) {
	t.Helper()
	UnsafeResetForTests()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	os.Setenv("SECRETBOX_MASTER_KEY", base64.StdEncoding.EncodeToString(raw))
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	setKey(t, 1)

	msg := "hola mundo ✓ secreto"
	ct, err := Encrypt(msg)
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	if !strings.Contains(ct, "|") {
		t.Fatalf("formato inesperado: %q", ct)
	}
	pt, err := Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt err: %v", err)
	}
	if pt != msg {
		t.Fatalf("plaintext mismatch: got %q want %q", pt, msg)
	}
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	setKey(t, 100)

	ct, err := Encrypt("top secret")
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	parts := strings.Split(ct, "|")
	if len(parts) != 2 {
		t.Fatalf("formato: %q", ct)
	}

	raw, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode ct: %v", err)
	}
	raw[0] ^= 0xFF
	tampered := parts[0] + "|" + base64.StdEncoding.EncodeToString(raw)

	if _, err := Decrypt(tampered); err == nil {
		t.Fatal("expected auth failure on tampered ciphertext")
	}
}

func TestDecrypt_BadFormat(t *testing.T) {
	setKey(t, 7)

	for _, in := range []string{"", "solo-una-parte", "a|b|c", "!!!|###"} {
		if _, err := Decrypt(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestMissingMasterKey(t *testing.T) {
	UnsafeResetForTests()
	os.Unsetenv("SECRETBOX_MASTER_KEY")

	if _, err := Encrypt("x"); err == nil {
		t.Fatal("expected error without master key")
	}
	if Ready() {
		t.Fatal("Ready must be false without master key")
	}
}

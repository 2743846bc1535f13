package utils

import (
	"testing"

	"bookline/config"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-encryption-key"

	tests := []string{
		"hunter2",
		`{"type":"service_account","project_id":"demo"}`,
		"",
	}
	for _, plaintext := range tests {
		enc, err := EncryptString(plaintext)
		if err != nil {
			t.Fatalf("EncryptString(%q) failed: %v", plaintext, err)
		}
		if plaintext != "" && enc == plaintext {
			t.Errorf("ciphertext equals plaintext for %q", plaintext)
		}

		dec, err := DecryptString(enc)
		if err != nil {
			t.Fatalf("DecryptString failed: %v", err)
		}
		if dec != plaintext {
			t.Errorf("round trip changed %q into %q", plaintext, dec)
		}
	}
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-encryption-key"

	a, err := EncryptString("secret")
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncryptString("secret")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext must differ")
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	config.AppConfig.EncryptionKey = "test-encryption-key"

	if _, err := DecryptString("not base64!!!"); err == nil {
		t.Error("expected an error for invalid base64")
	}
	if _, err := DecryptString("c2hvcnQ="); err == nil {
		t.Error("expected an error for truncated ciphertext")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	config.AppConfig.EncryptionKey = "key-one"
	enc, err := EncryptString("secret")
	if err != nil {
		t.Fatal(err)
	}

	config.AppConfig.EncryptionKey = "key-two"
	if _, err := DecryptString(enc); err == nil {
		t.Error("expected decryption to fail under a different key")
	}
}

package session

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if len(key) != 32 {
		t.Errorf("GenerateKey() key length = %d, want 32", len(key))
	}

	key2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if string(key) == string(key2) {
		t.Error("GenerateKey() generated identical keys (should be random)")
	}
}

func TestEncryptor_EncryptDecrypt(t *testing.T) {
	key, _ := GenerateKey()
	enc, err := NewEncryptor(key)
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"refresh token", "1//0gABCDEF-refresh"},
		{"empty string", ""},
		{"special chars", "token!@#$%^&*()_+-={}[]|:;<>?,./"},
		{"unicode", "token_🔐_seguro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := enc.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if tt.plaintext == "" {
				if sealed != "" {
					t.Errorf("Encrypt(\"\") = %q, want empty", sealed)
				}
				return
			}
			if !strings.HasPrefix(sealed, sealedPrefix) {
				t.Errorf("Encrypt() = %q, want %q prefix", sealed, sealedPrefix)
			}
			if strings.Contains(sealed, tt.plaintext) {
				t.Error("ciphertext contains plaintext")
			}

			opened, err := enc.Decrypt(sealed)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if opened != tt.plaintext {
				t.Errorf("Decrypt() = %q, want %q", opened, tt.plaintext)
			}
		})
	}
}

func TestEncryptor_NonceIsRandom(t *testing.T) {
	key, _ := GenerateKey()
	enc, _ := NewEncryptor(key)

	a, _ := enc.Encrypt("same")
	b, _ := enc.Encrypt("same")
	if a == b {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestEncryptor_WrongKey(t *testing.T) {
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()
	enc1, _ := NewEncryptor(key1)
	enc2, _ := NewEncryptor(key2)

	sealed, _ := enc1.Encrypt("secret")
	if _, err := enc2.Decrypt(sealed); err == nil {
		t.Error("Decrypt() with wrong key should fail")
	}
}

func TestEncryptor_Tampered(t *testing.T) {
	key, _ := GenerateKey()
	enc, _ := NewEncryptor(key)

	if _, err := enc.Decrypt(sealedPrefix + "not-base64!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := enc.Decrypt(sealedPrefix + base64.StdEncoding.EncodeToString([]byte("abc"))); err == nil {
		t.Error("expected error for short ciphertext")
	}
}

func TestNewEncryptor_InvalidKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33} {
		if _, err := NewEncryptor(make([]byte, size)); err == nil {
			t.Errorf("NewEncryptor() with %d byte key should fail", size)
		}
	}
}

func TestKeyFromBase64(t *testing.T) {
	key, err := KeyFromBase64("")
	if err != nil || key != nil {
		t.Errorf("KeyFromBase64(\"\") = %v, %v; want nil, nil", key, err)
	}

	generated, _ := GenerateKey()
	key, err = KeyFromBase64(base64.StdEncoding.EncodeToString(generated))
	if err != nil {
		t.Fatalf("KeyFromBase64() error = %v", err)
	}
	if string(key) != string(generated) {
		t.Error("KeyFromBase64() did not round-trip the key")
	}

	if _, err := KeyFromBase64(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("expected error for short key")
	}
	if _, err := KeyFromBase64("%%%"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

package adaptive

import (
	"bytes"
	"testing"
)

var key32 = make([]byte, KeySize)

func init() {
	for i := range key32 {
		key32[i] = byte(i)
	}
}

func TestNew(t *testing.T) {
	c, err := New(key32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Type() != Preferred() {
		t.Errorf("New() type = %s, want %s", c.Type(), Preferred())
	}
}

func TestNewWithType(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		typ     CipherType
		wantErr bool
	}{
		{"aes-gcm", key32, CipherAESGCM, false},
		{"chacha20", key32, CipherChaCha20, false},
		{"unknown", key32, "rot13", true},
		{"short key", key32[:16], CipherAESGCM, true},
		{"nil key", nil, CipherChaCha20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWithType(tt.key, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWithType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && c.Type() != tt.typ {
				t.Errorf("Type() = %s, want %s", c.Type(), tt.typ)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			c, _ := NewWithType(key32, typ)
			plaintext := []byte("opaque-credential")
			aad := []byte("slot")

			ct, err := c.Encrypt(plaintext, aad)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(ct) != c.NonceSize()+len(plaintext)+c.Overhead() {
				t.Errorf("ciphertext length = %d", len(ct))
			}

			got, err := c.Decrypt(ct, aad)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("Decrypt() = %q, want %q", got, plaintext)
			}

			if _, err := c.Decrypt(ct, []byte("other")); err == nil {
				t.Error("Decrypt() with wrong additional data should fail")
			}
			if _, err := c.Decrypt(ct[:3], aad); err != ErrCiphertextTooShort {
				t.Errorf("Decrypt(short) error = %v", err)
			}
		})
	}
}

func TestEncrypt_NonceUnique(t *testing.T) {
	c, _ := New(key32)
	a, _ := c.Encrypt([]byte("x"), nil)
	b, _ := c.Encrypt([]byte("x"), nil)
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

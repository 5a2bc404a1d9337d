package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/crypto/hkdf"

	"deusvent/internal/wire"
)

const keyInfo = "ephemeral-key"

// EncryptedString is text encrypted with a key derived from a private key.
type EncryptedString struct {
	data []byte
	salt []byte
}

// Encrypt encrypts plaintext so only the owner of priv can decrypt it.
func Encrypt(plaintext string, priv *PrivateKey) (*EncryptedString, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	aead, err := newAEAD(priv, salt)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	// The salt is unique per string, so it doubles as the nonce.
	data := aead.Seal(nil, salt, []byte(plaintext), nil)
	return &EncryptedString{data: data, salt: salt}, nil
}

// Decrypt returns the plaintext. Any failure is reported as ErrInvalidData.
func (s *EncryptedString) Decrypt(priv *PrivateKey) (string, error) {
	if len(s.salt) != SaltSize {
		return "", fmt.Errorf("%w: salt must be %d bytes", ErrInvalidData, SaltSize)
	}
	aead, err := newAEAD(priv, s.salt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	plain, err := aead.Open(nil, s.salt, s.data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrInvalidData)
	}
	return string(plain), nil
}

// Salt returns a copy of the salt.
func (s *EncryptedString) Salt() []byte { return append([]byte(nil), s.salt...) }

// Equal compares ciphertext and salt.
func (s *EncryptedString) Equal(other *EncryptedString) bool {
	return other != nil && string(s.data) == string(other.data) && string(s.salt) == string(other.salt)
}

func (s *EncryptedString) MarshalWire(e *wire.Encoder) {
	e.Raw(s.data)
	e.Raw(s.salt)
}

func (s *EncryptedString) UnmarshalWire(d *wire.Decoder) error {
	s.data = d.Raw()
	s.salt = d.Raw()
	return d.Err()
}

func newAEAD(priv *PrivateKey, salt []byte) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, priv.Bytes(), salt, []byte(keyInfo)), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, SaltSize)
}

// SafeString is a string players may decide to encrypt when it holds
// sensitive data. Exactly one of the two forms is set.
type SafeString struct {
	encrypted *EncryptedString
	plaintext string
}

const (
	safeStringEncrypted uint64 = 0
	safeStringPlaintext uint64 = 1
)

// Encrypted wraps an encrypted value.
func Encrypted(s *EncryptedString) SafeString { return SafeString{encrypted: s} }

// Plaintext wraps a value stored as is.
func Plaintext(s string) SafeString { return SafeString{plaintext: s} }

// IsEncrypted reports whether the value is encrypted.
func (s SafeString) IsEncrypted() bool { return s.encrypted != nil }

// EncryptedValue returns the encrypted value, nil for plaintext.
func (s SafeString) EncryptedValue() *EncryptedString { return s.encrypted }

// PlaintextValue returns the plaintext value, empty when encrypted.
func (s SafeString) PlaintextValue() string { return s.plaintext }

// Reveal returns the readable value, decrypting with priv when needed.
func (s SafeString) Reveal(priv *PrivateKey) (string, error) {
	if s.encrypted == nil {
		return s.plaintext, nil
	}
	if priv == nil {
		return "", fmt.Errorf("%w: private key required", ErrInvalidData)
	}
	return s.encrypted.Decrypt(priv)
}

// Equal compares both forms.
func (s SafeString) Equal(other SafeString) bool {
	if s.encrypted == nil || other.encrypted == nil {
		return s.encrypted == nil && other.encrypted == nil && s.plaintext == other.plaintext
	}
	return s.encrypted.Equal(other.encrypted)
}

func (s SafeString) MarshalWire(e *wire.Encoder) {
	if s.encrypted != nil {
		e.Uint64(safeStringEncrypted)
		s.encrypted.MarshalWire(e)
		return
	}
	e.Uint64(safeStringPlaintext)
	e.String(s.plaintext)
}

func (s *SafeString) UnmarshalWire(d *wire.Decoder) error {
	switch v := d.Uint64(); v {
	case safeStringEncrypted:
		enc := &EncryptedString{}
		if err := enc.UnmarshalWire(d); err != nil {
			return err
		}
		*s = Encrypted(enc)
	case safeStringPlaintext:
		*s = Plaintext(d.String())
	default:
		if d.Err() != nil {
			return d.Err()
		}
		return errors.New("safe string: unknown variant")
	}
	return d.Err()
}

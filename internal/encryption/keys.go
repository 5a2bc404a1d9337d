// Package encryption provides the player keys, message signatures and the
// encrypted strings players use for sensitive data.
//
// Keys are NIST P-256. Signatures are ECDSA over SHA-256 serialized as a
// fixed 64 byte r||s pair. Encrypted strings use AES-256-GCM with a key
// derived from the private key, so only the owner can read them back.
package encryption

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"deusvent/internal/encoding"
)

const (
	// PublicKeySize is the size of a compressed public key.
	PublicKeySize = 33
	// PrivateKeySize is the size of a private key scalar.
	PrivateKeySize = 32
	// SignatureSize is the size of a serialized signature.
	SignatureSize = 64
	// SaltSize is the size of the salt stored with every encrypted string.
	SaltSize = 12
)

// ErrInvalidData is returned when keys or encrypted payloads can't be used.
var ErrInvalidData = errors.New("invalid data")

// PrivateKey is used for signing and decryption.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// PublicKey identifies a player, verifies signatures.
type PublicKey struct {
	key *ecdsa.PublicKey
}

// Keys is a matching pair of keys.
type Keys struct {
	Public  *PublicKey
	Private *PrivateKey
}

// GenerateKeys creates a new random key pair.
func GenerateKeys() (Keys, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return Keys{}, fmt.Errorf("generate keys: %w", err)
	}
	priv := &PrivateKey{key: key}
	return Keys{Public: priv.Public(), Private: priv}, nil
}

// ParsePrivateKey restores a private key from PrivateKeySize bytes.
func ParsePrivateKey(data []byte) (*PrivateKey, error) {
	if len(data) != PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes", ErrInvalidData, PrivateKeySize)
	}
	key, err := ecdsa.ParseRawPrivateKey(elliptic.P256(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &PrivateKey{key: key}, nil
}

// Bytes returns the private key scalar.
func (k *PrivateKey) Bytes() []byte {
	b, err := k.key.Bytes()
	if err != nil {
		// Only keys on unsupported curves fail here.
		panic(err)
	}
	return b
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{key: &k.key.PublicKey}
}

// ParsePublicKey restores a public key from its compressed form.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	if len(data) != PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes", ErrInvalidData, PublicKeySize)
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), data)
	if x == nil {
		return nil, fmt.Errorf("%w: public key is not a curve point", ErrInvalidData)
	}
	uncompressed := make([]byte, 1+2*32)
	uncompressed[0] = 4
	x.FillBytes(uncompressed[1:33])
	y.FillBytes(uncompressed[33:])
	key, err := ecdsa.ParseUncompressedPublicKey(elliptic.P256(), uncompressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &PublicKey{key: key}, nil
}

// Bytes returns the compressed SEC1 point.
func (k *PublicKey) Bytes() []byte {
	uncompressed, err := k.key.Bytes()
	if err != nil {
		panic(err)
	}
	out := make([]byte, PublicKeySize)
	out[0] = 2 | uncompressed[len(uncompressed)-1]&1
	copy(out[1:], uncompressed[1:33])
	return out
}

// String returns the Base94 encoded compressed key.
func (k *PublicKey) String() string {
	return encoding.EncodeBase94(k.Bytes())
}

// Equal reports whether both keys are the same point.
func (k *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && k.key.Equal(other.key)
}

// Sign signs data with the private key, returning SignatureSize bytes.
func Sign(data []byte, priv *PrivateKey) ([]byte, error) {
	digest := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, priv.key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	sig := make([]byte, SignatureSize)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// Verify checks the signature of data. Malformed signatures don't verify.
func Verify(data []byte, pub *PublicKey, sig []byte) bool {
	if pub == nil || len(sig) != SignatureSize {
		return false
	}
	digest := sha256.Sum256(data)
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pub.key, digest[:], r, s)
}

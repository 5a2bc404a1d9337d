package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deusvent/internal/encoding"
	"deusvent/internal/wire"
)

func mustKeys(t *testing.T) Keys {
	t.Helper()
	keys, err := GenerateKeys()
	require.NoError(t, err)
	return keys
}

func TestGenerateKeys(t *testing.T) {
	keys := mustKeys(t)
	assert.Len(t, keys.Private.Bytes(), PrivateKeySize)
	assert.Len(t, keys.Public.Bytes(), PublicKeySize)
	assert.True(t, keys.Public.Equal(keys.Private.Public()))
}

func TestKeysRoundTrip(t *testing.T) {
	keys := mustKeys(t)

	priv, err := ParsePrivateKey(keys.Private.Bytes())
	require.NoError(t, err)
	assert.Equal(t, keys.Private.Bytes(), priv.Bytes())

	pub, err := ParsePublicKey(keys.Public.Bytes())
	require.NoError(t, err)
	assert.True(t, keys.Public.Equal(pub))
	assert.Equal(t, keys.Public.Bytes(), pub.Bytes())

	decoded, err := encoding.DecodeBase94(pub.String())
	require.NoError(t, err)
	assert.Equal(t, pub.Bytes(), decoded)
}

func TestParseKeysRejectsInvalidData(t *testing.T) {
	_, err := ParsePrivateKey(make([]byte, PrivateKeySize))
	assert.ErrorIs(t, err, ErrInvalidData)
	_, err = ParsePrivateKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = ParsePublicKey(make([]byte, PublicKeySize))
	assert.ErrorIs(t, err, ErrInvalidData)
	_, err = ParsePublicKey([]byte{2})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestSignVerify(t *testing.T) {
	payload := []byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	keys := mustKeys(t)

	sig, err := Sign(payload, keys.Private)
	require.NoError(t, err)
	assert.Len(t, sig, SignatureSize)
	assert.True(t, Verify(payload, keys.Public, sig))

	assert.False(t, Verify(append(payload, 1), keys.Public, sig))
	assert.False(t, Verify(payload, mustKeys(t).Public, sig))
	assert.False(t, Verify(payload, keys.Public, sig[:10]))
	assert.False(t, Verify(payload, keys.Public, make([]byte, SignatureSize)))
	assert.False(t, Verify(payload, nil, sig))
}

func TestEncryptedString(t *testing.T) {
	keys := mustKeys(t)
	encrypted, err := Encrypt("foo", keys.Private)
	require.NoError(t, err)
	assert.Len(t, encrypted.Salt(), SaltSize)

	decrypted, err := encrypted.Decrypt(keys.Private)
	require.NoError(t, err)
	assert.Equal(t, "foo", decrypted)

	_, err = encrypted.Decrypt(mustKeys(t).Private)
	assert.ErrorIs(t, err, ErrInvalidData)

	tampered := &EncryptedString{data: append([]byte(nil), encrypted.data...), salt: encrypted.salt}
	tampered.data[0] ^= 0xff
	_, err = tampered.Decrypt(keys.Private)
	assert.ErrorIs(t, err, ErrInvalidData)

	badSalt := &EncryptedString{data: encrypted.data, salt: encrypted.salt[:5]}
	_, err = badSalt.Decrypt(keys.Private)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestEncryptedStringRejectsNonUTF8(t *testing.T) {
	keys := mustKeys(t)
	salt := make([]byte, SaltSize)
	aead, err := newAEAD(keys.Private, salt)
	require.NoError(t, err)
	s := &EncryptedString{data: aead.Seal(nil, salt, []byte{0xff, 0xfe}, nil), salt: salt}
	_, err = s.Decrypt(keys.Private)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestSafeStringWire(t *testing.T) {
	keys := mustKeys(t)
	encrypted, err := Encrypt("secret name", keys.Private)
	require.NoError(t, err)

	for _, in := range []SafeString{Plaintext("Alice"), Plaintext(""), Encrypted(encrypted)} {
		var out SafeString
		require.NoError(t, wire.Unmarshal(wire.Marshal(in), &out))
		assert.True(t, in.Equal(out))
	}

	var out SafeString
	require.NoError(t, wire.Unmarshal(wire.Marshal(Encrypted(encrypted)), &out))
	revealed, err := out.Reveal(keys.Private)
	require.NoError(t, err)
	assert.Equal(t, "secret name", revealed)

	_, err = out.Reveal(nil)
	assert.ErrorIs(t, err, ErrInvalidData)

	assert.Error(t, wire.Unmarshal([]byte{7}, &out))
}

func TestSafeStringPlaintextLayout(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 'h', 'i'}, wire.Marshal(Plaintext("hi")))
}

package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key := DeriveKey("test-passphrase")
	plaintext := []byte(`{"refreshToken":"refresh-1"}`)

	encrypted, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, string(plaintext), encrypted)

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	key := DeriveKey("test-passphrase")

	first, err := Encrypt([]byte("same value"), key)
	require.NoError(t, err)
	second, err := Encrypt([]byte("same value"), key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptWithWrongKey(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), DeriveKey("right-key"))
	require.NoError(t, err)

	_, err = Decrypt(encrypted, DeriveKey("wrong-key"))
	assert.Error(t, err)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key := DeriveKey("test-passphrase")
	encrypted, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = Decrypt(base64.StdEncoding.EncodeToString(raw), key)
	assert.Error(t, err)
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	_, err := Decrypt(base64.StdEncoding.EncodeToString([]byte("short")), DeriveKey("key"))
	assert.Error(t, err)
}

func TestDeriveKeyLength(t *testing.T) {
	assert.Len(t, DeriveKey("short"), 32)
	assert.Len(t, DeriveKey("a much longer passphrase than thirty-two bytes in total"), 32)
}

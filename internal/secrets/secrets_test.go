package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := Encrypt("super-secret-token", "hunter2")
	require.NoError(t, err)

	plaintext, err := Decrypt(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "super-secret-token", plaintext)
}

func TestDecrypt_WrongPassword(t *testing.T) {
	blob, err := Encrypt("super-secret-token", "hunter2")
	require.NoError(t, err)

	_, err = Decrypt(blob, "wrong")
	assert.ErrorContains(t, err, "decryption failed")
}

func TestEncrypt_UniqueSaltAndNonce(t *testing.T) {
	a, err := Encrypt("same-secret", "same-password")
	require.NoError(t, err)
	b, err := Encrypt("same-secret", "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, string(a), string(b))
}

func TestEncrypt_Validation(t *testing.T) {
	_, err := Encrypt("", "pw")
	assert.Error(t, err)

	_, err = Encrypt("secret", "")
	assert.Error(t, err)
}

func TestDecrypt_BadInput(t *testing.T) {
	_, err := Decrypt([]byte("not json"), "pw")
	assert.Error(t, err)

	_, err = Decrypt([]byte(`{"version":99}`), "pw")
	assert.ErrorContains(t, err, "unsupported version")
}

func TestLoadSecret_RawWins(t *testing.T) {
	got, err := LoadSecret(SecretConfig{Raw: "plain", EncryptedPath: "/nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, "plain", got)
}

func TestLoadSecret_FromEncryptedFile(t *testing.T) {
	blob, err := Encrypt("file-secret", "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := LoadSecret(SecretConfig{EncryptedPath: path, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "file-secret", got)
}

func TestLoadSecret_NoSource(t *testing.T) {
	_, err := LoadSecret(SecretConfig{})
	assert.Error(t, err)
}

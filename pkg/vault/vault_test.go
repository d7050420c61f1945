package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundtrip(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	creds := Credentials{Username: "poster", Password: "hunter2"}

	blob, err := v.EncryptCredentials(creds)
	require.NoError(t, err)
	assert.NotEmpty(t, blob)

	got, err := v.DecryptCredentials(blob)
	require.NoError(t, err)
	assert.Equal(t, creds, got)
}

func TestEncryptProducesUniqueBlobs(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	creds := Credentials{Username: "poster", Password: "hunter2"}

	a, err := v.EncryptCredentials(creds)
	require.NoError(t, err)
	b, err := v.EncryptCredentials(creds)
	require.NoError(t, err)

	// Fresh nonce each time.
	assert.NotEqual(t, a, b)
}

func TestDecryptWithWrongKey(t *testing.T) {
	v1, err := New(testKey)
	require.NoError(t, err)
	v2, err := New([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	blob, err := v1.EncryptCredentials(Credentials{Username: "poster", Password: "hunter2"})
	require.NoError(t, err)

	_, err = v2.DecryptCredentials(blob)
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestDecryptTamperedBlob(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	blob, err := v.EncryptCredentials(Credentials{Username: "poster", Password: "hunter2"})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = v.DecryptCredentials(tampered)
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestDecryptGarbage(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	_, err = v.DecryptCredentials("not base64 at all!!!")
	assert.ErrorIs(t, err, ErrCrypto)

	_, err = v.DecryptCredentials(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestNewRejectsBadKeyLength(t *testing.T) {
	_, err := New([]byte("too short"))
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}

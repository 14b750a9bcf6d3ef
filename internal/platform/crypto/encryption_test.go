package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecryptString(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	require.True(t, svc.Configured())

	sealed, err := svc.EncryptString("1234567890123")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "1234567890123")

	again, err := svc.EncryptString("1234567890123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := svc.DecryptString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "1234567890123", plain)
}

func TestDecryptRejectsTampering(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)

	sealed, err := svc.EncryptString("SSN-001")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = svc.DecryptString(sealed)
	assert.Error(t, err)

	_, err = svc.Decrypt([]byte("short"))
	assert.Error(t, err)
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	assert.False(t, svc.Configured())

	out, err := svc.EncryptString("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}

func TestNewRejectsWrongKeySize(t *testing.T) {
	_, err := New(strings.Repeat("a", 10))
	assert.Error(t, err)
}

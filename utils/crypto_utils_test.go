package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureAndVerify(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	message := []byte("Hello World!")
	sig := Sign(message, sk)
	assert.True(t, Verify(message, pk, sig))
	assert.False(t, Verify([]byte("Hello World?"), pk, sig))
	assert.False(t, Verify(message, pk, []byte("garbage")))
}

func TestAddressRoundTrip(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	addr := PublicKeyToAddress(pk)
	parsed, err := AddressToPublicKey(addr)
	require.NoError(t, err)
	assert.True(t, pk.IsEqual(parsed))

	_, err = AddressToPublicKey("zz")
	assert.Error(t, err)
	_, err = AddressToPublicKey("00ab")
	assert.Error(t, err)
}

func TestPrivateKeyBytes(t *testing.T) {
	sk, _, err := GenerateKeyPair()
	require.NoError(t, err)

	parsed, err := BytesToPrivateKey(PrivateKeyToBytes(sk))
	require.NoError(t, err)
	assert.Equal(t, PublicKeyToAddress(sk.PubKey()), PublicKeyToAddress(parsed.PubKey()))

	_, err = BytesToPrivateKey([]byte{1, 2, 3})
	assert.Error(t, err)
}

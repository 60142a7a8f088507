package crypto_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/utils/unittest"
)

func TestSignAndRecover(t *testing.T) {
	key := unittest.KeyFixture(t)
	digest := unittest.HashFixture()

	sig, err := key.SignMessage(digest)
	require.NoError(t, err)
	require.Len(t, sig, crypto.SignatureLength)
	assert.Contains(t, []byte{27, 28}, sig[64])

	signer, err := crypto.RecoverMessageSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), signer)

	ok, err := crypto.VerifyMessage(digest, sig, key.Address())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecover_AcceptsRawRecoveryID(t *testing.T) {
	key := unittest.KeyFixture(t)
	digest := unittest.HashFixture()

	sig, err := key.SignMessage(digest)
	require.NoError(t, err)
	sig[64] -= 27

	signer, err := crypto.RecoverMessageSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), signer)
}

func TestRecover_OtherDigest(t *testing.T) {
	key := unittest.KeyFixture(t)

	sig, err := key.SignMessage(unittest.HashFixture())
	require.NoError(t, err)

	ok, err := crypto.VerifyMessage(unittest.HashFixture(), sig, key.Address())
	// recovery may succeed with an unrelated address or fail outright
	if err == nil {
		assert.False(t, ok)
	}
}

func TestRecover_Malformed(t *testing.T) {
	digest := unittest.HashFixture()

	t.Run("empty", func(t *testing.T) {
		_, err := crypto.RecoverMessageSigner(digest, nil)
		require.ErrorIs(t, err, crypto.ErrInvalidSignatureLength)
	})

	t.Run("short", func(t *testing.T) {
		_, err := crypto.RecoverMessageSigner(digest, make([]byte, 64))
		require.ErrorIs(t, err, crypto.ErrInvalidSignatureLength)
	})

	t.Run("bad recovery id", func(t *testing.T) {
		sig, err := unittest.KeyFixture(t).SignMessage(digest)
		require.NoError(t, err)
		sig[64] = 35
		_, err = crypto.RecoverMessageSigner(digest, sig)
		require.ErrorIs(t, err, crypto.ErrInvalidRecoveryID)
	})

	t.Run("zero values", func(t *testing.T) {
		sig := make([]byte, crypto.SignatureLength)
		sig[64] = 27
		_, err := crypto.RecoverMessageSigner(digest, sig)
		require.ErrorIs(t, err, crypto.ErrInvalidSignatureValues)
	})
}

func TestPrivateKeyHexRoundTrip(t *testing.T) {
	key := unittest.KeyFixture(t)

	decoded, err := crypto.DecodePrivateKeyHex(key.Hex())
	require.NoError(t, err)
	assert.Equal(t, key.Address(), decoded.Address())

	_, err = crypto.DecodePrivateKeyHex("not a key")
	require.Error(t, err)
}

func TestPrivateKeyFromSeed(t *testing.T) {
	a, err := crypto.PrivateKeyFromSeed([]byte("signer"))
	require.NoError(t, err)
	b, err := crypto.PrivateKeyFromSeed([]byte("signer"))
	require.NoError(t, err)
	c, err := crypto.PrivateKeyFromSeed([]byte("guardian"))
	require.NoError(t, err)

	assert.Equal(t, a.Address(), b.Address())
	assert.NotEqual(t, a.Address(), c.Address())
	assert.NotEqual(t, common.Address{}, a.Address())
}

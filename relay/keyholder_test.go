package relay_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/relay"
	"github.com/dualsig/wallet-relay/utils/unittest"
)

func signatureRequest(acct common.Address, action wallet.Action, nonce uint64, role wallet.Role) relay.SignatureRequest {
	return relay.SignatureRequest{
		ID:     uuid.New(),
		Wallet: acct,
		Role:   role,
		Action: action,
		Nonce:  nonce,
		Digest: action.Message(acct, nonce),
	}
}

func TestLocalKeyHolder(t *testing.T) {
	key := unittest.KeyFixture(t)
	holder := relay.NewLocalKeyHolder(key)
	assert.Equal(t, key.Address(), holder.Address())

	acct := unittest.AddressFixture()
	req := signatureRequest(acct, wallet.CancelEscape(), 2, wallet.RoleSigner)

	t.Run("signs the canonical message", func(t *testing.T) {
		sig, err := holder.Sign(context.Background(), req)
		require.NoError(t, err)

		valid, err := crypto.VerifyMessage(req.Digest, sig, key.Address())
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("refuses a digest it cannot rebuild", func(t *testing.T) {
		tampered := req
		tampered.Digest = unittest.HashFixture()
		_, err := holder.Sign(context.Background(), tampered)
		assert.Error(t, err)

		stale := req
		stale.Nonce = 1
		_, err = holder.Sign(context.Background(), stale)
		assert.Error(t, err)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := holder.Sign(ctx, req)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestChannelKeyHolder(t *testing.T) {
	key := unittest.KeyFixture(t)
	holder := relay.NewChannelKeyHolder(key.Address())
	acct := unittest.AddressFixture()
	req := signatureRequest(acct, wallet.TriggerEscape(key.Address()), 0, wallet.RoleGuardian)

	t.Run("handshake", func(t *testing.T) {
		go func() {
			received := <-holder.Requests()
			sig, err := key.SignMessage(received.Digest)
			if err != nil {
				holder.Respond(relay.SignatureResponse{ID: received.ID, Err: err})
				return
			}
			holder.Respond(relay.SignatureResponse{ID: received.ID, Signature: sig})
		}()

		var sig wallet.Signature
		var err error
		unittest.RequireReturnsBefore(t, func() {
			sig, err = holder.Sign(context.Background(), req)
		}, time.Second)
		require.NoError(t, err)

		valid, err := crypto.VerifyMessage(req.Digest, sig, key.Address())
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("declined", func(t *testing.T) {
		declined := errors.New("declined by user")
		go func() {
			received := <-holder.Requests()
			holder.Respond(relay.SignatureResponse{ID: received.ID, Err: declined})
		}()

		_, err := holder.Sign(context.Background(), req)
		assert.ErrorIs(t, err, declined)
	})

	t.Run("unanswered request is abandoned", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		received := make(chan relay.SignatureRequest, 1)
		go func() {
			received <- <-holder.Requests()
		}()

		_, err := holder.Sign(ctx, req)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		// a late answer is dropped
		late := <-received
		assert.False(t, holder.Respond(relay.SignatureResponse{ID: late.ID}))
	})

	t.Run("unknown response", func(t *testing.T) {
		assert.False(t, holder.Respond(relay.SignatureResponse{ID: uuid.New()}))
	})
}

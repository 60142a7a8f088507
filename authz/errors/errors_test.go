package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/utils/unittest"
)

func TestErrorHandling(t *testing.T) {
	require.False(t, IsInvalidNonceError(nil))

	e1 := NewInvalidSignatureErrorf(wallet.RoleGuardian, "wrong key")
	e2 := fmt.Errorf("apply failed: %w", e1)
	e3 := NewCallFailedError(unittest.AddressFixture(), e2)

	require.True(t, IsInvalidSignatureError(e1))
	require.True(t, IsInvalidSignatureError(e2))
	require.True(t, IsInvalidSignatureError(e3))
	require.True(t, IsCallFailedError(e3))
	require.False(t, IsCallFailedError(e2))

	// outermost coded error wins
	found := Find(e3)
	require.NotNil(t, found)
	require.Equal(t, ErrCodeCallFailedError, found.Code())

	require.Nil(t, Find(fmt.Errorf("plain")))
	require.Nil(t, Find(nil))
}

func TestMessages(t *testing.T) {
	err := NewInvalidNonceError(unittest.AddressFixture(), 3, 2)
	require.Contains(t, err.Error(), "[Error Code: 1101]")
	require.Contains(t, err.Error(), "expected 3, got 2")
	require.NotContains(t, Message(err), "Error Code")

	err = NewNullTargetErrorf("_newSigner", "key rotation needs a key")
	require.Contains(t, err.Error(), "null _newSigner")
	require.True(t, IsNullTargetError(err))

	err = NewEscapeAlreadyPendingError(wallet.Escape{ActivationTime: 10, InitiatedBy: wallet.RoleSigner})
	require.Contains(t, err.Error(), "initiated by signer")
}

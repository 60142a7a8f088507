package authz_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/authz"
	autherrors "github.com/dualsig/wallet-relay/authz/errors"
	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module/metrics"
	bstorage "github.com/dualsig/wallet-relay/storage/badger"
	"github.com/dualsig/wallet-relay/utils/unittest"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []wallet.Call
	fail  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, call wallet.Call) (*authz.CallResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return nil, d.fail
	}
	d.calls = append(d.calls, call)
	return &authz.CallResult{ReturnData: []byte{0x2a}, GasUsed: 1_000}, nil
}

type fixture struct {
	engine     *authz.Engine
	dispatcher *recordingDispatcher
	signer     *crypto.PrivateKey
	guardian   *crypto.PrivateKey
	wallet     common.Address
	now        time.Time
}

func withEngine(t *testing.T, f func(fx *fixture), opts ...authz.Option) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		disp := &recordingDispatcher{}
		engine := authz.New(unittest.Logger(), bstorage.NewAccounts(db), disp, metrics.NewNoopCollector(), opts...)

		signer := unittest.NamedKey(t, "S0")
		guardian := unittest.NamedKey(t, "G0")
		acct, err := engine.Deploy(context.Background(), unittest.WalletConfigFixture(signer, guardian, unittest.AddressFixture()))
		require.NoError(t, err)

		f(&fixture{
			engine:     engine,
			dispatcher: disp,
			signer:     signer,
			guardian:   guardian,
			wallet:     acct.Address,
			now:        time.Unix(1_700_000_000, 0),
		})
	})
}

func (fx *fixture) pair(t *testing.T, action wallet.Action, nonce uint64) wallet.SignaturePair {
	return unittest.SignPair(t, fx.wallet, action, nonce, fx.signer, fx.guardian)
}

func (fx *fixture) sign(t *testing.T, key *crypto.PrivateKey, action wallet.Action, nonce uint64) wallet.Signature {
	return unittest.Sign(t, key, action.Message(fx.wallet, nonce))
}

func (fx *fixture) account(t *testing.T) *wallet.Account {
	acct, err := fx.engine.Account(context.Background(), fx.wallet)
	require.NoError(t, err)
	return acct
}

func TestDeploy(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()

		acct := fx.account(t)
		assert.Equal(t, fx.signer.Address(), acct.Signer)
		assert.Equal(t, fx.guardian.Address(), acct.Guardian)
		assert.Equal(t, uint64(0), acct.Nonce)
		assert.False(t, acct.Escape.Pending())

		t.Run("same configuration twice", func(t *testing.T) {
			cfg := wallet.Config{Signer: acct.Signer, Guardian: acct.Guardian, EntryPoint: acct.EntryPoint}
			_, err := fx.engine.Deploy(ctx, cfg)
			assert.True(t, autherrors.IsAccountAlreadyExistsError(err), err)
		})

		t.Run("zero keys", func(t *testing.T) {
			_, err := fx.engine.Deploy(ctx, wallet.Config{Guardian: fx.guardian.Address()})
			assert.True(t, autherrors.IsNullTargetError(err))
			_, err = fx.engine.Deploy(ctx, wallet.Config{Signer: fx.signer.Address()})
			assert.True(t, autherrors.IsNullTargetError(err))
		})

		t.Run("unknown wallet", func(t *testing.T) {
			_, err := fx.engine.Nonce(ctx, unittest.AddressFixture())
			assert.True(t, autherrors.IsAccountNotFoundError(err))
		})
	})
}

func TestSignedMessage(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		action := wallet.Execute(unittest.AddressFixture(), big.NewInt(5), []byte{0xde, 0xad})
		digest, err := fx.engine.SignedMessage(context.Background(), fx.wallet, action, 3)
		require.NoError(t, err)
		assert.Equal(t, wallet.SignedMessage(fx.wallet, action.Target, action.Value, action.Data, 3), digest)
	})
}

func TestExecute(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		target := unittest.AddressFixture()
		data := []byte{0x06, 0x66, 0x1a, 0xbd}
		action := wallet.Execute(target, big.NewInt(0), data)

		res, err := fx.engine.Execute(ctx, fx.wallet, target, big.NewInt(0), data, fx.pair(t, action, 0), 0, fx.now)
		require.NoError(t, err)

		assert.True(t, res.NonceConsumed)
		assert.Equal(t, uint64(1), res.Account.Nonce)
		assert.Equal(t, []byte{0x2a}, res.ReturnData)
		assert.Greater(t, res.GasUsed, uint64(1_000))
		require.Len(t, fx.dispatcher.calls, 1)
		assert.Equal(t, fx.wallet, fx.dispatcher.calls[0].From)
		assert.Equal(t, target, fx.dispatcher.calls[0].To)
		assert.Equal(t, data, fx.dispatcher.calls[0].Data)

		require.Len(t, res.Events, 1)
		assert.Equal(t, wallet.EventExecuted, res.Events[0].Type)

		nonce, err := fx.engine.Nonce(ctx, fx.wallet)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), nonce)

		t.Run("replay is rejected", func(t *testing.T) {
			_, err := fx.engine.Execute(ctx, fx.wallet, target, big.NewInt(0), data, fx.pair(t, action, 0), 0, fx.now)
			assert.True(t, autherrors.IsInvalidNonceError(err))
			assert.Len(t, fx.dispatcher.calls, 1)
		})
	})
}

func TestExecuteCallFailed(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		fx.dispatcher.fail = fmt.Errorf("reverted")
		target := unittest.AddressFixture()
		action := wallet.Execute(target, nil, nil)

		_, err := fx.engine.Execute(context.Background(), fx.wallet, target, nil, nil, fx.pair(t, action, 0), 0, fx.now)
		assert.True(t, autherrors.IsCallFailedError(err))

		// the nonce is not consumed by a reverted action
		assert.Equal(t, uint64(0), fx.account(t).Nonce)
	})
}

func TestNullTarget(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		zero := common.Address{}

		action := wallet.Execute(zero, nil, nil)
		_, err := fx.engine.Execute(ctx, fx.wallet, zero, nil, nil, fx.pair(t, action, 0), 0, fx.now)
		assert.True(t, autherrors.IsNullTargetError(err))

		_, err = fx.engine.ChangeSigner(ctx, fx.wallet, zero, fx.pair(t, wallet.ChangeSigner(zero), 0), 0, fx.now)
		assert.True(t, autherrors.IsNullTargetError(err))

		_, err = fx.engine.ChangeGuardian(ctx, fx.wallet, zero, fx.pair(t, wallet.ChangeGuardian(zero), 0), 0, fx.now)
		assert.True(t, autherrors.IsNullTargetError(err))

		// null check runs before the nonce check
		_, err = fx.engine.ChangeSigner(ctx, fx.wallet, zero, wallet.SignaturePair{}, 7, fx.now)
		assert.True(t, autherrors.IsNullTargetError(err))

		assert.Equal(t, uint64(0), fx.account(t).Nonce)
	})
}

func TestInvalidSignatures(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		newSigner := unittest.NamedKey(t, "S1").Address()
		action := wallet.ChangeSigner(newSigner)
		good := fx.pair(t, action, 0)
		stranger := unittest.NamedKey(t, "stranger")

		cases := map[string]wallet.SignaturePair{
			"swapped slots":       {Signer: good.Guardian, Guardian: good.Signer},
			"signer only":         {Signer: good.Signer},
			"guardian only":       {Guardian: good.Guardian},
			"stranger as signer":  {Signer: fx.sign(t, stranger, action, 0), Guardian: good.Guardian},
			"wrong nonce signed":  fx.pair(t, action, 1),
			"truncated signature": {Signer: good.Signer[:64], Guardian: good.Guardian},
			"other action signed": fx.pair(t, wallet.ChangeGuardian(newSigner), 0),
		}

		for name, sigs := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := fx.engine.ChangeSigner(ctx, fx.wallet, newSigner, sigs, 0, fx.now)
				assert.True(t, autherrors.IsInvalidSignatureError(err), err)
			})
		}

		t.Run("nonce is checked before signatures", func(t *testing.T) {
			_, err := fx.engine.ChangeSigner(ctx, fx.wallet, newSigner, wallet.SignaturePair{}, 1, fx.now)
			assert.True(t, autherrors.IsInvalidNonceError(err))
		})

		acct := fx.account(t)
		assert.Equal(t, fx.signer.Address(), acct.Signer)
		assert.Equal(t, uint64(0), acct.Nonce)
	})
}

func TestKeyRotation(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		s1 := unittest.NamedKey(t, "S1")
		g1 := unittest.NamedKey(t, "G1")

		res, err := fx.engine.ChangeSigner(ctx, fx.wallet, s1.Address(), fx.pair(t, wallet.ChangeSigner(s1.Address()), 0), 0, fx.now)
		require.NoError(t, err)
		assert.Equal(t, s1.Address(), res.Account.Signer)
		require.Len(t, res.Events, 1)
		assert.Equal(t, wallet.EventSignerChanged, res.Events[0].Type)

		// the old signer can no longer authorize
		_, err = fx.engine.ChangeGuardian(ctx, fx.wallet, g1.Address(), fx.pair(t, wallet.ChangeGuardian(g1.Address()), 1), 1, fx.now)
		assert.True(t, autherrors.IsInvalidSignatureError(err))

		fx.signer = s1
		_, err = fx.engine.ChangeGuardian(ctx, fx.wallet, g1.Address(), fx.pair(t, wallet.ChangeGuardian(g1.Address()), 1), 1, fx.now)
		require.NoError(t, err)

		guardian, err := fx.engine.Guardian(ctx, fx.wallet)
		require.NoError(t, err)
		assert.Equal(t, g1.Address(), guardian)

		signer, err := fx.engine.Signer(ctx, fx.wallet)
		require.NoError(t, err)
		assert.Equal(t, s1.Address(), signer)
		assert.Equal(t, uint64(2), fx.account(t).Nonce)
	})
}

// TestSignerRecovery runs the lost signer scenario: S0/G0 rotate to S1, the
// guardian then escapes the signer to S2 after the security period.
func TestSignerRecovery(t *testing.T) {
	for _, policy := range []authz.NoncePolicy{authz.NonceEveryAction, authz.NonceTwoSignatureOnly} {
		t.Run(policy.String(), func(t *testing.T) {
			withEngine(t, func(fx *fixture) {
				ctx := context.Background()
				period := fx.engine.Config().EscapeSecurityPeriod
				s1 := unittest.NamedKey(t, "S1")
				s2 := unittest.NamedKey(t, "S2")

				_, err := fx.engine.ChangeSigner(ctx, fx.wallet, s1.Address(), fx.pair(t, wallet.ChangeSigner(s1.Address()), 0), 0, fx.now)
				require.NoError(t, err)

				trigger := wallet.TriggerEscape(fx.guardian.Address())
				res, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.guardian.Address(), fx.sign(t, fx.guardian, trigger, 1), 1, fx.now)
				require.NoError(t, err)
				assert.Equal(t, wallet.RoleGuardian, res.Account.Escape.InitiatedBy)
				assert.Equal(t, uint64(fx.now.Add(period).Unix()), res.Account.Escape.ActivationTime)

				nonce := uint64(1)
				if policy == authz.NonceEveryAction {
					nonce = 2
				}
				assert.Equal(t, nonce, res.Account.Nonce)

				escape := wallet.EscapeSigner(s2.Address())

				// not yet matured
				_, err = fx.engine.EscapeSigner(ctx, fx.wallet, s2.Address(), fx.sign(t, fx.guardian, escape, nonce), nonce, fx.now.Add(period-time.Second))
				assert.True(t, autherrors.IsEscapeNotMaturedError(err), err)

				acct := fx.account(t)
				assert.Equal(t, s1.Address(), acct.Signer)
				assert.Equal(t, fx.guardian.Address(), acct.Guardian)
				assert.Equal(t, res.Account.Escape, acct.Escape)
				assert.Equal(t, nonce, acct.Nonce)

				// the signer cannot finalize its own replacement
				_, err = fx.engine.EscapeSigner(ctx, fx.wallet, s2.Address(), fx.sign(t, s1, escape, nonce), nonce, fx.now.Add(period))
				assert.True(t, autherrors.IsInvalidSignatureError(err), err)

				res, err = fx.engine.EscapeSigner(ctx, fx.wallet, s2.Address(), fx.sign(t, fx.guardian, escape, nonce), nonce, fx.now.Add(period))
				require.NoError(t, err)
				assert.Equal(t, s2.Address(), res.Account.Signer)
				assert.Equal(t, fx.guardian.Address(), res.Account.Guardian)
				assert.False(t, res.Account.Escape.Pending())
				require.Len(t, res.Events, 1)
				assert.Equal(t, wallet.EventSignerEscaped, res.Events[0].Type)

				if policy == authz.NonceEveryAction {
					assert.Equal(t, uint64(3), res.Account.Nonce)
				} else {
					assert.Equal(t, uint64(1), res.Account.Nonce)
				}
			}, authz.WithNoncePolicy(policy))
		})
	}
}

func TestGuardianRecovery(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		g1 := unittest.NamedKey(t, "G1")

		trigger := wallet.TriggerEscape(fx.signer.Address())
		_, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.signer.Address(), fx.sign(t, fx.signer, trigger, 0), 0, fx.now)
		require.NoError(t, err)

		escape := wallet.EscapeGuardian(g1.Address())
		res, err := fx.engine.EscapeGuardian(ctx, fx.wallet, g1.Address(), fx.sign(t, fx.signer, escape, 1), 1, fx.now.Add(authz.DefaultEscapeSecurityPeriod))
		require.NoError(t, err)
		assert.Equal(t, g1.Address(), res.Account.Guardian)
		assert.Equal(t, wallet.EventGuardianEscaped, res.Events[0].Type)
	}, authz.WithEscapeSecurityPeriod(authz.DefaultEscapeSecurityPeriod))
}

func TestEscapeStateErrors(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		newKey := unittest.NamedKey(t, "new").Address()

		t.Run("cancel without escape", func(t *testing.T) {
			_, err := fx.engine.CancelEscape(ctx, fx.wallet, fx.pair(t, wallet.CancelEscape(), 0), 0, fx.now)
			assert.True(t, autherrors.IsNoMatchingEscapeError(err), err)
		})

		t.Run("finalize without escape", func(t *testing.T) {
			escape := wallet.EscapeSigner(newKey)
			_, err := fx.engine.EscapeSigner(ctx, fx.wallet, newKey, fx.sign(t, fx.guardian, escape, 0), 0, fx.now)
			assert.True(t, autherrors.IsNoMatchingEscapeError(err), err)
		})

		t.Run("initiator without role", func(t *testing.T) {
			stranger := unittest.NamedKey(t, "stranger")
			trigger := wallet.TriggerEscape(stranger.Address())
			_, err := fx.engine.TriggerEscape(ctx, fx.wallet, stranger.Address(), fx.sign(t, stranger, trigger, 0), 0, fx.now)
			assert.True(t, autherrors.IsInvalidSignatureError(err), err)
		})

		t.Run("initiator signature from the other role", func(t *testing.T) {
			trigger := wallet.TriggerEscape(fx.signer.Address())
			_, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.signer.Address(), fx.sign(t, fx.guardian, trigger, 0), 0, fx.now)
			assert.True(t, autherrors.IsInvalidSignatureError(err), err)
		})

		trigger := wallet.TriggerEscape(fx.signer.Address())
		_, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.signer.Address(), fx.sign(t, fx.signer, trigger, 0), 0, fx.now)
		require.NoError(t, err)

		t.Run("second trigger", func(t *testing.T) {
			trigger := wallet.TriggerEscape(fx.guardian.Address())
			_, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.guardian.Address(), fx.sign(t, fx.guardian, trigger, 1), 1, fx.now)
			assert.True(t, autherrors.IsEscapeAlreadyPendingError(err), err)
		})

		t.Run("finalize by the initiating role's counterpart only", func(t *testing.T) {
			// signer initiated, so escapeSigner (finalized by the guardian) does not match
			escape := wallet.EscapeSigner(newKey)
			_, err := fx.engine.EscapeSigner(ctx, fx.wallet, newKey, fx.sign(t, fx.guardian, escape, 1), 1, fx.now.Add(authz.DefaultEscapeSecurityPeriod))
			assert.True(t, autherrors.IsNoMatchingEscapeError(err), err)
		})

		res, err := fx.engine.CancelEscape(ctx, fx.wallet, fx.pair(t, wallet.CancelEscape(), 1), 1, fx.now)
		require.NoError(t, err)
		assert.False(t, res.Account.Escape.Pending())
		assert.Equal(t, fx.signer.Address(), res.Account.Signer)
		assert.Equal(t, fx.guardian.Address(), res.Account.Guardian)
		assert.Equal(t, wallet.EventEscapeCanceled, res.Events[0].Type)

		escape, err := fx.engine.Escape(ctx, fx.wallet)
		require.NoError(t, err)
		assert.False(t, escape.Pending())
	})
}

// TestCancelBeforeMaturity cancels a guardian escape jointly before it
// matures; the escape can then no longer be finalized.
func TestCancelBeforeMaturity(t *testing.T) {
	for _, policy := range []authz.NoncePolicy{authz.NonceEveryAction, authz.NonceTwoSignatureOnly} {
		t.Run(policy.String(), func(t *testing.T) {
			withEngine(t, func(fx *fixture) {
				ctx := context.Background()
				period := fx.engine.Config().EscapeSecurityPeriod
				s2 := unittest.NamedKey(t, "S2").Address()

				trigger := wallet.TriggerEscape(fx.guardian.Address())
				res, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.guardian.Address(), fx.sign(t, fx.guardian, trigger, 0), 0, fx.now)
				require.NoError(t, err)
				nonce := res.Account.Nonce

				res, err = fx.engine.CancelEscape(ctx, fx.wallet, fx.pair(t, wallet.CancelEscape(), nonce), nonce, fx.now.Add(period/2))
				require.NoError(t, err)
				assert.Equal(t, nonce+1, res.Account.Nonce)
				nonce++

				acct := fx.account(t)
				assert.Equal(t, fx.signer.Address(), acct.Signer)
				assert.Equal(t, fx.guardian.Address(), acct.Guardian)
				assert.False(t, acct.Escape.Pending())
				assert.Equal(t, uint64(1), acct.EscapeRound)

				escape := wallet.EscapeSigner(s2).BindTo(acct)
				_, err = fx.engine.EscapeSigner(ctx, fx.wallet, s2, fx.sign(t, fx.guardian, escape, nonce), nonce, fx.now.Add(period))
				assert.True(t, autherrors.IsNoMatchingEscapeError(err), err)

				acct = fx.account(t)
				assert.Equal(t, fx.signer.Address(), acct.Signer)
				assert.Equal(t, fx.guardian.Address(), acct.Guardian)
				assert.Equal(t, nonce, acct.Nonce)
			}, authz.WithNoncePolicy(policy))
		})
	}
}

// TestSingleRoleSignaturesExpireWithEscape replays single-role signatures
// under the policy where they leave the nonce untouched.
func TestSingleRoleSignaturesExpireWithEscape(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		period := fx.engine.Config().EscapeSecurityPeriod
		s2 := unittest.NamedKey(t, "S2").Address()

		trigger := wallet.TriggerEscape(fx.guardian.Address())
		triggerSig := fx.sign(t, fx.guardian, trigger, 0)
		_, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.guardian.Address(), triggerSig, 0, fx.now)
		require.NoError(t, err)

		escape := wallet.EscapeSigner(s2)
		escapeSig := fx.sign(t, fx.guardian, escape, 0)
		res, err := fx.engine.EscapeSigner(ctx, fx.wallet, s2, escapeSig, 0, fx.now.Add(period))
		require.NoError(t, err)
		assert.Equal(t, s2, res.Account.Signer)
		assert.Equal(t, uint64(0), res.Account.Nonce)
		assert.Equal(t, uint64(1), res.Account.EscapeRound)

		t.Run("trigger replay", func(t *testing.T) {
			_, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.guardian.Address(), triggerSig, 0, fx.now.Add(period))
			assert.True(t, autherrors.IsInvalidSignatureError(err), err)
			assert.False(t, fx.account(t).Escape.Pending())
		})

		t.Run("finalize replay", func(t *testing.T) {
			_, err := fx.engine.EscapeSigner(ctx, fx.wallet, s2, escapeSig, 0, fx.now.Add(2*period))
			assert.True(t, autherrors.IsInvalidSignatureError(err), err)
		})

		t.Run("fresh trigger in the next round", func(t *testing.T) {
			acct := fx.account(t)
			bound := trigger.BindTo(acct)

			digest, err := fx.engine.SignedMessage(ctx, fx.wallet, trigger, 0)
			require.NoError(t, err)
			assert.Equal(t, bound.Message(fx.wallet, 0), digest)
			assert.NotEqual(t, trigger.Message(fx.wallet, 0), digest)

			res, err := fx.engine.TriggerEscape(ctx, fx.wallet, fx.guardian.Address(), fx.sign(t, fx.guardian, bound, 0), 0, fx.now.Add(period))
			require.NoError(t, err)
			assert.True(t, res.Account.Escape.Pending())
		})
	}, authz.WithNoncePolicy(authz.NonceTwoSignatureOnly))
}

// TestExecuteOnWalletItself makes sure a joint signature over a wallet
// action cannot be spent as an execute call to the wallet, whose canonical
// message is the same.
func TestExecuteOnWalletItself(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		attacker := unittest.NamedKey(t, "attacker").Address()

		rotate := wallet.ChangeSigner(attacker)
		disguised := wallet.Execute(fx.wallet, nil, rotate.MessageData())
		require.Equal(t, rotate.Message(fx.wallet, 0), disguised.Message(fx.wallet, 0))

		_, err := fx.engine.Execute(ctx, fx.wallet, fx.wallet, nil, rotate.MessageData(), fx.pair(t, rotate, 0), 0, fx.now)
		assert.True(t, autherrors.IsInvalidOperationError(err), err)

		plain := wallet.Execute(fx.wallet, nil, nil)
		_, err = fx.engine.Execute(ctx, fx.wallet, fx.wallet, nil, nil, fx.pair(t, plain, 0), 0, fx.now)
		assert.True(t, autherrors.IsInvalidOperationError(err), err)

		acct := fx.account(t)
		assert.Equal(t, fx.signer.Address(), acct.Signer)
		assert.Equal(t, uint64(0), acct.Nonce)
		assert.Empty(t, fx.dispatcher.calls)
	})
}

func TestRolesKeepDistinctKeys(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx := context.Background()
		signer, guardian := fx.signer.Address(), fx.guardian.Address()

		_, err := fx.engine.ChangeSigner(ctx, fx.wallet, guardian, fx.pair(t, wallet.ChangeSigner(guardian), 0), 0, fx.now)
		assert.True(t, autherrors.IsInvalidOperationError(err), err)

		_, err = fx.engine.ChangeGuardian(ctx, fx.wallet, signer, fx.pair(t, wallet.ChangeGuardian(signer), 0), 0, fx.now)
		assert.True(t, autherrors.IsInvalidOperationError(err), err)

		trigger := wallet.TriggerEscape(guardian)
		_, err = fx.engine.TriggerEscape(ctx, fx.wallet, guardian, fx.sign(t, fx.guardian, trigger, 0), 0, fx.now)
		require.NoError(t, err)
		pending := fx.account(t).Escape

		escape := wallet.EscapeSigner(guardian)
		_, err = fx.engine.EscapeSigner(ctx, fx.wallet, guardian, fx.sign(t, fx.guardian, escape, 1), 1, fx.now.Add(authz.DefaultEscapeSecurityPeriod))
		assert.True(t, autherrors.IsInvalidOperationError(err), err)

		acct := fx.account(t)
		assert.Equal(t, signer, acct.Signer)
		assert.Equal(t, guardian, acct.Guardian)
		assert.Equal(t, pending, acct.Escape)
		assert.Equal(t, uint64(1), acct.Nonce)
	})
}

func TestSingleSignatureRoleMismatch(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		newKey := unittest.NamedKey(t, "new").Address()
		action := wallet.EscapeSigner(newKey)
		_, err := fx.engine.Apply(context.Background(), fx.wallet, authz.Request{
			Action: action,
			Nonce:  0,
			Authorization: wallet.Authorization{Single: wallet.RoleSignature{
				Role:      wallet.RoleSigner,
				Signature: fx.sign(t, fx.signer, action, 0),
			}},
		}, fx.now)
		assert.True(t, autherrors.IsInvalidSignatureError(err), err)
	})
}

// TestConcurrentNonce submits the same nonce from many goroutines; exactly
// one submission may succeed.
func TestConcurrentNonce(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		target := unittest.AddressFixture()
		action := wallet.Execute(target, nil, nil)
		sigs := fx.pair(t, action, 0)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := fx.engine.Execute(context.Background(), fx.wallet, target, nil, nil, sigs, 0, fx.now)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				assert.True(t, autherrors.IsInvalidNonceError(err), err)
			}()
		}
		unittest.AssertReturnsBefore(t, wg.Wait, 5*time.Second)

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, uint64(1), fx.account(t).Nonce)
	})
}

func TestCanceledContext(t *testing.T) {
	withEngine(t, func(fx *fixture) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := fx.engine.Nonce(ctx, fx.wallet)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// Package authz implements the authorization engine of dual-control wallets.
// Every state-changing action is checked against the account nonce and the
// signatures its roles are required to provide, then applied atomically.
package authz

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	autherrors "github.com/dualsig/wallet-relay/authz/errors"
	"github.com/dualsig/wallet-relay/authz/recovery"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module"
	"github.com/dualsig/wallet-relay/storage"
)

// Request is a single action submitted to a wallet.
type Request struct {
	Action        wallet.Action
	Nonce         uint64
	Authorization wallet.Authorization
}

// Result describes an accepted action.
type Result struct {
	// Account is the state of the wallet after the action.
	Account       *wallet.Account
	Events        []wallet.Event
	ReturnData    []byte
	NonceConsumed bool
	GasUsed       uint64
}

type Engine struct {
	log        zerolog.Logger
	config     Config
	accounts   storage.Accounts
	dispatcher Dispatcher
	verifier   *SignatureVerifier
	metrics    module.AuthorizationMetrics
	locks      *accountLocks
}

func New(
	log zerolog.Logger,
	accounts storage.Accounts,
	dispatcher Dispatcher,
	metrics module.AuthorizationMetrics,
	opts ...Option,
) *Engine {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}

	return &Engine{
		log:        log.With().Str("engine", "authz").Logger(),
		config:     config,
		accounts:   accounts,
		dispatcher: dispatcher,
		verifier:   NewSignatureVerifier(),
		metrics:    metrics,
		locks:      newAccountLocks(),
	}
}

func (e *Engine) Config() Config {
	return e.config
}

// Deploy creates a wallet with the given keys, nonce zero and no pending
// escape.
func (e *Engine) Deploy(ctx context.Context, cfg wallet.Config) (*wallet.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Signer == (common.Address{}) {
		return nil, autherrors.NewNullTargetErrorf("signer", "signer key must not be zero")
	}
	if cfg.Guardian == (common.Address{}) {
		return nil, autherrors.NewNullTargetErrorf("guardian", "guardian key must not be zero")
	}

	acct, err := wallet.NewAccount(cfg)
	if err != nil {
		return nil, autherrors.NewInvalidOperationErrorf("invalid wallet configuration: %v", err)
	}

	err = e.accounts.Store(acct)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, autherrors.NewAccountAlreadyExistsError(acct.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("could not store account: %w", err)
	}

	e.log.Info().
		Hex("wallet", acct.Address.Bytes()).
		Hex("signer", acct.Signer.Bytes()).
		Hex("guardian", acct.Guardian.Bytes()).
		Msg("wallet deployed")

	return acct, nil
}

// Account returns the current state of the wallet at address.
func (e *Engine) Account(ctx context.Context, address common.Address) (*wallet.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acct, err := e.accounts.ByAddress(address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, autherrors.NewAccountNotFoundError(address)
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve account: %w", err)
	}
	return acct, nil
}

func (e *Engine) Nonce(ctx context.Context, address common.Address) (uint64, error) {
	acct, err := e.Account(ctx, address)
	if err != nil {
		return 0, err
	}
	return acct.Nonce, nil
}

func (e *Engine) Signer(ctx context.Context, address common.Address) (common.Address, error) {
	acct, err := e.Account(ctx, address)
	if err != nil {
		return common.Address{}, err
	}
	return acct.Signer, nil
}

// IsWallet reports whether a wallet is deployed at address.
func (e *Engine) IsWallet(ctx context.Context, address common.Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.accounts.Exists(address)
}

func (e *Engine) Guardian(ctx context.Context, address common.Address) (common.Address, error) {
	acct, err := e.Account(ctx, address)
	if err != nil {
		return common.Address{}, err
	}
	return acct.Guardian, nil
}

func (e *Engine) Escape(ctx context.Context, address common.Address) (wallet.Escape, error) {
	acct, err := e.Account(ctx, address)
	if err != nil {
		return wallet.Escape{}, err
	}
	return acct.Escape, nil
}

// SignedMessage returns the digest key holders sign to authorize action at
// nonce on the wallet at address.
func (e *Engine) SignedMessage(ctx context.Context, address common.Address, action wallet.Action, nonce uint64) (common.Hash, error) {
	acct, err := e.Account(ctx, address)
	if err != nil {
		return common.Hash{}, err
	}
	return action.BindTo(acct).Message(address, nonce), nil
}

func (e *Engine) Execute(ctx context.Context, address common.Address, target common.Address, value *big.Int, data []byte, sigs wallet.SignaturePair, nonce uint64, now time.Time) (*Result, error) {
	return e.Apply(ctx, address, Request{
		Action:        wallet.Execute(target, value, data),
		Nonce:         nonce,
		Authorization: wallet.Authorization{Pair: sigs},
	}, now)
}

func (e *Engine) ChangeSigner(ctx context.Context, address common.Address, newSigner common.Address, sigs wallet.SignaturePair, nonce uint64, now time.Time) (*Result, error) {
	return e.Apply(ctx, address, Request{
		Action:        wallet.ChangeSigner(newSigner),
		Nonce:         nonce,
		Authorization: wallet.Authorization{Pair: sigs},
	}, now)
}

func (e *Engine) ChangeGuardian(ctx context.Context, address common.Address, newGuardian common.Address, sigs wallet.SignaturePair, nonce uint64, now time.Time) (*Result, error) {
	return e.Apply(ctx, address, Request{
		Action:        wallet.ChangeGuardian(newGuardian),
		Nonce:         nonce,
		Authorization: wallet.Authorization{Pair: sigs},
	}, now)
}

func (e *Engine) CancelEscape(ctx context.Context, address common.Address, sigs wallet.SignaturePair, nonce uint64, now time.Time) (*Result, error) {
	return e.Apply(ctx, address, Request{
		Action:        wallet.CancelEscape(),
		Nonce:         nonce,
		Authorization: wallet.Authorization{Pair: sigs},
	}, now)
}

// TriggerEscape starts an escape on behalf of initiator, which must be the
// current signer or guardian key and must have produced sig.
func (e *Engine) TriggerEscape(ctx context.Context, address common.Address, initiator common.Address, sig wallet.Signature, nonce uint64, now time.Time) (*Result, error) {
	return e.Apply(ctx, address, Request{
		Action:        wallet.TriggerEscape(initiator),
		Nonce:         nonce,
		Authorization: wallet.Authorization{Single: wallet.RoleSignature{Signature: sig}},
	}, now)
}

// EscapeSigner replaces the signer key once a guardian escape has matured.
func (e *Engine) EscapeSigner(ctx context.Context, address common.Address, newSigner common.Address, sig wallet.Signature, nonce uint64, now time.Time) (*Result, error) {
	return e.Apply(ctx, address, Request{
		Action:        wallet.EscapeSigner(newSigner),
		Nonce:         nonce,
		Authorization: wallet.Authorization{Single: wallet.RoleSignature{Role: wallet.RoleGuardian, Signature: sig}},
	}, now)
}

// EscapeGuardian replaces the guardian key once a signer escape has matured.
func (e *Engine) EscapeGuardian(ctx context.Context, address common.Address, newGuardian common.Address, sig wallet.Signature, nonce uint64, now time.Time) (*Result, error) {
	return e.Apply(ctx, address, Request{
		Action:        wallet.EscapeGuardian(newGuardian),
		Nonce:         nonce,
		Authorization: wallet.Authorization{Single: wallet.RoleSignature{Role: wallet.RoleSigner, Signature: sig}},
	}, now)
}

// Apply validates req against the wallet at address and applies it. The
// checks run in a fixed order: null parameters, nonce, signatures, then
// escape state. Either the action is applied in full or nothing changes.
//
// Concurrent actions on the same wallet are serialized, so two requests
// carrying the same nonce never both succeed.
func (e *Engine) Apply(ctx context.Context, address common.Address, req Request, now time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := e.log.With().
		Hex("wallet", address.Bytes()).
		Str("action", req.Action.Kind.String()).
		Uint64("nonce", req.Nonce).
		Logger()

	unlock := e.locks.lock(address)
	defer unlock()

	var result *Result
	err := e.accounts.Update(address, func(acct *wallet.Account) error {
		var err error
		result, err = e.apply(ctx, acct, req, now)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		err = autherrors.NewAccountNotFoundError(address)
	}
	if err != nil {
		reason := "Internal"
		if coded := autherrors.Find(err); coded != nil {
			reason = coded.Code().Name()
		}
		e.metrics.ActionRejected(req.Action.Kind.String(), reason)
		log.Debug().Err(err).Str("reason", reason).Msg("action rejected")
		return nil, err
	}

	e.metrics.ActionAccepted(req.Action.Kind.String())
	if req.Action.Kind == wallet.ActionTriggerEscape {
		e.metrics.EscapeTriggered(result.Account.Escape.InitiatedBy.String())
	}
	log.Info().
		Bool("nonce_consumed", result.NonceConsumed).
		Int("events", len(result.Events)).
		Msg("action applied")

	return result, nil
}

// apply mutates acct in place. The caller discards acct on error.
func (e *Engine) apply(ctx context.Context, acct *wallet.Account, req Request, now time.Time) (*Result, error) {
	action := req.Action.BindTo(acct)

	err := checkParameters(action)
	if err != nil {
		return nil, err
	}
	err = checkKeys(acct, action)
	if err != nil {
		return nil, err
	}

	if req.Nonce != acct.Nonce {
		return nil, autherrors.NewInvalidNonceError(acct.Address, acct.Nonce, req.Nonce)
	}

	digest := action.Message(acct.Address, acct.Nonce)
	if action.Kind.TwoSignature() {
		err = e.verifier.VerifyPair(acct, digest, req.Authorization.Pair)
	} else {
		err = e.verifySingle(acct, digest, action, req.Authorization.Single)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{}
	switch action.Kind {

	case wallet.ActionExecute:
		call := wallet.Call{
			From:  acct.Address,
			To:    action.Target,
			Value: action.MessageValue(),
			Data:  action.Data,
		}
		res, err := e.dispatcher.Dispatch(ctx, call)
		if err != nil {
			return nil, autherrors.NewCallFailedError(action.Target, err)
		}
		result.ReturnData = res.ReturnData
		result.Events = append(result.Events, res.Events...)
		result.GasUsed += res.GasUsed
		result.Events = append(result.Events, wallet.NewEvent(wallet.EventExecuted, acct.Address,
			"target", action.Target.Hex(),
			"value", call.Value.String(),
		))

	case wallet.ActionChangeSigner:
		acct.Signer = action.Key
		result.Events = append(result.Events, wallet.NewEvent(wallet.EventSignerChanged, acct.Address,
			"signer", action.Key.Hex()))

	case wallet.ActionChangeGuardian:
		acct.Guardian = action.Key
		result.Events = append(result.Events, wallet.NewEvent(wallet.EventGuardianChanged, acct.Address,
			"guardian", action.Key.Hex()))

	case wallet.ActionTriggerEscape:
		escape, err := recovery.Trigger(acct.Escape, acct.RoleOf(action.Key), now, e.config.EscapeSecurityPeriod)
		if err != nil {
			return nil, err
		}
		acct.Escape = escape
		result.Events = append(result.Events, wallet.NewEvent(wallet.EventEscapeTriggered, acct.Address,
			"initiator", action.Key.Hex(),
			"role", escape.InitiatedBy.String(),
			"activationTime", strconv.FormatUint(escape.ActivationTime, 10),
		))

	case wallet.ActionCancelEscape:
		escape, err := recovery.Cancel(acct.Escape)
		if err != nil {
			return nil, err
		}
		acct.Escape = escape
		acct.EscapeRound++
		result.Events = append(result.Events, wallet.NewEvent(wallet.EventEscapeCanceled, acct.Address))

	case wallet.ActionEscapeSigner, wallet.ActionEscapeGuardian:
		finalizer := wallet.RoleGuardian
		eventType := wallet.EventSignerEscaped
		if action.Kind == wallet.ActionEscapeGuardian {
			finalizer = wallet.RoleSigner
			eventType = wallet.EventGuardianEscaped
		}
		replaced, escape, err := recovery.Finalize(acct.Escape, finalizer, now)
		if err != nil {
			return nil, err
		}
		if replaced == wallet.RoleSigner {
			acct.Signer = action.Key
		} else {
			acct.Guardian = action.Key
		}
		acct.Escape = escape
		acct.EscapeRound++
		result.Events = append(result.Events, wallet.NewEvent(eventType, acct.Address,
			replaced.String(), action.Key.Hex()))

	default:
		return nil, autherrors.NewInvalidOperationErrorf("unknown action kind %d", action.Kind)
	}

	if e.config.NoncePolicy.Consumes(action.Kind) {
		acct.Nonce++
		result.NonceConsumed = true
	}
	result.GasUsed += actionGas(action.Kind, result.NonceConsumed)
	result.Account = acct.Copy()

	return result, nil
}

func (e *Engine) verifySingle(acct *wallet.Account, digest common.Hash, action wallet.Action, sig wallet.RoleSignature) error {
	roles, err := action.RequiredRoles(acct)
	if err != nil {
		return autherrors.NewInvalidSignatureErrorf(wallet.RoleNone, "%v", err)
	}
	return e.verifier.VerifySingle(acct, digest, roles[0], sig)
}

// checkParameters rejects actions carrying a zero address where a key or
// target is required.
func checkParameters(action wallet.Action) error {
	switch action.Kind {
	case wallet.ActionExecute:
		if action.Target == (common.Address{}) {
			return autherrors.NewNullTargetErrorf("to", "call target must not be zero")
		}
		if action.Value != nil && action.Value.Sign() < 0 {
			return autherrors.NewInvalidOperationErrorf("negative call value %s", action.Value)
		}
	case wallet.ActionChangeSigner, wallet.ActionEscapeSigner:
		if action.Key == (common.Address{}) {
			return autherrors.NewNullTargetErrorf("newSigner", "signer key must not be zero")
		}
	case wallet.ActionChangeGuardian, wallet.ActionEscapeGuardian:
		if action.Key == (common.Address{}) {
			return autherrors.NewNullTargetErrorf("newGuardian", "guardian key must not be zero")
		}
	case wallet.ActionTriggerEscape:
		if action.Key == (common.Address{}) {
			return autherrors.NewNullTargetErrorf("initiator", "initiator must not be zero")
		}
	case wallet.ActionCancelEscape:
	default:
		return autherrors.NewInvalidOperationErrorf("unknown action kind %d", action.Kind)
	}
	return nil
}

// checkKeys rejects actions that would leave one key in control of both
// roles, and calls from the wallet to itself.
func checkKeys(acct *wallet.Account, action wallet.Action) error {
	switch action.Kind {
	case wallet.ActionExecute:
		if action.Target == acct.Address {
			return autherrors.NewInvalidOperationErrorf("wallet %s cannot execute a call to itself", acct.Address.Hex())
		}
	case wallet.ActionChangeSigner, wallet.ActionEscapeSigner:
		if action.Key == acct.Guardian {
			return autherrors.NewInvalidOperationErrorf("new signer %s is the guardian key", action.Key.Hex())
		}
	case wallet.ActionChangeGuardian, wallet.ActionEscapeGuardian:
		if action.Key == acct.Signer {
			return autherrors.NewInvalidOperationErrorf("new guardian %s is the signer key", action.Key.Hex())
		}
	}
	return nil
}

type accountLocks struct {
	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[common.Address]*sync.Mutex)}
}

func (l *accountLocks) lock(address common.Address) func() {
	l.mu.Lock()
	m, ok := l.locks[address]
	if !ok {
		m = &sync.Mutex{}
		l.locks[address] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Package relay drives wallet actions through an entry point: it reads the
// nonce, collects signatures from the key holders, keeps the wallet's stake
// funded, sends the operation and waits for its inclusion.
package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/dualsig/wallet-relay/crypto"
	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module"
	"github.com/dualsig/wallet-relay/utils/logging"
)

// failure reasons reported to the relay metrics
const (
	reasonAccount    = "account"
	reasonSignatures = "signatures"
	reasonStake      = "stake"
	reasonRejected   = "rejected"
	reasonTimeout    = "timeout"
	reasonCanceled   = "canceled"
)

// Holders are the key holders of one wallet.
type Holders struct {
	Signer   KeyHolder
	Guardian KeyHolder
}

func (h Holders) For(role wallet.Role) KeyHolder {
	switch role {
	case wallet.RoleSigner:
		return h.Signer
	case wallet.RoleGuardian:
		return h.Guardian
	default:
		return nil
	}
}

// Outcome is the result of an included operation.
type Outcome struct {
	OperationHash common.Hash
	Nonce         uint64
	Receipt       *wallet.Receipt
	Events        []wallet.Event
}

// Pending identifies a sent operation that may not be included yet.
type Pending struct {
	OperationHash common.Hash
	Nonce         uint64
}

type Client struct {
	log          zerolog.Logger
	config       Config
	backend      Backend
	holders      Holders
	metrics      module.RelayMetrics
	stakeMetrics module.StakeMetrics
}

func NewClient(
	log zerolog.Logger,
	backend Backend,
	holders Holders,
	metrics module.RelayMetrics,
	stakeMetrics module.StakeMetrics,
	opts ...Option,
) *Client {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(&config)
	}
	return &Client{
		log:          log.With().Str("component", "relay_client").Logger(),
		config:       config,
		backend:      backend,
		holders:      holders,
		metrics:      metrics,
		stakeMetrics: stakeMetrics,
	}
}

func (c *Client) Config() Config {
	return c.config
}

// Submit sends action for the wallet and blocks until it is included, the
// include timeout expires, or ctx is done. A rejection is returned as
// RejectedError wrapping the reason; a timeout as TimeoutError. Neither is
// retried with the same nonce: callers that lost a nonce race must submit
// again.
func (c *Client) Submit(ctx context.Context, address common.Address, action wallet.Action) (*Outcome, error) {
	pending, err := c.Send(ctx, address, action)
	if err != nil {
		return nil, err
	}

	receipt, err := c.Wait(ctx, pending.OperationHash)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		OperationHash: pending.OperationHash,
		Nonce:         pending.Nonce,
		Receipt:       receipt,
		Events:        receipt.Events,
	}, nil
}

// Send builds, signs and sends the operation for action without waiting for
// its inclusion.
func (c *Client) Send(ctx context.Context, address common.Address, action wallet.Action) (*Pending, error) {
	// the nonce is read right before signing
	acct, err := c.backend.Account(ctx, address)
	if err != nil {
		c.metrics.OperationFailed(reasonAccount)
		return nil, fmt.Errorf("could not read wallet %s: %w", address.Hex(), err)
	}
	action = action.BindTo(acct)

	roles, err := action.RequiredRoles(acct)
	if err != nil {
		c.metrics.OperationFailed(reasonSignatures)
		return nil, fmt.Errorf("could not determine signers of %s: %w", action, err)
	}

	log := c.log.With().
		Str("wallet", address.Hex()).
		Str("action", action.Kind.String()).
		Uint64("nonce", acct.Nonce).
		Strs("roles", logging.Roles(roles)).
		Logger()

	sigs, err := c.collectSignatures(ctx, acct, action, roles)
	if err != nil {
		c.metrics.OperationFailed(reasonSignatures)
		return nil, fmt.Errorf("could not collect signatures for %s: %w", action, err)
	}

	var auth wallet.Authorization
	if action.Kind.TwoSignature() {
		auth.Pair = wallet.SignaturePair{Signer: sigs[wallet.RoleSigner], Guardian: sigs[wallet.RoleGuardian]}
	} else {
		auth.Single = wallet.RoleSignature{Role: roles[0], Signature: sigs[roles[0]]}
	}

	op, err := wallet.NewOperation(address, acct.Nonce, action, auth, c.config.Gas)
	if err != nil {
		c.metrics.OperationFailed(reasonSignatures)
		return nil, fmt.Errorf("could not build operation: %w", err)
	}

	err = c.ensureStake(ctx, address, op.RequiredPrefund())
	if err != nil {
		c.metrics.OperationFailed(reasonStake)
		return nil, err
	}

	opHash, err := c.backend.SendOperation(ctx, op)
	if errors.Is(err, ErrInsufficientStake) {
		// the stake moved between the check and the send, top up once
		log.Warn().Err(err).Msg("stake insufficient at submission, topping up")
		err = c.topUp(ctx, address, c.config.TopUpAmount)
		if err != nil {
			c.metrics.OperationFailed(reasonStake)
			return nil, err
		}
		opHash, err = c.backend.SendOperation(ctx, op)
	}
	if err != nil {
		if ctx.Err() != nil {
			c.metrics.OperationFailed(reasonCanceled)
			return nil, fmt.Errorf("operation not sent: %w", ctx.Err())
		}
		c.metrics.OperationFailed(reasonRejected)
		log.Info().Err(err).Msg("operation rejected")
		return nil, NewRejectedError(err)
	}

	c.metrics.OperationSubmitted()
	opLog := logging.Operation(log, address, acct.Nonce, opHash)
	opLog.Debug().Msg("operation sent")

	return &Pending{OperationHash: opHash, Nonce: acct.Nonce}, nil
}

// Wait polls for the receipt of a sent operation until the include timeout.
func (c *Client) Wait(ctx context.Context, opHash common.Hash) (*wallet.Receipt, error) {
	start := time.Now()
	backoff := retry.WithMaxDuration(c.config.IncludeTimeout, retry.NewConstant(c.config.PollInterval))

	var receipt *wallet.Receipt
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.backend.Receipt(ctx, opHash)
		if errors.Is(err, ErrReceiptNotFound) || errors.Is(err, ErrBackendBusy) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrReceiptNotFound), errors.Is(err, ErrBackendBusy):
		c.metrics.OperationFailed(reasonTimeout)
		return nil, TimeoutError{OperationHash: opHash, Timeout: c.config.IncludeTimeout}
	case ctx.Err() != nil:
		c.metrics.OperationFailed(reasonCanceled)
		return nil, fmt.Errorf("stopped waiting for operation %s: %w", opHash.Hex(), ctx.Err())
	default:
		c.metrics.OperationFailed(reasonRejected)
		return nil, fmt.Errorf("could not get receipt of operation %s: %w", opHash.Hex(), err)
	}

	c.metrics.OperationIncluded(time.Since(start))
	c.log.Info().
		Str("op_hash", opHash.Hex()).
		Uint64("block", receipt.BlockNumber).
		Uint64("gas_used", receipt.ActualGasUsed).
		Msg("operation included")

	return receipt, nil
}

// collectSignatures asks every required key holder in parallel and checks
// each signature against the key the wallet holds for the role.
func (c *Client) collectSignatures(ctx context.Context, acct *wallet.Account, action wallet.Action, roles []wallet.Role) (map[wallet.Role]wallet.Signature, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.SignatureTimeout)
	defer cancel()

	digest := action.Message(acct.Address, acct.Nonce)

	var (
		mu   sync.Mutex
		sigs = make(map[wallet.Role]wallet.Signature, len(roles))
		errs *multierror.Error
		g    errgroup.Group
	)
	for _, role := range roles {
		role := role
		g.Go(func() error {
			sig, err := c.requestSignature(ctx, acct, action, role, digest)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", role, err))
				return err
			}
			sigs[role] = sig
			return nil
		})
	}
	// all failures are in errs
	_ = g.Wait()

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return sigs, nil
}

func (c *Client) requestSignature(ctx context.Context, acct *wallet.Account, action wallet.Action, role wallet.Role, digest common.Hash) (wallet.Signature, error) {
	holder := c.holders.For(role)
	if holder == nil {
		return nil, fmt.Errorf("no key holder configured")
	}

	start := time.Now()
	sig, err := holder.Sign(ctx, SignatureRequest{
		ID:     uuid.New(),
		Wallet: acct.Address,
		Role:   role,
		Action: action,
		Nonce:  acct.Nonce,
		Digest: digest,
	})
	if err != nil {
		return nil, err
	}
	c.metrics.SignatureCollected(role.String(), time.Since(start))

	expected := acct.KeyFor(role)
	valid, err := crypto.VerifyMessage(digest, sig, expected)
	if err != nil {
		return nil, fmt.Errorf("malformed signature: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("signature of %s is not by the wallet's key %s", holder.Address().Hex(), expected.Hex())
	}
	return sig, nil
}

// EnsureStake tops up the wallet's stake when it is below the configured
// minimum or below the prefund of an operation with the configured gas.
func (c *Client) EnsureStake(ctx context.Context, address common.Address) error {
	prefund := (&wallet.Operation{
		CallGas:            c.config.Gas.CallGas,
		VerificationGas:    c.config.Gas.VerificationGas,
		PreVerificationGas: c.config.Gas.PreVerificationGas,
		MaxFeePerGas:       c.config.Gas.MaxFeePerGas,
	}).RequiredPrefund()
	return c.ensureStake(ctx, address, prefund)
}

func (c *Client) ensureStake(ctx context.Context, address common.Address, prefund *big.Int) error {
	threshold := c.config.MinStake
	if prefund.Cmp(threshold) > 0 {
		threshold = prefund
	}
	c.stakeMetrics.RecommendedMinStake(toEther(threshold))

	stake, err := c.backend.Stake(ctx, address)
	if err != nil {
		return fmt.Errorf("could not read stake of %s: %w", address.Hex(), err)
	}
	c.stakeMetrics.AccountStake(toEther(stake))

	if stake.Cmp(threshold) >= 0 {
		return nil
	}

	amount := new(big.Int).Sub(threshold, stake)
	if amount.Cmp(c.config.TopUpAmount) < 0 {
		amount = c.config.TopUpAmount
	}
	return c.topUp(ctx, address, amount)
}

func (c *Client) topUp(ctx context.Context, address common.Address, amount *big.Int) error {
	err := c.backend.DepositStake(ctx, address, amount)
	if err != nil {
		return fmt.Errorf("could not top up stake of %s: %w", address.Hex(), err)
	}
	c.stakeMetrics.StakeToppedUp()
	c.log.Info().
		Str("wallet", address.Hex()).
		Str("amount", amount.String()).
		Msg("stake topped up")
	return nil
}

func toEther(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return f
}

func (c *Client) Execute(ctx context.Context, address, target common.Address, value *big.Int, data []byte) (*Outcome, error) {
	return c.Submit(ctx, address, wallet.Execute(target, value, data))
}

func (c *Client) ChangeSigner(ctx context.Context, address, newSigner common.Address) (*Outcome, error) {
	return c.Submit(ctx, address, wallet.ChangeSigner(newSigner))
}

func (c *Client) ChangeGuardian(ctx context.Context, address, newGuardian common.Address) (*Outcome, error) {
	return c.Submit(ctx, address, wallet.ChangeGuardian(newGuardian))
}

// TriggerEscape starts recovery on behalf of the role holding initiator.
func (c *Client) TriggerEscape(ctx context.Context, address, initiator common.Address) (*Outcome, error) {
	return c.Submit(ctx, address, wallet.TriggerEscape(initiator))
}

func (c *Client) CancelEscape(ctx context.Context, address common.Address) (*Outcome, error) {
	return c.Submit(ctx, address, wallet.CancelEscape())
}

func (c *Client) EscapeSigner(ctx context.Context, address, newSigner common.Address) (*Outcome, error) {
	return c.Submit(ctx, address, wallet.EscapeSigner(newSigner))
}

func (c *Client) EscapeGuardian(ctx context.Context, address, newGuardian common.Address) (*Outcome, error) {
	return c.Submit(ctx, address, wallet.EscapeGuardian(newGuardian))
}

// Events returns the events of type emitted in the block of receipt.
func (c *Client) Events(ctx context.Context, eventType wallet.EventType, receipt *wallet.Receipt) ([]wallet.Event, error) {
	return c.backend.Events(ctx, eventType, receipt.BlockNumber, receipt.BlockNumber)
}

package authz

import (
	"fmt"
	"time"

	"github.com/dualsig/wallet-relay/model/wallet"
)

// DefaultEscapeSecurityPeriod is the delay between triggering an escape and
// being able to finalize it.
const DefaultEscapeSecurityPeriod = 7 * 24 * time.Hour

// NoncePolicy decides which accepted actions advance the account nonce.
type NoncePolicy int

const (
	// NonceEveryAction advances the nonce on every accepted action.
	NonceEveryAction NoncePolicy = iota
	// NonceTwoSignatureOnly advances the nonce only on joint actions. Single
	// role escape actions must still carry the current nonce.
	NonceTwoSignatureOnly
)

func (p NoncePolicy) String() string {
	switch p {
	case NonceEveryAction:
		return "every-action"
	case NonceTwoSignatureOnly:
		return "two-signature-only"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

func ParseNoncePolicy(s string) (NoncePolicy, error) {
	switch s {
	case "every-action", "":
		return NonceEveryAction, nil
	case "two-signature-only":
		return NonceTwoSignatureOnly, nil
	default:
		return NonceEveryAction, fmt.Errorf("unknown nonce policy %q", s)
	}
}

// Consumes reports whether an accepted action of kind advances the nonce.
func (p NoncePolicy) Consumes(kind wallet.ActionKind) bool {
	if p == NonceTwoSignatureOnly {
		return kind.TwoSignature()
	}
	return true
}

type Config struct {
	EscapeSecurityPeriod time.Duration
	NoncePolicy          NoncePolicy
}

func DefaultConfig() Config {
	return Config{
		EscapeSecurityPeriod: DefaultEscapeSecurityPeriod,
		NoncePolicy:          NonceEveryAction,
	}
}

type Option func(*Config)

func WithEscapeSecurityPeriod(period time.Duration) Option {
	return func(c *Config) {
		c.EscapeSecurityPeriod = period
	}
}

func WithNoncePolicy(policy NoncePolicy) Option {
	return func(c *Config) {
		c.NoncePolicy = policy
	}
}

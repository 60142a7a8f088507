package relay

import (
	"math/big"
	"time"

	"github.com/dualsig/wallet-relay/model/wallet"
)

const (
	DefaultSignatureTimeout = 2 * time.Minute
	DefaultIncludeTimeout   = 60 * time.Second
	DefaultPollInterval     = 500 * time.Millisecond
)

// Config holds the tunables of the relay client.
type Config struct {
	// SignatureTimeout bounds the collection of all signatures of one action.
	SignatureTimeout time.Duration
	// IncludeTimeout bounds the wait for the receipt of a sent operation.
	IncludeTimeout time.Duration
	PollInterval   time.Duration
	// MinStake is the stake below which the client deposits TopUpAmount
	// before sending.
	MinStake    *big.Int
	TopUpAmount *big.Int
	Gas         wallet.GasParams
}

// DefaultConfig keeps 0.01 ether of stake on the wallet, topped up in steps
// of 0.01 ether.
func DefaultConfig() Config {
	centiEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil)
	return Config{
		SignatureTimeout: DefaultSignatureTimeout,
		IncludeTimeout:   DefaultIncludeTimeout,
		PollInterval:     DefaultPollInterval,
		MinStake:         new(big.Int).Set(centiEther),
		TopUpAmount:      new(big.Int).Set(centiEther),
		Gas:              wallet.DefaultGasParams(),
	}
}

type Option func(*Config)

func WithSignatureTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.SignatureTimeout = timeout
	}
}

func WithIncludeTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.IncludeTimeout = timeout
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = interval
	}
}

func WithMinStake(stake *big.Int) Option {
	return func(c *Config) {
		c.MinStake = stake
	}
}

func WithTopUpAmount(amount *big.Int) Option {
	return func(c *Config) {
		c.TopUpAmount = amount
	}
}

func WithGasParams(gas wallet.GasParams) Option {
	return func(c *Config) {
		c.Gas = gas
	}
}

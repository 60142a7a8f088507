package entrypoint

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// DefaultAddress is the address operations are hashed against.
	DefaultAddress = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

	// DefaultBeneficiary receives the gas fees charged from stake.
	DefaultBeneficiary = common.HexToAddress("0x000000000000000000000000000000000000FEE5")

	// CounterAddress is where the built-in counter contract lives.
	CounterAddress = common.HexToAddress("0x000000000000000000000000000000000000C0DE")
)

const (
	DefaultChainID = 1337

	// PerOpOverhead is the fixed gas charged to every handled operation.
	PerOpOverhead = 22_000

	DefaultReceiptCacheSize = 1000
)

type Config struct {
	Address       common.Address
	ChainID       uint64
	Beneficiary   common.Address
	PerOpOverhead uint64
	// AutoMine mines a block right after every included operation.
	AutoMine bool
	// Clock supplies the timestamp of newly opened blocks.
	Clock            func() time.Time
	ReceiptCacheSize uint
}

func DefaultConfig() Config {
	return Config{
		Address:          DefaultAddress,
		ChainID:          DefaultChainID,
		Beneficiary:      DefaultBeneficiary,
		PerOpOverhead:    PerOpOverhead,
		AutoMine:         true,
		Clock:            time.Now,
		ReceiptCacheSize: DefaultReceiptCacheSize,
	}
}

type Option func(*Config)

func WithAddress(address common.Address) Option {
	return func(c *Config) {
		c.Address = address
	}
}

func WithChainID(chainID uint64) Option {
	return func(c *Config) {
		c.ChainID = chainID
	}
}

func WithBeneficiary(beneficiary common.Address) Option {
	return func(c *Config) {
		c.Beneficiary = beneficiary
	}
}

// WithAutoMine toggles mining a block per operation. Without it blocks are
// produced by Mine or a block interval.
func WithAutoMine(enabled bool) Option {
	return func(c *Config) {
		c.AutoMine = enabled
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

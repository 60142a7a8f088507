package wallet

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role identifies one of the two independent key holders of an account.
type Role uint8

const (
	RoleNone Role = iota
	RoleSigner
	RoleGuardian
)

func (r Role) String() string {
	switch r {
	case RoleSigner:
		return "signer"
	case RoleGuardian:
		return "guardian"
	default:
		return "none"
	}
}

// Opposite returns the other role. RoleNone has no opposite.
func (r Role) Opposite() Role {
	switch r {
	case RoleSigner:
		return RoleGuardian
	case RoleGuardian:
		return RoleSigner
	default:
		return RoleNone
	}
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	switch s {
	case "signer":
		return RoleSigner, nil
	case "guardian":
		return RoleGuardian, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
}

// Escape is the outstanding recovery request of an account. The zero value
// means no escape is pending.
type Escape struct {
	// ActivationTime is the unix time (seconds) from which the escape can be
	// finalized.
	ActivationTime uint64
	InitiatedBy    Role
}

func (e Escape) Pending() bool {
	return e.InitiatedBy != RoleNone
}

// Account is the persistent state of a dual-control wallet.
type Account struct {
	Address    common.Address
	EntryPoint common.Address
	Signer     common.Address
	Guardian   common.Address
	Nonce      uint64
	Escape     Escape
	// EscapeRound counts the escapes that were canceled or finalized. It is
	// bound into the messages of single-role actions.
	EscapeRound uint64
}

// KeyFor returns the current key held by the given role.
func (a *Account) KeyFor(role Role) common.Address {
	switch role {
	case RoleSigner:
		return a.Signer
	case RoleGuardian:
		return a.Guardian
	default:
		return common.Address{}
	}
}

// RoleOf returns the role currently holding key, or RoleNone.
func (a *Account) RoleOf(key common.Address) Role {
	switch key {
	case (common.Address{}):
		return RoleNone
	case a.Signer:
		return RoleSigner
	case a.Guardian:
		return RoleGuardian
	default:
		return RoleNone
	}
}

func (a *Account) Copy() *Account {
	c := *a
	return &c
}

// Config holds the deployment parameters of an account.
type Config struct {
	Signer     common.Address
	Guardian   common.Address
	EntryPoint common.Address
	Salt       uint64
}

// DeriveAddress computes the deterministic address an account with the given
// config is deployed under.
func DeriveAddress(cfg Config) common.Address {
	var salt [8]byte
	binary.BigEndian.PutUint64(salt[:], cfg.Salt)
	hash := crypto.Keccak256(
		[]byte{0xff},
		cfg.EntryPoint.Bytes(),
		cfg.Signer.Bytes(),
		cfg.Guardian.Bytes(),
		salt[:],
	)
	return common.BytesToAddress(hash[12:])
}

// NewAccount builds a fresh account with a zero nonce and no escape.
func NewAccount(cfg Config) (*Account, error) {
	if cfg.Signer == (common.Address{}) {
		return nil, fmt.Errorf("signer key must not be zero")
	}
	if cfg.Guardian == (common.Address{}) {
		return nil, fmt.Errorf("guardian key must not be zero")
	}
	if cfg.Signer == cfg.Guardian {
		return nil, fmt.Errorf("signer and guardian must be distinct keys")
	}

	return &Account{
		Address:    DeriveAddress(cfg),
		EntryPoint: cfg.EntryPoint,
		Signer:     cfg.Signer,
		Guardian:   cfg.Guardian,
	}, nil
}

package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/model/wallet"
)

type Accounts interface {

	// Store persists a newly deployed account. It returns ErrAlreadyExists if
	// an account lives at the same address.
	Store(account *wallet.Account) error

	// ByAddress retrieves the account at the given address.
	ByAddress(address common.Address) (*wallet.Account, error)

	// Exists reports whether an account was deployed at the given address.
	Exists(address common.Address) (bool, error)

	// Update reads the account, applies fn and writes the result back in one
	// transaction. Nothing is written when fn returns an error.
	Update(address common.Address, fn func(account *wallet.Account) error) error
}

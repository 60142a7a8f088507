package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/storage"
	"github.com/dualsig/wallet-relay/storage/badger/operation"
)

// Accounts implements persistent storage for wallet accounts.
type Accounts struct {
	db *badger.DB
}

var _ storage.Accounts = (*Accounts)(nil)

func NewAccounts(db *badger.DB) *Accounts {
	return &Accounts{db: db}
}

func (a *Accounts) Store(account *wallet.Account) error {
	err := operation.RetryOnConflict(a.db.Update, operation.InsertAccount(account))
	if err != nil {
		return fmt.Errorf("could not store account %s: %w", account.Address.Hex(), err)
	}
	return nil
}

func (a *Accounts) ByAddress(address common.Address) (*wallet.Account, error) {
	var account wallet.Account
	err := a.db.View(operation.RetrieveAccount(address, &account))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve account %s: %w", address.Hex(), err)
	}
	return &account, nil
}

func (a *Accounts) Exists(address common.Address) (bool, error) {
	var exists bool
	err := a.db.View(operation.AccountExists(address, &exists))
	if err != nil {
		return false, fmt.Errorf("could not check account %s: %w", address.Hex(), err)
	}
	return exists, nil
}

// Update is not retried on conflict since fn may have effects outside the
// transaction. Callers serialize writes per account.
func (a *Accounts) Update(address common.Address, fn func(account *wallet.Account) error) error {
	return a.db.Update(func(tx *badger.Txn) error {
		var account wallet.Account
		err := operation.RetrieveAccount(address, &account)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve account %s: %w", address.Hex(), err)
		}

		err = fn(&account)
		if err != nil {
			return err
		}

		err = operation.UpdateAccount(&account)(tx)
		if err != nil {
			return fmt.Errorf("could not update account %s: %w", address.Hex(), err)
		}
		return nil
	})
}

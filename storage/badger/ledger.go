package badger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/storage"
	"github.com/dualsig/wallet-relay/storage/badger/operation"
)

// Ledger implements persistent storage of native balances and entry point
// stake deposits.
type Ledger struct {
	db *badger.DB
}

var _ storage.Ledger = (*Ledger)(nil)

func NewLedger(db *badger.DB) *Ledger {
	return &Ledger{db: db}
}

type amountOp func(address common.Address, amount *big.Int) func(*badger.Txn) error

func readAmount(retrieve amountOp, address common.Address) func(*badger.Txn) (*big.Int, error) {
	return func(tx *badger.Txn) (*big.Int, error) {
		amount := new(big.Int)
		err := retrieve(address, amount)(tx)
		if errors.Is(err, storage.ErrNotFound) {
			return new(big.Int), nil
		}
		if err != nil {
			return nil, err
		}
		return amount, nil
	}
}

func credit(retrieve, upsert amountOp, address common.Address, amount *big.Int) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		current, err := readAmount(retrieve, address)(tx)
		if err != nil {
			return err
		}
		return upsert(address, current.Add(current, amount))(tx)
	}
}

func debit(retrieve, upsert amountOp, address common.Address, amount *big.Int) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		current, err := readAmount(retrieve, address)(tx)
		if err != nil {
			return err
		}
		if current.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s holds %s, needs %s", storage.ErrInsufficientFunds, address.Hex(), current, amount)
		}
		return upsert(address, current.Sub(current, amount))(tx)
	}
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("amount must be non-negative")
	}
	return nil
}

func (l *Ledger) Balance(address common.Address) (*big.Int, error) {
	var amount *big.Int
	err := l.db.View(func(tx *badger.Txn) error {
		var err error
		amount, err = readAmount(operation.RetrieveBalance, address)(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not retrieve balance of %s: %w", address.Hex(), err)
	}
	return amount, nil
}

func (l *Ledger) Stake(address common.Address) (*big.Int, error) {
	var amount *big.Int
	err := l.db.View(func(tx *badger.Txn) error {
		var err error
		amount, err = readAmount(operation.RetrieveStake, address)(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not retrieve stake of %s: %w", address.Hex(), err)
	}
	return amount, nil
}

func (l *Ledger) Mint(address common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return operation.RetryOnConflict(l.db.Update,
		credit(operation.RetrieveBalance, operation.UpsertBalance, address, amount))
}

func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return operation.RetryOnConflict(l.db.Update, func(tx *badger.Txn) error {
		err := debit(operation.RetrieveBalance, operation.UpsertBalance, from, amount)(tx)
		if err != nil {
			return err
		}
		return credit(operation.RetrieveBalance, operation.UpsertBalance, to, amount)(tx)
	})
}

func (l *Ledger) Deposit(from, account common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return operation.RetryOnConflict(l.db.Update, func(tx *badger.Txn) error {
		err := debit(operation.RetrieveBalance, operation.UpsertBalance, from, amount)(tx)
		if err != nil {
			return err
		}
		return credit(operation.RetrieveStake, operation.UpsertStake, account, amount)(tx)
	})
}

func (l *Ledger) Charge(account, beneficiary common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	return operation.RetryOnConflict(l.db.Update, func(tx *badger.Txn) error {
		err := debit(operation.RetrieveStake, operation.UpsertStake, account, amount)(tx)
		if err != nil {
			return err
		}
		return credit(operation.RetrieveBalance, operation.UpsertBalance, beneficiary, amount)(tx)
	})
}

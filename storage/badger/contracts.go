package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/storage"
	"github.com/dualsig/wallet-relay/storage/badger/operation"
)

// ContractState implements persistent storage for emulated contracts.
type ContractState struct {
	db *badger.DB
}

var _ storage.ContractState = (*ContractState)(nil)

func NewContractState(db *badger.DB) *ContractState {
	return &ContractState{db: db}
}

func (c *ContractState) Counter(contract, account common.Address) (uint64, error) {
	var value uint64
	err := c.db.View(operation.RetrieveCounter(contract, account, &value))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not retrieve counter: %w", err)
	}
	return value, nil
}

func (c *ContractState) IncrementCounter(contract, account common.Address) (uint64, error) {
	var value uint64
	err := operation.RetryOnConflict(c.db.Update, func(tx *badger.Txn) error {
		value = 0
		err := operation.RetrieveCounter(contract, account, &value)(tx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		value++
		return operation.UpsertCounter(contract, account, value)(tx)
	})
	if err != nil {
		return 0, fmt.Errorf("could not increment counter: %w", err)
	}
	return value, nil
}

package storage

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/model/wallet"
)

type Receipts interface {

	// ByHash retrieves the receipt of an included operation.
	ByHash(opHash common.Hash) (*wallet.Receipt, error)
}

type Blocks interface {

	// Commit stores a mined block together with the receipts and events of
	// its operations, and makes it the latest block.
	Commit(block *wallet.Block, receipts []*wallet.Receipt) error

	// ByNumber retrieves a mined block.
	ByNumber(number uint64) (*wallet.Block, error)

	// Latest returns the most recently mined block.
	Latest() (*wallet.Block, error)
}

type Events interface {

	// ByBlockRange returns the events of blocks start..end inclusive, in
	// emission order. An empty eventType matches all events.
	ByBlockRange(eventType wallet.EventType, start, end uint64) ([]wallet.Event, error)
}

// Ledger holds the native balances and the entry point stake deposits.
type Ledger interface {
	Balance(address common.Address) (*big.Int, error)
	Stake(address common.Address) (*big.Int, error)

	// Mint credits amount to the balance of address.
	Mint(address common.Address, amount *big.Int) error

	// Transfer moves amount between balances.
	Transfer(from, to common.Address, amount *big.Int) error

	// Deposit moves amount from the balance of from into the stake of account.
	Deposit(from, account common.Address, amount *big.Int) error

	// Charge moves amount from the stake of account into the balance of
	// beneficiary.
	Charge(account, beneficiary common.Address, amount *big.Int) error
}

// ContractState is the key-value storage of emulated contracts.
type ContractState interface {
	Counter(contract, account common.Address) (uint64, error)
	IncrementCounter(contract, account common.Address) (uint64, error)
}

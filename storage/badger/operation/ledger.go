package operation

import (
	"math/big"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
)

func UpsertBalance(address common.Address, amount *big.Int) func(*badger.Txn) error {
	return upsert(makePrefix(codeBalance, address), amount)
}

func RetrieveBalance(address common.Address, amount *big.Int) func(*badger.Txn) error {
	return retrieve(makePrefix(codeBalance, address), amount)
}

func UpsertStake(address common.Address, amount *big.Int) func(*badger.Txn) error {
	return upsert(makePrefix(codeStake, address), amount)
}

func RetrieveStake(address common.Address, amount *big.Int) func(*badger.Txn) error {
	return retrieve(makePrefix(codeStake, address), amount)
}

func UpsertCounter(contract common.Address, account common.Address, value uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeCounter, contract, account), value)
}

func RetrieveCounter(contract common.Address, account common.Address, value *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeCounter, contract, account), value)
}

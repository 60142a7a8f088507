package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/dualsig/wallet-relay/model/wallet"
)

func InsertBlock(block *wallet.Block) func(*badger.Txn) error {
	return insert(makePrefix(codeBlock, block.Number), block)
}

func RetrieveBlock(number uint64, block *wallet.Block) func(*badger.Txn) error {
	return retrieve(makePrefix(codeBlock, number), block)
}

func InsertLatestBlock(number uint64) func(*badger.Txn) error {
	return insert(makePrefix(codeLatestBlock), number)
}

func UpdateLatestBlock(number uint64) func(*badger.Txn) error {
	return update(makePrefix(codeLatestBlock), number)
}

func RetrieveLatestBlock(number *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeLatestBlock), number)
}

package operation

import (
	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/model/wallet"
)

func InsertReceipt(receipt *wallet.Receipt) func(*badger.Txn) error {
	return insert(makePrefix(codeReceipt, receipt.OperationHash), receipt)
}

func RetrieveReceipt(opHash common.Hash, receipt *wallet.Receipt) func(*badger.Txn) error {
	return retrieve(makePrefix(codeReceipt, opHash), receipt)
}

package operation

import (
	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/model/wallet"
)

func InsertAccount(account *wallet.Account) func(*badger.Txn) error {
	return insert(makePrefix(codeAccount, account.Address), account)
}

func UpdateAccount(account *wallet.Account) func(*badger.Txn) error {
	return update(makePrefix(codeAccount, account.Address), account)
}

func RetrieveAccount(address common.Address, account *wallet.Account) func(*badger.Txn) error {
	return retrieve(makePrefix(codeAccount, address), account)
}

func AccountExists(address common.Address, exists *bool) func(*badger.Txn) error {
	return check(makePrefix(codeAccount, address), exists)
}

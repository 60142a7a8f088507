package badger_test

import (
	"math/big"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/storage"
	bstorage "github.com/dualsig/wallet-relay/storage/badger"
	"github.com/dualsig/wallet-relay/utils/unittest"
)

func requireAmount(t *testing.T, expected *big.Int, actual *big.Int, err error) {
	require.NoError(t, err)
	assert.Equal(t, 0, expected.Cmp(actual), "expected %s, got %s", expected, actual)
}

func TestLedger(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		ledger := bstorage.NewLedger(db)
		funder := unittest.AddressFixture()
		account := unittest.AddressFixture()
		beneficiary := unittest.AddressFixture()

		balance, err := ledger.Balance(funder)
		requireAmount(t, big.NewInt(0), balance, err)

		require.NoError(t, ledger.Mint(funder, unittest.Ether(1)))
		require.NoError(t, ledger.Deposit(funder, account, unittest.Milliether(10)))

		balance, err = ledger.Balance(funder)
		requireAmount(t, unittest.Milliether(990), balance, err)
		stake, err := ledger.Stake(account)
		requireAmount(t, unittest.Milliether(10), stake, err)

		require.NoError(t, ledger.Charge(account, beneficiary, unittest.Milliether(4)))
		stake, err = ledger.Stake(account)
		requireAmount(t, unittest.Milliether(6), stake, err)
		balance, err = ledger.Balance(beneficiary)
		requireAmount(t, unittest.Milliether(4), balance, err)

		require.NoError(t, ledger.Transfer(funder, account, unittest.Milliether(90)))
		balance, err = ledger.Balance(account)
		requireAmount(t, unittest.Milliether(90), balance, err)

		t.Run("overdraw leaves balances untouched", func(t *testing.T) {
			err := ledger.Charge(account, beneficiary, unittest.Ether(1))
			require.ErrorIs(t, err, storage.ErrInsufficientFunds)
			stake, err := ledger.Stake(account)
			requireAmount(t, unittest.Milliether(6), stake, err)

			err = ledger.Transfer(beneficiary, funder, unittest.Ether(1))
			require.ErrorIs(t, err, storage.ErrInsufficientFunds)
		})

		t.Run("negative amounts", func(t *testing.T) {
			require.Error(t, ledger.Mint(funder, big.NewInt(-1)))
			require.Error(t, ledger.Deposit(funder, account, nil))
		})
	})
}

func TestCounters(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		state := bstorage.NewContractState(db)
		contract := unittest.AddressFixture()
		account := unittest.AddressFixture()

		value, err := state.Counter(contract, account)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), value)

		for i := uint64(1); i <= 3; i++ {
			value, err = state.IncrementCounter(contract, account)
			require.NoError(t, err)
			assert.Equal(t, i, value)
		}

		value, err = state.Counter(contract, unittest.AddressFixture())
		require.NoError(t, err)
		assert.Equal(t, uint64(0), value)
	})
}

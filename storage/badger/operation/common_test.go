package operation

import (
	"math/big"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dualsig/wallet-relay/storage"
	"github.com/dualsig/wallet-relay/utils/unittest"
)

type Entity struct {
	ID     uint64
	Amount *big.Int
}

func TestInsertValid(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		e := Entity{ID: 1337, Amount: big.NewInt(42)}
		key := []byte{0x01, 0x02, 0x03}

		err := db.Update(insert(key, e))
		require.NoError(t, err)

		var act Entity
		err = db.View(retrieve(key, &act))
		require.NoError(t, err)
		assert.Equal(t, e.ID, act.ID)
		assert.Equal(t, 0, e.Amount.Cmp(act.Amount))
	})
}

func TestInsertDuplicate(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		key := []byte{0x01, 0x02, 0x03}

		err := db.Update(insert(key, Entity{ID: 1}))
		require.NoError(t, err)

		err = db.Update(insert(key, Entity{ID: 2}))
		require.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}

func TestUpdateMissing(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		err := db.Update(update([]byte{0x09}, Entity{ID: 1}))
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestUpsertAndCheck(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		key := []byte{0x04}

		var exists bool
		require.NoError(t, db.View(check(key, &exists)))
		assert.False(t, exists)

		require.NoError(t, db.Update(upsert(key, Entity{ID: 1})))
		require.NoError(t, db.Update(upsert(key, Entity{ID: 2})))

		require.NoError(t, db.View(check(key, &exists)))
		assert.True(t, exists)

		var act Entity
		require.NoError(t, db.View(retrieve(key, &act)))
		assert.Equal(t, uint64(2), act.ID)
	})
}

func TestRetrieveMissing(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		var act Entity
		err := db.View(retrieve([]byte{0x05}, &act))
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestIterate(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		keys := [][]byte{{0x00}, {0x12}, {0xf0}, {0xff}}
		for i, key := range keys {
			require.NoError(t, db.Update(insert(key, uint64(i))))
		}

		var collected []uint64
		iteration := func() (checkFunc, createFunc, handleFunc) {
			check := func(key []byte) bool {
				return true
			}
			var val uint64
			create := func() interface{} {
				return &val
			}
			handle := func() error {
				collected = append(collected, val)
				return nil
			}
			return check, create, handle
		}

		require.NoError(t, db.View(iterate([]byte{0x10}, []byte{0xf0}, iteration)))
		assert.Equal(t, []uint64{1, 2}, collected)

		collected = nil
		require.NoError(t, db.View(iterate([]byte{0xff}, []byte{0x10}, iteration)))
		assert.Equal(t, []uint64{3, 2, 1}, collected)
	})
}

func TestCodecCompression(t *testing.T) {
	val, err := encodeEntity(Entity{ID: 7})
	require.NoError(t, err)

	var act Entity
	require.NoError(t, decodeValue(val, &act))
	assert.Equal(t, uint64(7), act.ID)

	err = decodeValue([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, &act)
	require.ErrorIs(t, err, errUncompressedValue)
}

func TestCodecUncompressed(t *testing.T) {
	setCompressDisabled()
	defer func() { compressEnabled = true }()

	val, err := encodeEntity(Entity{ID: 9, Amount: big.NewInt(-3)})
	require.NoError(t, err)

	var act Entity
	require.NoError(t, decodeValue(val, &act))
	assert.Equal(t, uint64(9), act.ID)
	assert.Equal(t, int64(-3), act.Amount.Int64())
}

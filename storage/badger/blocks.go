package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module"
	"github.com/dualsig/wallet-relay/module/metrics"
	"github.com/dualsig/wallet-relay/storage"
	"github.com/dualsig/wallet-relay/storage/badger/operation"
)

// Blocks implements persistent storage for the mined blocks of the emulated
// chain, together with their receipts and events.
type Blocks struct {
	db       *badger.DB
	receipts *Cache[common.Hash, *wallet.Receipt]
}

var _ storage.Blocks = (*Blocks)(nil)
var _ storage.Receipts = (*Blocks)(nil)
var _ storage.Events = (*Blocks)(nil)

func NewBlocks(collector module.CacheMetrics, db *badger.DB, receiptCacheSize uint) *Blocks {
	retrieve := func(opHash common.Hash) func(*badger.Txn) (*wallet.Receipt, error) {
		return func(tx *badger.Txn) (*wallet.Receipt, error) {
			var receipt wallet.Receipt
			err := operation.RetrieveReceipt(opHash, &receipt)(tx)
			return &receipt, err
		}
	}

	return &Blocks{
		db: db,
		receipts: newCache[common.Hash, *wallet.Receipt](collector, metrics.ResourceReceipt,
			withLimit[common.Hash, *wallet.Receipt](receiptCacheSize),
			withRetrieve(retrieve)),
	}
}

func (b *Blocks) Commit(block *wallet.Block, receipts []*wallet.Receipt) error {
	err := operation.RetryOnConflict(b.db.Update, func(tx *badger.Txn) error {
		err := operation.InsertBlock(block)(tx)
		if err != nil {
			return fmt.Errorf("could not insert block %d: %w", block.Number, err)
		}

		for _, receipt := range receipts {
			err = operation.InsertReceipt(receipt)(tx)
			if err != nil {
				return fmt.Errorf("could not insert receipt %s: %w", receipt.OperationHash.Hex(), err)
			}
			for _, event := range receipt.Events {
				err = operation.InsertEvent(event)(tx)
				if err != nil {
					return fmt.Errorf("could not insert event: %w", err)
				}
			}
		}

		var latest uint64
		err = operation.RetrieveLatestBlock(&latest)(tx)
		if errors.Is(err, storage.ErrNotFound) {
			return operation.InsertLatestBlock(block.Number)(tx)
		}
		if err != nil {
			return fmt.Errorf("could not retrieve latest block: %w", err)
		}
		if block.Number != latest+1 {
			return fmt.Errorf("block %d does not extend latest block %d", block.Number, latest)
		}
		return operation.UpdateLatestBlock(block.Number)(tx)
	})
	if err != nil {
		return err
	}

	for _, receipt := range receipts {
		b.receipts.Insert(receipt.OperationHash, receipt)
	}
	return nil
}

func (b *Blocks) ByNumber(number uint64) (*wallet.Block, error) {
	var block wallet.Block
	err := b.db.View(operation.RetrieveBlock(number, &block))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve block %d: %w", number, err)
	}
	return &block, nil
}

func (b *Blocks) Latest() (*wallet.Block, error) {
	var block wallet.Block
	err := b.db.View(func(tx *badger.Txn) error {
		var number uint64
		err := operation.RetrieveLatestBlock(&number)(tx)
		if err != nil {
			return err
		}
		return operation.RetrieveBlock(number, &block)(tx)
	})
	if err != nil {
		return nil, fmt.Errorf("could not retrieve latest block: %w", err)
	}
	return &block, nil
}

func (b *Blocks) ByHash(opHash common.Hash) (*wallet.Receipt, error) {
	var receipt *wallet.Receipt
	err := b.db.View(func(tx *badger.Txn) error {
		var err error
		receipt, err = b.receipts.Get(opHash)(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (b *Blocks) ByBlockRange(eventType wallet.EventType, start, end uint64) ([]wallet.Event, error) {
	if start > end {
		return nil, fmt.Errorf("invalid block range %d..%d", start, end)
	}
	var events []wallet.Event
	err := b.db.View(operation.LookupEventsInRange(eventType, start, end, &events))
	if err != nil {
		return nil, fmt.Errorf("could not look up events in blocks %d..%d: %w", start, end, err)
	}
	return events, nil
}

package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/dualsig/wallet-relay/model/wallet"
	"github.com/dualsig/wallet-relay/module"
	"github.com/dualsig/wallet-relay/storage"
)

// Slot is the position an entry takes in the pending block.
type Slot struct {
	Number    uint64
	Timestamp time.Time
	Index     uint32
}

type pendingBlock struct {
	number    uint64
	timestamp uint64
	receipts  []*wallet.Receipt
}

// Chain produces the blocks of the emulated chain. Entries are collected in
// a pending block, which is committed to storage when mined.
type Chain struct {
	log      zerolog.Logger
	blocks   storage.Blocks
	events   storage.Events
	metrics  module.EntryPointMetrics
	clock    func() time.Time
	autoMine bool

	height *atomic.Uint64

	mu            sync.Mutex
	latest        *wallet.Block
	pending       *pendingBlock
	nextTimestamp uint64
}

type chainStorage interface {
	storage.Blocks
	storage.Events
}

// NewChain opens the chain stored in blocks, committing a genesis block when
// the store is empty.
func NewChain(log zerolog.Logger, store chainStorage, metrics module.EntryPointMetrics, clock func() time.Time, autoMine bool) (*Chain, error) {
	c := &Chain{
		log:      log.With().Str("component", "chain").Logger(),
		blocks:   store,
		events:   store,
		metrics:  metrics,
		clock:    clock,
		autoMine: autoMine,
		height:   atomic.NewUint64(0),
	}

	latest, err := store.Latest()
	if errors.Is(err, storage.ErrNotFound) {
		latest = &wallet.Block{Number: 0, Timestamp: uint64(clock().Unix())}
		err = store.Commit(latest, nil)
		if err != nil {
			return nil, fmt.Errorf("could not commit genesis block: %w", err)
		}
		c.log.Info().Uint64("timestamp", latest.Timestamp).Msg("genesis block committed")
	} else if err != nil {
		return nil, fmt.Errorf("could not retrieve latest block: %w", err)
	}

	c.latest = latest
	c.height.Store(latest.Number)
	return c, nil
}

// Height returns the number of the latest mined block.
func (c *Chain) Height() uint64 {
	return c.height.Load()
}

func (c *Chain) LatestBlock() (*wallet.Block, error) {
	return c.blocks.Latest()
}

func (c *Chain) Block(number uint64) (*wallet.Block, error) {
	return c.blocks.ByNumber(number)
}

// Events returns the events of mined blocks start..end inclusive. An empty
// eventType matches every event.
func (c *Chain) Events(eventType wallet.EventType, start, end uint64) ([]wallet.Event, error) {
	if end < start {
		return nil, fmt.Errorf("invalid block range %d..%d", start, end)
	}
	if height := c.Height(); end > height {
		end = height
	}
	return c.events.ByBlockRange(eventType, start, end)
}

// PendingTimestamp returns the timestamp of the block the next entry would
// be included in, were it included now.
func (c *Chain) PendingTimestamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return time.Unix(int64(c.pending.timestamp), 0)
	}
	return time.Unix(int64(c.nextPendingTimestamp()), 0)
}

// SetNextBlockTimestamp fixes the timestamp of the next opened block. It has
// to be later than the latest mined block. A block that is already pending
// keeps its timestamp.
func (c *Chain) SetNextBlockTimestamp(ts time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	unix := uint64(ts.Unix())
	if unix <= c.latest.Timestamp {
		return fmt.Errorf("timestamp %d is not later than latest block timestamp %d", unix, c.latest.Timestamp)
	}

	c.nextTimestamp = unix
	return nil
}

// Include adds an entry to the pending block. build is called with the slot
// the entry takes; its events are stamped with the slot before the receipt
// is appended. Entries are included one at a time. With auto-mining, a block
// that fails to commit is kept pending and the receipt is still returned.
func (c *Chain) Include(build func(slot Slot) (*wallet.Receipt, error)) (*wallet.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nextTimestamp := c.nextTimestamp
	pending := c.openPending()
	slot := Slot{
		Number:    pending.number,
		Timestamp: time.Unix(int64(pending.timestamp), 0),
		Index:     uint32(len(pending.receipts)),
	}

	receipt, err := build(slot)
	if err != nil {
		// a block nothing was included in is not kept open
		if len(pending.receipts) == 0 {
			c.pending = nil
			c.nextTimestamp = nextTimestamp
		}
		return nil, err
	}

	receipt.BlockNumber = slot.Number
	receipt.BlockTimestamp = pending.timestamp
	receipt.OperationIndex = slot.Index
	for i := range receipt.Events {
		receipt.Events[i].BlockNumber = slot.Number
		receipt.Events[i].OperationHash = receipt.OperationHash
		receipt.Events[i].OperationIndex = slot.Index
		receipt.Events[i].EventIndex = uint32(i)
	}
	pending.receipts = append(pending.receipts, receipt)

	if c.autoMine {
		// build already committed the effects of the entry, so it is not
		// reported as failed. It stays in the pending block, which the next
		// mine commits.
		_, err = c.mineLocked()
		if err != nil {
			c.log.Error().Err(err).
				Uint64("block", slot.Number).
				Str("op_hash", receipt.OperationHash.Hex()).
				Msg("entry applied but its block could not be mined, block stays pending")
		}
	}
	return receipt, nil
}

// Mine commits the pending block, or an empty block if nothing is pending.
func (c *Chain) Mine(ctx context.Context) (*wallet.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mineLocked()
}

func (c *Chain) mineLocked() (*wallet.Block, error) {
	pending := c.openPending()
	block := &wallet.Block{
		Number:     pending.number,
		Timestamp:  pending.timestamp,
		Operations: make([]common.Hash, 0, len(pending.receipts)),
	}
	for _, receipt := range pending.receipts {
		block.Operations = append(block.Operations, receipt.OperationHash)
	}

	err := c.blocks.Commit(block, pending.receipts)
	if err != nil {
		return nil, fmt.Errorf("could not commit block %d: %w", block.Number, err)
	}

	c.latest = block
	c.pending = nil
	c.height.Store(block.Number)
	c.metrics.BlockMined(block.Number, len(block.Operations))

	c.log.Debug().
		Uint64("block", block.Number).
		Uint64("timestamp", block.Timestamp).
		Int("operations", len(block.Operations)).
		Msg("block mined")

	return block, nil
}

// openPending returns the pending block, opening one if needed. Block
// timestamps strictly increase.
func (c *Chain) openPending() *pendingBlock {
	if c.pending != nil {
		return c.pending
	}

	c.pending = &pendingBlock{
		number:    c.latest.Number + 1,
		timestamp: c.nextPendingTimestamp(),
	}
	c.nextTimestamp = 0
	return c.pending
}

func (c *Chain) nextPendingTimestamp() uint64 {
	timestamp := uint64(c.clock().Unix())
	if c.nextTimestamp != 0 {
		timestamp = c.nextTimestamp
	}
	if timestamp <= c.latest.Timestamp {
		timestamp = c.latest.Timestamp + 1
	}
	return timestamp
}

// Run mines a block every interval until ctx is canceled. Empty blocks are
// skipped.
func (c *Chain) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.pending != nil && len(c.pending.receipts) > 0 {
				_, err := c.mineLocked()
				if err != nil {
					c.log.Error().Err(err).Msg("could not mine block")
				}
			}
			c.mu.Unlock()
		}
	}
}

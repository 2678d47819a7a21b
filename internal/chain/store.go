// Package chain implements the append-only chain store and its
// proposer-distance fork-choice kernel. This is purely in-memory: an
// ordered slice of block hashes plus a hash-to-block map, with no
// persistence.
package chain

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
)

// AppendResult is the outcome of Store.Append.
type AppendResult int

const (
	// None means the candidate block was rejected or superseded; the
	// chain is unchanged.
	None AppendResult = iota
	// Added means the candidate extended (or seated) the chain.
	Added
	// NeedSync means the local chain is missing blocks; the caller
	// should request a sync starting at NeedSyncFrom.
	NeedSync
)

// Store is the append-only vector of block hashes indexed by block
// number, paired with a hash-to-block map. It owns no network or
// mempool state; Node is the only caller.
type Store struct {
	mu sync.RWMutex

	hashes []identity.H256
	blocks map[identity.H256]ledgertypes.Block

	// reorgReplay: when true, transactions discarded by a truncating
	// fork-choice win are handed back to the caller via Append's return
	// value so the node can reinsert them into its pending pool.
	// Default false drops them, matching how a naive in-memory ledger
	// would behave on reorg.
	reorgReplay bool

	log *logrus.Entry
}

// New creates an empty chain store.
func New(log *logrus.Entry) *Store {
	return &Store{
		blocks: make(map[identity.H256]ledgertypes.Block),
		log:    log.WithField("component", "chain"),
	}
}

// SetReorgReplay toggles the replay behavior described above.
func (s *Store) SetReorgReplay(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reorgReplay = enabled
}

// Height returns the number of seated blocks (0 before genesis).
func (s *Store) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.hashes))
}

// DataByNumber returns the block seated at number, if any.
func (s *Store) DataByNumber(number uint64) (ledgertypes.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if number >= uint64(len(s.hashes)) {
		return ledgertypes.Block{}, false
	}
	hash := s.hashes[number]
	block, ok := s.blocks[hash]
	return block, ok
}

// Tip returns the hash of the current chain tip. ok is false for an
// empty chain.
func (s *Store) Tip() (identity.H256, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.hashes) == 0 {
		return identity.H256{}, false
	}
	return s.hashes[len(s.hashes)-1], true
}

// AppendOutcome bundles the fork-choice verdict with whichever
// transactions the truncation replaced, when reorg replay is enabled.
type AppendOutcome struct {
	Result       AppendResult
	NeedSyncFrom uint64
	ReplacedTxs  []ledgertypes.Transaction
}

// Append runs the fork-choice kernel against block.
func (s *Store) Append(block ledgertypes.Block) AppendOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	number := block.Data.Number
	height := uint64(len(s.hashes))

	switch {
	case height == 0 && number == 0:
		s.appendUnchecked(block)
		return AppendOutcome{Result: Added}

	case number == 0:
		// non-empty chain, duplicate genesis.
		return AppendOutcome{Result: None}

	case number > height:
		return AppendOutcome{Result: NeedSync, NeedSyncFrom: height}

	case number == height:
		if block.Data.PrevHash != s.hashes[number-1] {
			// orphan: doesn't extend the tip.
			return AppendOutcome{Result: None}
		}
		s.appendUnchecked(block)
		return AppendOutcome{Result: Added}

	default: // number < height
		prevHash := s.hashes[number-1]
		if block.Data.PrevHash != prevHash {
			return AppendOutcome{Result: None}
		}

		currentHash := s.hashes[number]
		current := s.blocks[currentHash]

		currentDistance := current.Proposer.Distance(prevHash)
		newDistance := block.Proposer.Distance(prevHash)
		if !newDistance.Less(currentDistance) {
			// tie or current wins: keep incumbent.
			return AppendOutcome{Result: None}
		}

		replaced := s.truncateFrom(number)
		s.appendUnchecked(block)
		outcome := AppendOutcome{Result: NeedSync, NeedSyncFrom: number + 1}
		if s.reorgReplay {
			outcome.ReplacedTxs = replaced
		}
		return outcome
	}
}

// BalanceOf linearly scans every transaction in chain order, crediting
// amounts sent to address and debiting (saturating at zero) amounts
// sent from it.
func (s *Store) BalanceOf(address identity.H256) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var balance uint64
	for _, hash := range s.hashes {
		block := s.blocks[hash]
		for _, tx := range block.Data.Transactions {
			if tx.Data.To == address {
				balance += tx.Data.Amount
			}
			if tx.From == address {
				if tx.Data.Amount > balance {
					balance = 0
				} else {
					balance -= tx.Data.Amount
				}
			}
		}
	}
	return balance
}

func (s *Store) appendUnchecked(block ledgertypes.Block) {
	s.hashes = append(s.hashes, block.Hash)
	s.blocks[block.Hash] = block
	s.log.WithFields(logrus.Fields{
		"number": block.Data.Number,
		"hash":   block.Hash.String(),
	}).Debug("seated block")
}

// truncateFrom drops every block from number onward (inclusive) and
// returns the transactions they contained, in chain order.
func (s *Store) truncateFrom(number uint64) []ledgertypes.Transaction {
	var dropped []ledgertypes.Transaction
	for i := number; i < uint64(len(s.hashes)); i++ {
		hash := s.hashes[i]
		block := s.blocks[hash]
		dropped = append(dropped, block.Data.Transactions...)
		delete(s.blocks, hash)
	}
	s.hashes = s.hashes[:number]
	return dropped
}

// Package mempool implements the pending transaction pool: a map from
// transaction hash to Transaction, de-duplicated by hash, drained
// whenever the node proposes a block.
package mempool

import (
	"sync"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
)

// Pool holds transactions waiting to be included in a proposed block.
type Pool struct {
	mu  sync.Mutex
	txs map[identity.H256]ledgertypes.Transaction
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{txs: make(map[identity.H256]ledgertypes.Transaction)}
}

// Insert adds tx keyed by its hash. It reports whether the transaction
// was novel (false means it was already present and nothing changed).
func (p *Pool) Insert(tx ledgertypes.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.txs[tx.Hash]; exists {
		return false
	}
	p.txs[tx.Hash] = tx
	return true
}

// Drain removes and returns every pending transaction. The returned
// order is unspecified — block proposal does not depend on order.
func (p *Pool) Drain() []ledgertypes.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.txs) == 0 {
		return nil
	}
	out := make([]ledgertypes.Transaction, 0, len(p.txs))
	for _, tx := range p.txs {
		out = append(out, tx)
	}
	p.txs = make(map[identity.H256]ledgertypes.Transaction)
	return out
}

// Count returns the number of pending transactions.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs)
}

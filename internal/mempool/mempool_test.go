package mempool_test

import (
	"testing"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
	"github.com/orellis-labs/ledgernet/internal/mempool"
)

func fixedKey(b byte) identity.PrivateKey {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = b
	}
	key, err := identity.PrivateKeyFromBytes(raw)
	if err != nil {
		panic(err)
	}
	return key
}

func mustTx(t *testing.T, signer identity.PrivateKey, amount uint64) ledgertypes.Transaction {
	t.Helper()
	tx, err := ledgertypes.NewTransaction(ledgertypes.TransactionData{To: fixedKey(9).Address(), Amount: amount}, signer)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	return tx
}

func TestInsertReportsNovelty(t *testing.T) {
	pool := mempool.New()
	tx := mustTx(t, fixedKey(1), 1)

	if !pool.Insert(tx) {
		t.Fatal("expected the first insert of a transaction to be novel")
	}
	if pool.Insert(tx) {
		t.Fatal("expected re-inserting the same transaction to report no change")
	}
	if pool.Count() != 1 {
		t.Fatalf("expected count 1, got %d", pool.Count())
	}
}

func TestDrainEmptiesThePool(t *testing.T) {
	pool := mempool.New()
	pool.Insert(mustTx(t, fixedKey(1), 1))
	pool.Insert(mustTx(t, fixedKey(2), 2))

	drained := pool.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained transactions, got %d", len(drained))
	}
	if pool.Count() != 0 {
		t.Fatal("expected the pool to be empty after Drain")
	}
}

func TestDrainOnEmptyPoolReturnsNil(t *testing.T) {
	pool := mempool.New()
	if drained := pool.Drain(); drained != nil {
		t.Fatalf("expected nil from draining an empty pool, got %v", drained)
	}
}

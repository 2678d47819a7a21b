// Package ledgertypes implements the wire data model: transactions,
// blocks, node directory entries and their canonical hashing. Types
// here are immutable once constructed — callers build a new value
// rather than mutating an existing Transaction or Block.
package ledgertypes

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgererr"
)

// Endpoint is a UDP socket address, serialized on the wire the same
// way a Rust SocketAddr is under serde: a plain "host:port" string.
type Endpoint struct {
	net.UDPAddr
}

// NewEndpoint parses "host:port" into an Endpoint.
func NewEndpoint(s string) (Endpoint, error) {
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: %w", s, err)
	}
	return Endpoint{UDPAddr: *addr}, nil
}

// MarshalJSON renders the endpoint as "host:port".
func (e Endpoint) MarshalJSON() ([]byte, error) {
	return []byte(`"` + e.UDPAddr.String() + `"`), nil
}

// UnmarshalJSON parses a "host:port" JSON string.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("endpoint: empty value")
	}
	s := string(data[1 : len(data)-1])
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	e.UDPAddr = *addr
	return nil
}

// TransactionData is the payload a client signs: a transfer of amount
// to the to address.
type TransactionData struct {
	To     identity.H256 `json:"to"`
	Amount uint64        `json:"amount"`
}

// Hash is SHA-256 over `to || amount`, amount big-endian 8-byte.
func (d TransactionData) Hash() identity.H256 {
	buf := make([]byte, 0, 40)
	buf = append(buf, d.To[:]...)
	var amt [8]byte
	binary.BigEndian.PutUint64(amt[:], d.Amount)
	buf = append(buf, amt[:]...)
	return identity.HashOf(buf)
}

// Transaction is a signed, hash-addressed value transfer.
type Transaction struct {
	Hash      identity.H256      `json:"hash"`
	From      identity.H256      `json:"from"`
	Data      TransactionData    `json:"data"`
	Signature identity.Signature `json:"signature"`
}

// NewTransaction signs data with signer and assembles the transaction.
func NewTransaction(data TransactionData, signer identity.PrivateKey) (Transaction, error) {
	hash := data.Hash()
	sig, err := identity.Sign(signer, hash)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Hash:      hash,
		From:      signer.Address(),
		Data:      data,
		Signature: sig,
	}, nil
}

// Verify checks hash == data.Hash() and from == recover(signature, hash).
func (t Transaction) Verify() error {
	if t.Hash != t.Data.Hash() {
		return ledgererr.ErrHashMismatch
	}
	recovered, err := t.Signature.Recover(t.Hash)
	if err != nil {
		return err
	}
	if recovered != t.From {
		return ledgererr.ErrSignerMismatch
	}
	return nil
}

// BlockData is the unsigned body of a block.
type BlockData struct {
	PrevHash     identity.H256 `json:"prev_hash"`
	Number       uint64        `json:"number"`
	Transactions []Transaction `json:"transactions"`
}

// Hash is SHA-256 of `prev_hash || tx[0].hash || tx[1].hash || …`.
// Number is deliberately not folded into the hash.
func (d BlockData) Hash() identity.H256 {
	h := sha256.New()
	h.Write(d.PrevHash[:])
	for _, tx := range d.Transactions {
		h.Write(tx.Hash[:])
	}
	var out identity.H256
	copy(out[:], h.Sum(nil))
	return out
}

// Block is a signed, hash-addressed chain entry.
type Block struct {
	Hash      identity.H256      `json:"hash"`
	Data      BlockData          `json:"data"`
	Proposer  identity.H256      `json:"proposer"`
	Signature identity.Signature `json:"signature"`
}

// NewBlock signs data with signer and assembles the block.
func NewBlock(data BlockData, signer identity.PrivateKey) (Block, error) {
	hash := data.Hash()
	sig, err := identity.Sign(signer, hash)
	if err != nil {
		return Block{}, err
	}
	return Block{
		Hash:      hash,
		Data:      data,
		Proposer:  signer.Address(),
		Signature: sig,
	}, nil
}

// Verify checks hash == data.Hash() and proposer == recover(signature, hash).
func (b Block) Verify() error {
	if b.Hash != b.Data.Hash() {
		return ledgererr.ErrHashMismatch
	}
	recovered, err := b.Signature.Recover(b.Hash)
	if err != nil {
		return err
	}
	if recovered != b.Proposer {
		return ledgererr.ErrSignerMismatch
	}
	return nil
}

// Genesis builds the canonical all-zero-prev-hash height-0 block that
// every node hard-codes, signed by a fixed, publicly known key (32
// bytes of 0x01). Every node must produce the identical genesis block
// so chains converge without a bootstrap step.
func Genesis() Block {
	var genesisKeyBytes [32]byte
	for i := range genesisKeyBytes {
		genesisKeyBytes[i] = 0x01
	}
	signer, err := identity.PrivateKeyFromBytes(genesisKeyBytes[:])
	if err != nil {
		panic("genesis signing key must always parse: " + err.Error())
	}
	data := BlockData{
		PrevHash:     identity.H256{},
		Number:       0,
		Transactions: nil,
	}
	block, err := NewBlock(data, signer)
	if err != nil {
		panic("genesis block must always sign: " + err.Error())
	}
	return block
}

// NodeInfo is a peer directory entry.
type NodeInfo struct {
	Name    string        `json:"name"`
	Address identity.H256 `json:"address"`
	Socket  Endpoint      `json:"socket"`
}

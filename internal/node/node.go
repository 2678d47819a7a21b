// Package node implements the message-driven node state machine: a
// single-threaded receive/dispatch loop over the peer directory, chain
// store and pending pool. The loop is the only goroutine that changes
// any of them; the peer directory has its own mutex so that Peers can
// take a snapshot from other goroutines.
package node

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/orellis-labs/ledgernet/internal/chain"
	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgererr"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
	"github.com/orellis-labs/ledgernet/internal/mempool"
	"github.com/orellis-labs/ledgernet/internal/transport"
)

// Node owns the chain store, pending pool and peer directory, and
// drives them all from the single goroutine that calls Run.
type Node struct {
	info   ledgertypes.NodeInfo
	signer identity.PrivateKey

	transport *transport.Transport
	chain     *chain.Store
	pool      *mempool.Pool

	peersMu sync.Mutex
	peers   map[identity.H256]ledgertypes.NodeInfo

	sessionID string
	log       *logrus.Entry
}

// New binds the node's transport to info.Socket, seats the canonical
// genesis block, and — if bootstrap is non-nil — sends Hello(self) to
// it.
func New(signer identity.PrivateKey, info ledgertypes.NodeInfo, bootstrap *ledgertypes.Endpoint, log *logrus.Entry) (*Node, error) {
	sessionID := uuid.NewString()
	entry := log.WithFields(logrus.Fields{
		"component": "node",
		"node":      info.Name,
		"session":   sessionID,
	})

	tr, err := transport.Bind(info.Socket, entry)
	if err != nil {
		return nil, err
	}

	n := &Node{
		info:      info,
		signer:    signer,
		transport: tr,
		chain:     chain.New(entry),
		pool:      mempool.New(),
		peers:     make(map[identity.H256]ledgertypes.NodeInfo),
		sessionID: sessionID,
		log:       entry,
	}

	genesis := ledgertypes.Genesis()
	if outcome := n.chain.Append(genesis); outcome.Result != chain.Added {
		return nil, fmt.Errorf("node: failed to seat genesis block")
	}
	n.log.WithField("genesis", genesis.Hash.String()).Info("seated genesis block")

	if bootstrap != nil {
		n.log.WithField("bootstrap", bootstrap.String()).Info("sending hello to bootstrap peer")
		n.transport.Send(&bootstrap.UDPAddr, ledgertypes.HelloMessage(n.info))
	}

	return n, nil
}

// Close releases the node's transport socket.
func (n *Node) Close() error {
	return n.transport.Close()
}

// Address returns the node's own address.
func (n *Node) Address() identity.H256 { return n.info.Address }

// LocalAddr returns the UDP socket the node actually bound, which may
// differ from info.Socket when the caller requested an ephemeral port.
func (n *Node) LocalAddr() *net.UDPAddr { return n.transport.LocalAddr() }

// Peers returns a deterministically ordered snapshot of the peer
// directory, keyed by address.
func (n *Node) Peers() []ledgertypes.NodeInfo {
	n.peersMu.Lock()
	defer n.peersMu.Unlock()
	out := make([]ledgertypes.NodeInfo, 0, len(n.peers))
	for _, p := range n.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Less(out[j].Address)
	})
	return out
}

// Run is the main loop: receive one message, dispatch, repeat. It
// returns only once the local socket is closed (via Close), which
// surfaces from net.UDPConn as a use-of-closed-connection error.
// Every other receive failure — a malformed or truncated datagram — is
// logged and swallowed, and the loop reads again.
func (n *Node) Run() error {
	for {
		msg, from, err := n.transport.Receive()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			continue
		}
		n.dispatch(msg, from)
	}
}

func (n *Node) dispatch(msg ledgertypes.Message, from *net.UDPAddr) {
	switch {
	case msg.Hello != nil:
		n.handleHello(*msg.Hello)
	case msg.Transaction != nil:
		n.handleTransaction(*msg.Transaction)
	case msg.Block != nil:
		n.handleBlock(*msg.Block)
	case msg.SyncBlock != nil:
		n.handleSyncBlock(*msg.SyncBlock)
	case msg.BalanceOf != nil:
		n.handleBalanceOf(*msg.BalanceOf)
	default:
		n.log.WithError(ledgererr.ErrUnknownMessage).WithField("from", from.String()).Warn("dropping message")
	}
}

// handleHello ignores a Hello about the node itself; otherwise it
// inserts peer into the directory and, if it was novel, floods it
// onward to every other known peer.
func (n *Node) handleHello(peer ledgertypes.NodeInfo) {
	if peer.Address == n.info.Address {
		return
	}

	n.peersMu.Lock()
	_, known := n.peers[peer.Address]
	if !known {
		n.peers[peer.Address] = peer
	}
	n.peersMu.Unlock()

	if known {
		return
	}

	n.log.WithFields(logrus.Fields{"peer": peer.Address.String(), "name": peer.Name}).Info("learned new peer")
	n.broadcastExcept(ledgertypes.HelloMessage(peer), peer.Address)
}

// handleTransaction verifies, balance-checks, pools, rebroadcasts and
// triggers a proposal for a novel transaction.
func (n *Node) handleTransaction(tx ledgertypes.Transaction) {
	if err := tx.Verify(); err != nil {
		n.log.WithError(err).Warn("dropping transaction with invalid signature")
		return
	}

	if n.chain.BalanceOf(tx.From) < tx.Data.Amount {
		n.log.WithError(ledgererr.ErrInsufficientFunds).
			WithField("from", tx.From.String()).
			Warn("dropping transaction")
		return
	}

	if !n.pool.Insert(tx) {
		return // duplicate, absorbed silently.
	}

	n.log.WithField("hash", tx.Hash.String()).Info("accepted transaction")
	n.broadcast(ledgertypes.TransactionMessage(tx))
	n.proposeBlock()
}

// handleBlock rejects echoes of the node's own blocks, runs
// fork-choice, and reacts to the outcome.
func (n *Node) handleBlock(block ledgertypes.Block) {
	if err := block.Verify(); err != nil {
		n.log.WithError(err).Warn("dropping block with invalid signature")
		return
	}
	if block.Proposer == n.info.Address {
		return
	}

	outcome := n.chain.Append(block)
	switch outcome.Result {
	case chain.Added:
		n.log.WithField("number", block.Data.Number).Info("extended chain")
		n.broadcast(ledgertypes.BlockMessage(block))
	case chain.NeedSync:
		n.log.WithField("from", outcome.NeedSyncFrom).Info("requesting sync")
		for _, tx := range outcome.ReplacedTxs {
			n.pool.Insert(tx)
		}
		n.broadcast(ledgertypes.SyncBlockMessage(n.info.Address, outcome.NeedSyncFrom))
	case chain.None:
		// orphan, duplicate genesis or stale fork: dropped silently.
	}
}

// handleSyncBlock streams every block the requester is missing
// directly to its socket, as an unordered burst of bare Block
// datagrams.
func (n *Node) handleSyncBlock(req ledgertypes.SyncBlockRequest) {
	n.peersMu.Lock()
	requester, ok := n.peers[req.Requester]
	n.peersMu.Unlock()
	if !ok {
		n.log.WithError(ledgererr.ErrUnknownPeer).WithField("requester", req.Requester.String()).Warn("ignoring sync request")
		return
	}

	height := n.chain.Height()
	for i := req.Start; i < height; i++ {
		block, ok := n.chain.DataByNumber(i)
		if !ok {
			continue
		}
		n.transport.Send(&requester.Socket.UDPAddr, block)
	}
}

// handleBalanceOf computes the requested balance and sends it back as
// a bare JSON integer.
func (n *Node) handleBalanceOf(req ledgertypes.BalanceOfRequest) {
	balance := n.chain.BalanceOf(req.Address)
	n.transport.Send(&req.ReplyTo.UDPAddr, balance)
}

// proposeBlock drains the pending pool and proposes a new block
// extending the local tip, unconditionally (no fork-choice against
// itself). It is only ever called in reaction to a
// novel transaction; a node never proposes an empty block.
func (n *Node) proposeBlock() {
	txs := n.pool.Drain()

	prevHash, ok := n.chain.Tip()
	if !ok {
		n.log.WithError(ledgererr.ErrNoGenesisSeed).Error("cannot propose without a seated genesis block")
		return
	}

	data := ledgertypes.BlockData{
		PrevHash:     prevHash,
		Number:       n.chain.Height(),
		Transactions: txs,
	}
	block, err := ledgertypes.NewBlock(data, n.signer)
	if err != nil {
		n.log.WithError(err).Error("failed to sign proposed block")
		return
	}

	if outcome := n.chain.Append(block); outcome.Result != chain.Added {
		n.log.Error("proposed block failed to extend the local tip unexpectedly")
		return
	}

	n.log.WithFields(logrus.Fields{"number": block.Data.Number, "txs": len(txs)}).Info("proposed block")
	n.broadcast(ledgertypes.BlockMessage(block))
}

// broadcast sends msg to every known peer.
func (n *Node) broadcast(msg ledgertypes.Message) {
	for _, peer := range n.Peers() {
		n.transport.Send(&peer.Socket.UDPAddr, msg)
	}
}

// broadcastExcept sends msg to every known peer other than skip.
func (n *Node) broadcastExcept(msg ledgertypes.Message, skip identity.H256) {
	for _, peer := range n.Peers() {
		if peer.Address == skip {
			continue
		}
		n.transport.Send(&peer.Socket.UDPAddr, msg)
	}
}

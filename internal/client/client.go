// Package client implements the client-side half of the protocol: a
// request/response pair for balance queries, and fire-and-forget
// submission for transactions. It is the thin library cmd/ledgerclient
// drives; key generation, argument parsing and human-readable output
// stay in cmd/ledgerclient.
package client

import (
	"github.com/sirupsen/logrus"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
	"github.com/orellis-labs/ledgernet/internal/transport"
)

// Client binds a local socket and talks to a single target node.
type Client struct {
	transport *transport.Transport
	node      *ledgertypes.Endpoint
}

// Dial binds local and records the node endpoint subsequent calls
// target.
func Dial(local ledgertypes.Endpoint, node ledgertypes.Endpoint, log *logrus.Entry) (*Client, error) {
	tr, err := transport.Bind(local, log)
	if err != nil {
		return nil, err
	}
	return &Client{transport: tr, node: &node}, nil
}

// Close releases the client's local socket.
func (c *Client) Close() error {
	return c.transport.Close()
}

// LocalEndpoint returns the endpoint the client itself is bound to,
// which it must embed as the reply_to in a BalanceOf query.
func (c *Client) LocalEndpoint() (ledgertypes.Endpoint, error) {
	return ledgertypes.NewEndpoint(c.transport.LocalAddr().String())
}

// Balance sends a BalanceOf request for address and blocks for the
// single-shot reply. There is no retry: a lost datagram hangs here
// until the caller applies an external timeout.
func (c *Client) Balance(address identity.H256) (uint64, error) {
	local, err := c.LocalEndpoint()
	if err != nil {
		return 0, err
	}
	c.transport.Send(&c.node.UDPAddr, ledgertypes.BalanceOfMessage(local, address))
	return c.transport.ReceiveUint64()
}

// Transfer signs a transfer of amount to "to" with signer and sends it
// fire-and-forget to the node; it does not wait for any acknowledgment.
func (c *Client) Transfer(signer identity.PrivateKey, to identity.H256, amount uint64) (ledgertypes.Transaction, error) {
	tx, err := ledgertypes.NewTransaction(ledgertypes.TransactionData{To: to, Amount: amount}, signer)
	if err != nil {
		return ledgertypes.Transaction{}, err
	}
	c.transport.Send(&c.node.UDPAddr, ledgertypes.TransactionMessage(tx))
	return tx, nil
}

// Package transport implements datagram-oriented send/receive of
// JSON-encoded messages: one JSON message per UDP packet, a
// 1536-byte receive buffer, no framing, no retransmission, and no
// ordering guarantee across datagrams.
package transport

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/orellis-labs/ledgernet/internal/ledgererr"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
)

// maxDatagram is an MTU-safe receive buffer size.
const maxDatagram = 1536

// Transport binds one local UDP socket and exchanges Messages over it.
type Transport struct {
	conn *net.UDPConn
	log  *logrus.Entry
}

// Bind opens a UDP socket on the local address. Bind failure is fatal
// to the process.
func Bind(local ledgertypes.Endpoint, log *logrus.Entry) (*Transport, error) {
	conn, err := net.ListenUDP("udp", &local.UDPAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledgererr.ErrBind, err)
	}
	return &Transport{conn: conn, log: log.WithField("component", "transport")}, nil
}

// Close releases the local socket.
func (t *Transport) Close() error {
	return t.conn.Close()
}

// LocalAddr returns the bound local endpoint.
func (t *Transport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// Send serializes msg as JSON and transmits a single datagram to to.
// Failures are logged and swallowed, not raised, matching the
// best-effort gossip model the rest of this package follows.
func (t *Transport) Send(to *net.UDPAddr, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		t.log.WithError(err).Warn("failed to encode outbound message")
		return
	}
	if _, err := t.conn.WriteToUDP(payload, to); err != nil {
		t.log.WithError(fmt.Errorf("%w: %v", ledgererr.ErrSend, err)).
			WithField("to", to.String()).
			Warn("failed to send datagram")
	}
}

// Receive blocks until a datagram arrives and decodes it as a Message.
// A malformed datagram is logged and reported as an error; the caller
// should simply read again, since the loop tolerates any single bad
// packet.
func (t *Transport) Receive() (ledgertypes.Message, *net.UDPAddr, error) {
	buf := make([]byte, maxDatagram)
	n, from, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return ledgertypes.Message{}, nil, fmt.Errorf("%w: %w", ledgererr.ErrDecode, err)
	}

	var msg ledgertypes.Message
	if err := json.Unmarshal(buf[:n], &msg); err != nil {
		t.log.WithError(err).WithField("from", from.String()).Warn("failed to decode datagram")
		return ledgertypes.Message{}, from, fmt.Errorf("%w: %v", ledgererr.ErrDecode, err)
	}
	return msg, from, nil
}

// ReceiveBlock blocks for a single bare (untagged) Block datagram, the
// shape SyncBlock responses use.
func (t *Transport) ReceiveBlock() (ledgertypes.Block, error) {
	buf := make([]byte, maxDatagram)
	n, _, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return ledgertypes.Block{}, fmt.Errorf("%w: %v", ledgererr.ErrDecode, err)
	}
	var block ledgertypes.Block
	if err := json.Unmarshal(buf[:n], &block); err != nil {
		return ledgertypes.Block{}, fmt.Errorf("%w: %v", ledgererr.ErrDecode, err)
	}
	return block, nil
}

// ReceiveUint64 blocks for a single bare JSON integer datagram, the
// shape BalanceOf responses use.
func (t *Transport) ReceiveUint64() (uint64, error) {
	buf := make([]byte, maxDatagram)
	n, _, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ledgererr.ErrDecode, err)
	}
	var value uint64
	if err := json.Unmarshal(buf[:n], &value); err != nil {
		return 0, fmt.Errorf("%w: %v", ledgererr.ErrDecode, err)
	}
	return value, nil
}

package transport_test

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
	"github.com/orellis-labs/ledgernet/internal/transport"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func loopback(t *testing.T) ledgertypes.Endpoint {
	t.Helper()
	ep, err := ledgertypes.NewEndpoint("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	return ep
}

func TestSendAndReceiveMessageRoundTrip(t *testing.T) {
	a, err := transport.Bind(loopback(t), testLog())
	if err != nil {
		t.Fatalf("Bind a: %v", err)
	}
	defer a.Close()

	b, err := transport.Bind(loopback(t), testLog())
	if err != nil {
		t.Fatalf("Bind b: %v", err)
	}
	defer b.Close()

	info := ledgertypes.NodeInfo{
		Name:    "a",
		Address: identity.HashOf([]byte("a")),
	}
	msg := ledgertypes.HelloMessage(info)
	a.Send(b.LocalAddr(), msg)

	received, _, err := b.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if received.Hello == nil || received.Hello.Name != "a" {
		t.Fatalf("unexpected message: %+v", received)
	}
}

func TestReceiveUint64RoundTrip(t *testing.T) {
	a, err := transport.Bind(loopback(t), testLog())
	if err != nil {
		t.Fatalf("Bind a: %v", err)
	}
	defer a.Close()

	b, err := transport.Bind(loopback(t), testLog())
	if err != nil {
		t.Fatalf("Bind b: %v", err)
	}
	defer b.Close()

	a.Send(b.LocalAddr(), uint64(42))

	got, err := b.ReceiveUint64()
	if err != nil {
		t.Fatalf("ReceiveUint64: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestReceiveBlockRoundTrip(t *testing.T) {
	a, err := transport.Bind(loopback(t), testLog())
	if err != nil {
		t.Fatalf("Bind a: %v", err)
	}
	defer a.Close()

	b, err := transport.Bind(loopback(t), testLog())
	if err != nil {
		t.Fatalf("Bind b: %v", err)
	}
	defer b.Close()

	genesis := ledgertypes.Genesis()
	a.Send(b.LocalAddr(), genesis)

	got, err := b.ReceiveBlock()
	if err != nil {
		t.Fatalf("ReceiveBlock: %v", err)
	}
	if got.Hash != genesis.Hash {
		t.Fatal("round-tripped block does not match the original")
	}
}

func TestSendToUnreachableAddressDoesNotError(t *testing.T) {
	a, err := transport.Bind(loopback(t), testLog())
	if err != nil {
		t.Fatalf("Bind a: %v", err)
	}
	defer a.Close()

	unreachable, err := ledgertypes.NewEndpoint("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	// Send swallows the error; this must not panic and must return.
	a.Send(&unreachable.UDPAddr, uint64(1))
}

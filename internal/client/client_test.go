package client_test

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/orellis-labs/ledgernet/internal/client"
	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

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

func loopback(t *testing.T) ledgertypes.Endpoint {
	t.Helper()
	ep, err := ledgertypes.NewEndpoint("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	return ep
}

func TestDialRecordsLocalEndpoint(t *testing.T) {
	c, err := client.Dial(loopback(t), loopback(t), testLog())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	local, err := c.LocalEndpoint()
	if err != nil {
		t.Fatalf("LocalEndpoint: %v", err)
	}
	if local.UDPAddr.Port == 0 {
		t.Fatal("expected the bound ephemeral port to be resolved, got 0")
	}
}

func TestTransferSignsAgainstTheRequestedRecipient(t *testing.T) {
	c, err := client.Dial(loopback(t), loopback(t), testLog())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	signer := fixedKey(1)
	recipient := fixedKey(2).Address()
	tx, err := c.Transfer(signer, recipient, 5)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if tx.Data.To != recipient || tx.Data.Amount != 5 {
		t.Fatalf("unexpected transaction data: %+v", tx.Data)
	}
	if tx.From != signer.Address() {
		t.Fatalf("expected transaction From to be the signer's address")
	}
	if err := tx.Verify(); err != nil {
		t.Fatalf("expected the client to produce a self-consistent signed transaction: %v", err)
	}
}

package ledgertypes_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgertypes"
)

func mustEndpoint(t *testing.T, s string) ledgertypes.Endpoint {
	t.Helper()
	ep, err := ledgertypes.NewEndpoint(s)
	if err != nil {
		t.Fatalf("NewEndpoint(%q): %v", s, err)
	}
	return ep
}

func TestMessageHelloRoundTrip(t *testing.T) {
	info := ledgertypes.NodeInfo{
		Name:    "node-a",
		Address: identity.HashOf([]byte("a")),
		Socket:  mustEndpoint(t, "127.0.0.1:9000"),
	}
	msg := ledgertypes.HelloMessage(info)

	encoded, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.HasPrefix(string(encoded), `{"Hello":`) {
		t.Fatalf("expected a Hello-tagged envelope, got %s", encoded)
	}

	var decoded ledgertypes.Message
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Hello == nil || decoded.Hello.Name != "node-a" {
		t.Fatalf("round trip lost the Hello payload: %+v", decoded)
	}
}

func TestMessageSyncBlockRoundTrip(t *testing.T) {
	addr := identity.HashOf([]byte("requester"))
	msg := ledgertypes.SyncBlockMessage(addr, 3)

	encoded, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded ledgertypes.Message
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.SyncBlock == nil {
		t.Fatal("round trip lost the SyncBlock payload")
	}
	if decoded.SyncBlock.Requester != addr || decoded.SyncBlock.Start != 3 {
		t.Fatalf("unexpected SyncBlock payload: %+v", decoded.SyncBlock)
	}
}

func TestMessageBalanceOfRoundTrip(t *testing.T) {
	replyTo := mustEndpoint(t, "127.0.0.1:9100")
	addr := identity.HashOf([]byte("queried"))
	msg := ledgertypes.BalanceOfMessage(replyTo, addr)

	encoded, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded ledgertypes.Message
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.BalanceOf == nil || decoded.BalanceOf.Address != addr {
		t.Fatalf("round trip lost the BalanceOf payload: %+v", decoded)
	}
}

func TestMessageRejectsMultipleTags(t *testing.T) {
	raw := []byte(`{"Hello": {}, "Block": {}}`)
	var msg ledgertypes.Message
	if err := json.Unmarshal(raw, &msg); err == nil {
		t.Fatal("expected an error for an envelope carrying two tags")
	}
}

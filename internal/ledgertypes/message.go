package ledgertypes

import (
	"encoding/json"
	"fmt"

	"github.com/orellis-labs/ledgernet/internal/identity"
	"github.com/orellis-labs/ledgernet/internal/ledgererr"
)

// Message is the tagged union carried over the transport:
// {"Hello": NodeInfo}, {"Transaction": Transaction},
// {"Block": Block}, {"SyncBlock": [address, start]},
// {"BalanceOf": [reply_to, address]}.
type Message struct {
	Hello       *NodeInfo
	Transaction *Transaction
	Block       *Block
	SyncBlock   *SyncBlockRequest
	BalanceOf   *BalanceOfRequest
}

// SyncBlockRequest asks a peer to stream blocks starting at Start.
type SyncBlockRequest struct {
	Requester identity.H256
	Start     uint64
}

// BalanceOfRequest asks a node to answer a balance query at ReplyTo.
type BalanceOfRequest struct {
	ReplyTo Endpoint
	Address identity.H256
}

// HelloMessage wraps a NodeInfo as an outbound Hello message.
func HelloMessage(info NodeInfo) Message { return Message{Hello: &info} }

// TransactionMessage wraps a Transaction as an outbound message.
func TransactionMessage(tx Transaction) Message { return Message{Transaction: &tx} }

// BlockMessage wraps a Block as an outbound message.
func BlockMessage(b Block) Message { return Message{Block: &b} }

// SyncBlockMessage builds an outbound sync request.
func SyncBlockMessage(requester identity.H256, start uint64) Message {
	return Message{SyncBlock: &SyncBlockRequest{Requester: requester, Start: start}}
}

// BalanceOfMessage builds an outbound balance query.
func BalanceOfMessage(replyTo Endpoint, address identity.H256) Message {
	return Message{BalanceOf: &BalanceOfRequest{ReplyTo: replyTo, Address: address}}
}

func (m Message) MarshalJSON() ([]byte, error) {
	switch {
	case m.Hello != nil:
		return json.Marshal(struct {
			Hello NodeInfo `json:"Hello"`
		}{*m.Hello})
	case m.Transaction != nil:
		return json.Marshal(struct {
			Transaction Transaction `json:"Transaction"`
		}{*m.Transaction})
	case m.Block != nil:
		return json.Marshal(struct {
			Block Block `json:"Block"`
		}{*m.Block})
	case m.SyncBlock != nil:
		return json.Marshal(struct {
			SyncBlock [2]json.RawMessage `json:"SyncBlock"`
		}{[2]json.RawMessage{
			rawMustMarshal(m.SyncBlock.Requester),
			rawMustMarshal(m.SyncBlock.Start),
		}})
	case m.BalanceOf != nil:
		return json.Marshal(struct {
			BalanceOf [2]json.RawMessage `json:"BalanceOf"`
		}{[2]json.RawMessage{
			rawMustMarshal(m.BalanceOf.ReplyTo),
			rawMustMarshal(m.BalanceOf.Address),
		}})
	default:
		return nil, fmt.Errorf("ledgertypes: %w", ledgererr.ErrUnknownMessage)
	}
}

func rawMustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("ledgertypes: decode message envelope: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("ledgertypes: %w: expected exactly one tag", ledgererr.ErrUnknownMessage)
	}

	for tag, raw := range tagged {
		switch tag {
		case "Hello":
			var info NodeInfo
			if err := json.Unmarshal(raw, &info); err != nil {
				return fmt.Errorf("ledgertypes: decode Hello: %w", err)
			}
			m.Hello = &info
		case "Transaction":
			var tx Transaction
			if err := json.Unmarshal(raw, &tx); err != nil {
				return fmt.Errorf("ledgertypes: decode Transaction: %w", err)
			}
			m.Transaction = &tx
		case "Block":
			var b Block
			if err := json.Unmarshal(raw, &b); err != nil {
				return fmt.Errorf("ledgertypes: decode Block: %w", err)
			}
			m.Block = &b
		case "SyncBlock":
			var pair [2]json.RawMessage
			if err := json.Unmarshal(raw, &pair); err != nil {
				return fmt.Errorf("ledgertypes: decode SyncBlock: %w", err)
			}
			var req SyncBlockRequest
			if err := json.Unmarshal(pair[0], &req.Requester); err != nil {
				return fmt.Errorf("ledgertypes: decode SyncBlock requester: %w", err)
			}
			if err := json.Unmarshal(pair[1], &req.Start); err != nil {
				return fmt.Errorf("ledgertypes: decode SyncBlock start: %w", err)
			}
			m.SyncBlock = &req
		case "BalanceOf":
			var pair [2]json.RawMessage
			if err := json.Unmarshal(raw, &pair); err != nil {
				return fmt.Errorf("ledgertypes: decode BalanceOf: %w", err)
			}
			var req BalanceOfRequest
			if err := json.Unmarshal(pair[0], &req.ReplyTo); err != nil {
				return fmt.Errorf("ledgertypes: decode BalanceOf reply_to: %w", err)
			}
			if err := json.Unmarshal(pair[1], &req.Address); err != nil {
				return fmt.Errorf("ledgertypes: decode BalanceOf address: %w", err)
			}
			m.BalanceOf = &req
		default:
			return fmt.Errorf("ledgertypes: %w: tag %q", ledgererr.ErrUnknownMessage, tag)
		}
	}
	return nil
}

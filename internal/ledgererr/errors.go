// Package ledgererr collects the sentinel errors shared across the
// identity, ledgertypes, transport and node packages.
package ledgererr

import "errors"

// Identity / signature errors.
var (
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrKeyGeneration     = errors.New("key generation failed")
	ErrInvalidPrivateKey = errors.New("invalid private key hex")
)

// Transaction / block validation errors.
var (
	ErrHashMismatch      = errors.New("stored hash does not match recomputed hash")
	ErrSignerMismatch    = errors.New("recovered address does not match stored signer")
	ErrInsufficientFunds = errors.New("sender balance is lower than the transfer amount")
)

// Chain store errors.
var (
	ErrDuplicateGenesis = errors.New("chain already has a genesis block")
	ErrOrphanBlock      = errors.New("block does not extend any known chain tip")
	ErrUnknownHeight    = errors.New("no block at the requested height")
)

// Transport errors.
var (
	ErrBind   = errors.New("transport failed to bind local socket")
	ErrSend   = errors.New("transport failed to send datagram")
	ErrDecode = errors.New("transport failed to decode datagram")
)

// Node / dispatch errors.
var (
	ErrUnknownPeer    = errors.New("sync requested by an unknown peer")
	ErrNoGenesisSeed  = errors.New("node asked to propose before genesis was seated")
	ErrUnknownMessage = errors.New("message carries no recognized tag")
)

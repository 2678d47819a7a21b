// Package identity implements the secp256k1 key, address and
// recoverable-signature scheme that binds transactions and blocks to
// H256 addresses.
//
// An address is the SHA-256 of a public key's uncompressed SEC1 point
// encoding, and a signature is verified by recovering the signer's
// public key rather than by classical verify-against-known-key.
package identity

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/orellis-labs/ledgernet/internal/ledgererr"
)

// H256 is a 32-byte identifier used both as an account address and as
// a block proposer identity.
type H256 [32]byte

// Distance returns the absolute difference between h and other,
// interpreting both as big-endian 256-bit unsigned integers.
func (h H256) Distance(other H256) H256 {
	borrow := 0
	var diff [32]byte
	a, b := h, other
	if !less(a, b) {
		// a >= b, diff = a - b
	} else {
		a, b = b, a
	}
	for i := 31; i >= 0; i-- {
		v := int(a[i]) - int(b[i]) - borrow
		if v < 0 {
			v += 256
			borrow = 1
		} else {
			borrow = 0
		}
		diff[i] = byte(v)
	}
	return diff
}

// less reports whether a < b, treating both as big-endian integers.
func less(a, b H256) bool {
	return a.Less(b)
}

// Less reports whether h < other, treating both as big-endian 256-bit
// unsigned integers.
func (h H256) Less(other H256) bool {
	for i := 0; i < 32; i++ {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

func (h H256) String() string {
	return fmt.Sprintf("%x", h[:])
}

// Bytes returns the raw 32 bytes backing h.
func (h H256) Bytes() []byte { return h[:] }

// HashOf returns the SHA-256 digest of data as an H256.
func HashOf(data []byte) H256 {
	return H256(sha256.Sum256(data))
}

// PrivateKey wraps a secp256k1 signing key.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// GenerateKey produces a random secp256k1 private key.
func GenerateKey() (PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return PrivateKey{}, fmt.Errorf("%w: %v", ledgererr.ErrKeyGeneration, err)
	}
	return PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes parses a 32-byte big-endian scalar into a
// private key, as accepted by the client's --key flag.
func PrivateKeyFromBytes(raw []byte) (PrivateKey, error) {
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("%w: %v", ledgererr.ErrInvalidPrivateKey, err)
	}
	return PrivateKey{key: key}, nil
}

// Bytes returns the 32-byte big-endian scalar of the private key.
func (k PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.key)
}

// Address returns the H256 address derived from the key's public half.
func (k PrivateKey) Address() H256 {
	return AddressOf(&k.key.PublicKey)
}

// AddressOf hashes a public key's uncompressed SEC1 encoding into an
// address.
func AddressOf(pub *ecdsa.PublicKey) H256 {
	encoded := crypto.FromECDSAPub(pub)
	return HashOf(encoded)
}

// Signature is an (r, s, recovery_id) recoverable ECDSA signature.
type Signature struct {
	R          H256 `json:"r"`
	S          H256 `json:"s"`
	RecoveryID byte `json:"recovery_id"`
}

// Sign produces an ECDSA signature over a 32-byte prehash.
func Sign(key PrivateKey, hash H256) (Signature, error) {
	sig, err := crypto.Sign(hash[:], key.key)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ledgererr.ErrInvalidSignature, err)
	}
	var s Signature
	copy(s.R[:], sig[0:32])
	copy(s.S[:], sig[32:64])
	s.RecoveryID = sig[64]
	return s, nil
}

// Recover reconstructs the address that produced sig over hash. It
// fails with ledgererr.ErrInvalidSignature when recovery itself
// fails; a mismatch against an expected address is the caller's
// concern (see Transaction.Verify / Block.Verify).
func (s Signature) Recover(hash H256) (H256, error) {
	raw := make([]byte, 65)
	copy(raw[0:32], s.R[:])
	copy(raw[32:64], s.S[:])
	raw[64] = s.RecoveryID

	pub, err := crypto.SigToPub(hash[:], raw)
	if err != nil {
		return H256{}, fmt.Errorf("%w: %v", ledgererr.ErrInvalidSignature, err)
	}
	return AddressOf(pub), nil
}

// Verify recovers the signer of hash and checks it against address.
func (s Signature) Verify(hash H256, address H256) error {
	recovered, err := s.Recover(hash)
	if err != nil {
		return err
	}
	if recovered != address {
		return ledgererr.ErrInvalidSignature
	}
	return nil
}

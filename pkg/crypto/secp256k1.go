package crypto

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Transparent inputs are authorized with Bitcoin-style secp256k1 ECDSA:
// DER signatures over the per-input sighash, compressed 33-byte public keys
// and WIF-encoded private keys.

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key        *secp256k1.PrivateKey
	compressed bool
}

// PublicKey wraps a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// ParsePrivateKeyWIF parses a WIF-encoded private key and checks its version
// byte against the network's.
func ParsePrivateKeyWIF(wif string, version byte) (*PrivateKey, error) {
	raw, compressed, err := decodeWIF(wif, version)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(raw), compressed: compressed}, nil
}

// PrivateKeyFromBytes creates a compressed-pubkey private key from 32 raw bytes.
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}
	key := secp256k1.PrivKeyFromBytes(keyBytes)
	if key.Key.IsZero() {
		return nil, errors.New("private key is zero modulo the curve order")
	}
	return &PrivateKey{key: key, compressed: true}, nil
}

// Sign returns a DER-encoded ECDSA signature over hash.
func (pk *PrivateKey) Sign(hash [32]byte) []byte {
	return ecdsa.Sign(pk.key, hash[:]).Serialize()
}

// PublicKey derives the public key.
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Compressed reports whether the key's address uses the compressed pubkey.
func (pk *PrivateKey) Compressed() bool {
	return pk.compressed
}

// Bytes returns the raw 32-byte private key.
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// SerializeCompressed returns the 33-byte compressed public key.
func (pub *PublicKey) SerializeCompressed() [33]byte {
	var result [33]byte
	copy(result[:], pub.key.SerializeCompressed())
	return result
}

// SerializeUncompressed returns the 65-byte uncompressed public key.
func (pub *PublicKey) SerializeUncompressed() []byte {
	return pub.key.SerializeUncompressed()
}

// ParsePublicKey parses a compressed or uncompressed public key.
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &PublicKey{key: pubKey}, nil
}

// VerifySignature verifies a DER-encoded ECDSA signature.
func VerifySignature(pubkey *PublicKey, hash [32]byte, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash[:], pubkey.key)
}

// decodeWIF decodes version || key (32 bytes) || [0x01] || checksum (4 bytes).
func decodeWIF(wif string, version byte) ([]byte, bool, error) {
	decoded := base58.Decode(wif)
	if len(decoded) != 37 && len(decoded) != 38 {
		return nil, false, errors.New("invalid WIF length")
	}
	if decoded[0] != version {
		return nil, false, fmt.Errorf("invalid WIF version byte: 0x%02x", decoded[0])
	}

	checksumOffset := len(decoded) - 4
	payload := decoded[:checksumOffset]
	if !bytes.Equal(checksum(payload), decoded[checksumOffset:]) {
		return nil, false, errors.New("WIF checksum mismatch")
	}

	compressed := len(payload) == 34
	if compressed && payload[33] != 0x01 {
		return nil, false, fmt.Errorf("invalid WIF compression flag 0x%02x", payload[33])
	}
	return payload[1:33], compressed, nil
}

// EncodeWIF encodes a private key in Wallet Import Format.
func EncodeWIF(privateKey []byte, compressed bool, version byte) (string, error) {
	if len(privateKey) != 32 {
		return "", errors.New("private key must be 32 bytes")
	}

	payload := make([]byte, 0, 38)
	payload = append(payload, version)
	payload = append(payload, privateKey...)
	if compressed {
		payload = append(payload, 0x01)
	}
	payload = append(payload, checksum(payload)...)
	return base58.Encode(payload), nil
}

// checksum returns the first four bytes of SHA256(SHA256(b)).
func checksum(b []byte) []byte {
	h1 := sha256.Sum256(b)
	h2 := sha256.Sum256(h1[:])
	return h2[:4]
}

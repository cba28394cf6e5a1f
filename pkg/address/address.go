// Package address encodes and decodes BitcoinZ transparent addresses.
//
// A transparent address is Base58Check(prefix || hash160) where prefix is
// two bytes chosen by the network and the address kind.
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcutil/base58"

	"github.com/suffix-labs/btcz-shielded/pkg/params"
)

// Kind is the type of a transparent address.
type Kind byte

// Address kinds.
const (
	PubKeyHash Kind = iota // P2PKH
	ScriptHash             // P2SH
)

func (k Kind) String() string {
	switch k {
	case PubKeyHash:
		return "p2pkh"
	case ScriptHash:
		return "p2sh"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// HashSize is the length of the hash an address commits to.
const HashSize = 20

var (
	// ErrChecksum is returned when the Base58Check checksum does not match.
	ErrChecksum = errors.New("address: checksum mismatch")
	// ErrUnknownPrefix is returned for a prefix of no known kind.
	ErrUnknownPrefix = errors.New("address: unknown prefix")
	// ErrNonStandardScript is returned by FromScript for other templates.
	ErrNonStandardScript = errors.New("address: script is not p2pkh or p2sh")
)

// Address is a decoded transparent address.
type Address struct {
	Kind Kind
	Hash [HashSize]byte
	Net  *params.Network
}

// FromPubKey returns the P2PKH address of a serialized public key.
func FromPubKey(pubKey []byte, net *params.Network) *Address {
	a := &Address{Kind: PubKeyHash, Net: net}
	copy(a.Hash[:], btcutil.Hash160(pubKey))
	return a
}

// FromScriptHash returns the P2SH address of a redeem script.
func FromScriptHash(redeemScript []byte, net *params.Network) *Address {
	a := &Address{Kind: ScriptHash, Net: net}
	copy(a.Hash[:], btcutil.Hash160(redeemScript))
	return a
}

// Decode parses a Base58Check address for net.
func Decode(s string, net *params.Network) (*Address, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		if errors.Is(err, base58.ErrChecksum) {
			return nil, ErrChecksum
		}
		return nil, fmt.Errorf("address: decoding %q: %w", s, err)
	}
	if len(payload) != 1+HashSize {
		return nil, fmt.Errorf("address: %q has %d payload bytes, want %d", s, len(payload), 1+HashSize)
	}

	prefix := [2]byte{version, payload[0]}
	a := &Address{Net: net}
	switch prefix {
	case net.PubKeyHashPrefix:
		a.Kind = PubKeyHash
	case net.ScriptHashPrefix:
		a.Kind = ScriptHash
	default:
		return nil, fmt.Errorf("%w %x for %s", ErrUnknownPrefix, prefix, net.Name)
	}
	copy(a.Hash[:], payload[1:])
	return a, nil
}

func (a *Address) prefix() [2]byte {
	if a.Kind == ScriptHash {
		return a.Net.ScriptHashPrefix
	}
	return a.Net.PubKeyHashPrefix
}

// String returns the Base58Check encoding.
func (a *Address) String() string {
	p := a.prefix()
	data := make([]byte, 0, 1+HashSize)
	data = append(data, p[1])
	data = append(data, a.Hash[:]...)
	return base58.CheckEncode(data, p[0])
}

// Script returns the scriptPubKey paying to the address.
func (a *Address) Script() ([]byte, error) {
	b := txscript.NewScriptBuilder()
	switch a.Kind {
	case PubKeyHash:
		b.AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).AddData(a.Hash[:]).
			AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG)
	case ScriptHash:
		b.AddOp(txscript.OP_HASH160).AddData(a.Hash[:]).AddOp(txscript.OP_EQUAL)
	default:
		return nil, fmt.Errorf("address: cannot build script for %s", a.Kind)
	}
	return b.Script()
}

// FromScript extracts the address a standard scriptPubKey pays to.
func FromScript(script []byte, net *params.Network) (*Address, error) {
	a := &Address{Net: net}
	switch {
	case len(script) == 25 &&
		script[0] == txscript.OP_DUP && script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 &&
		script[23] == txscript.OP_EQUALVERIFY && script[24] == txscript.OP_CHECKSIG:
		a.Kind = PubKeyHash
		copy(a.Hash[:], script[3:23])
	case len(script) == 23 &&
		script[0] == txscript.OP_HASH160 && script[1] == txscript.OP_DATA_20 &&
		script[22] == txscript.OP_EQUAL:
		a.Kind = ScriptHash
		copy(a.Hash[:], script[2:22])
	default:
		return nil, ErrNonStandardScript
	}
	return a, nil
}

// Equal reports whether a and b encode the same address.
func (a *Address) Equal(b *Address) bool {
	return a.Kind == b.Kind && bytes.Equal(a.Hash[:], b.Hash[:]) && a.prefix() == b.prefix()
}

// Package sapling builds the shielded components of a v4 transaction.
//
// The heavy lifting is delegated to capabilities supplied by the caller: a
// Prover for Groth16 proofs and a NoteEncrypter for note ciphertexts. This
// package draws the per-description randomness, checks what the capabilities
// return, and reports the rcv blinding factors the binding signature needs.
package sapling

import (
	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
)

// ExpandSeedPersonalization personalizes PRF^expand.
const ExpandSeedPersonalization = "Zcash_ExpandSeed"

// PRF^expand domain separators.
const (
	prfExpandAsk = 0x00
	prfExpandNsk = 0x01
	prfExpandOvk = 0x02
	prfExpandRcm = 0x04
	prfExpandEsk = 0x05
)

// DiversifierSize is the length of a Sapling diversifier.
const DiversifierSize = 11

// Diversifier selects one of a key's payment addresses.
type Diversifier [DiversifierSize]byte

// OutgoingViewingKey lets the sender recover the outputs they created.
type OutgoingViewingKey [32]byte

// PaymentAddress is a Sapling recipient. Gd is DiversifyHash(d), which the
// wallet layer derives alongside the address.
type PaymentAddress struct {
	Diversifier Diversifier
	Gd          jubjub.Point // diversified base
	PkD         jubjub.Point // diversified transmission key, [ivk]Gd
}

// ExpandedSpendingKey is (ask, nsk, ovk).
type ExpandedSpendingKey struct {
	Ask jubjub.Scalar      // spend authorizing key
	Nsk jubjub.Scalar      // nullifier private key
	Ovk OutgoingViewingKey // outgoing viewing key
}

// ProofGenerationKey is what the prover needs to prove a spend.
type ProofGenerationKey struct {
	Ak  jubjub.Point // [ask]G_spend
	Nsk jubjub.Scalar
}

// prfExpand computes BLAKE2b-512("Zcash_ExpandSeed", sk || t).
func prfExpand(sk []byte, t ...byte) []byte {
	h, err := blake2b.New(&blake2b.Config{Size: 64, Person: []byte(ExpandSeedPersonalization)})
	if err != nil {
		panic(err)
	}
	h.Write(sk)
	h.Write(t)
	return h.Sum(nil)
}

// ExpandSpendingKey derives the expanded key from a 32-byte spending key.
func ExpandSpendingKey(sk [32]byte) *ExpandedSpendingKey {
	k := &ExpandedSpendingKey{
		Ask: jubjub.ScalarFromWide(prfExpand(sk[:], prfExpandAsk)),
		Nsk: jubjub.ScalarFromWide(prfExpand(sk[:], prfExpandNsk)),
	}
	copy(k.Ovk[:], prfExpand(sk[:], prfExpandOvk)[:32])
	return k
}

// ProofGenerationKey returns (ak, nsk).
func (k *ExpandedSpendingKey) ProofGenerationKey() ProofGenerationKey {
	return ProofGenerationKey{
		Ak:  jubjub.SaplingGenerators().SpendAuth.Mul(k.Ask),
		Nsk: k.Nsk,
	}
}

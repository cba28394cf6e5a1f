package crypto

import (
	"io"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
)

// BindingMessageSize is the length of the binding signature message.
const BindingMessageSize = 64

// BindingKey is a binding signing key and its verification key. bvk is
// always derived from bsk and is never carried alone.
type BindingKey struct {
	Bsk jubjub.Scalar
	Bvk jubjub.Point
}

// BindingSignatureEngine derives binding keys and produces the binding
// signature of a shielded transaction.
//
// BitcoinZ signs the 64-byte message legacy(bvk) || sighash rather than the
// bare sighash.
type BindingSignatureEngine struct {
	base jubjub.Point
}

// NewBindingSignatureEngine returns an engine over the given basepoint. The
// basepoint must be the generator value commitments are blinded with for the
// value balance identity to hold.
func NewBindingSignatureEngine(base jubjub.Point) *BindingSignatureEngine {
	return &BindingSignatureEngine{base: base}
}

// Basepoint returns the binding signature basepoint.
func (e *BindingSignatureEngine) Basepoint() jubjub.Point {
	return e.base
}

// Finalize derives bvk = [bsk]G.
func (e *BindingSignatureEngine) Finalize(bsk jubjub.Scalar) BindingKey {
	return BindingKey{Bsk: bsk, Bvk: e.base.Mul(bsk)}
}

// BindingMessage returns legacy(bvk) || sighash.
func BindingMessage(bvk jubjub.Point, sighash [32]byte) [BindingMessageSize]byte {
	var msg [BindingMessageSize]byte
	enc := bvk.LegacyBytes()
	copy(msg[:32], enc[:])
	copy(msg[32:], sighash[:])
	return msg
}

// Sign produces the binding signature over sighash.
func (e *BindingSignatureEngine) Sign(rng io.Reader, key BindingKey, sighash [32]byte) ([SignatureSize]byte, error) {
	msg := BindingMessage(key.Bvk, sighash)
	return SignRedJubjub(rng, key.Bsk, e.base, msg[:])
}

// Verify checks a binding signature against bvk.
func (e *BindingSignatureEngine) Verify(bvk jubjub.Point, sighash [32]byte, sig [SignatureSize]byte) bool {
	msg := BindingMessage(bvk, sighash)
	return VerifyRedJubjub(bvk, e.base, msg[:], sig)
}

// CheckValueBalance reports whether
//
//	sum(cv_spend) - sum(cv_output) - [valueBalance]G_v == bvk
//
// which is what a verifier recomputes bvk from.
func CheckValueBalance(gens jubjub.Generators, spendCVs, outputCVs []jubjub.Point, valueBalance int64, bvk jubjub.Point) bool {
	return DeriveBindingVerificationKey(gens, spendCVs, outputCVs, valueBalance).Equal(bvk)
}

// DeriveBindingVerificationKey computes bvk from the value commitments the
// way a verifier does.
func DeriveBindingVerificationKey(gens jubjub.Generators, spendCVs, outputCVs []jubjub.Point, valueBalance int64) jubjub.Point {
	acc := jubjub.Identity()
	for _, cv := range spendCVs {
		acc = acc.Add(cv)
	}
	for _, cv := range outputCVs {
		acc = acc.Sub(cv)
	}
	return acc.Sub(gens.ValueCommitmentValue.Mul(jubjub.ScalarFromInt64(valueBalance)))
}

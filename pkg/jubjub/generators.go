package jubjub

import (
	"encoding/hex"
	"fmt"
)

// Sapling fixed generators in legacy encoding. These are outputs of the
// Sapling group hash (BLAKE2s based) and are pinned rather than recomputed.
const (
	// valueCommitmentValueHex is GroupHash("Zcash_cv", "v").
	valueCommitmentValueHex = "d7c86706f5817aa718cd1cfad03233bcd64a7789fd9422d3b17af6823a7e6ac6"
	// valueCommitmentRandomnessHex is GroupHash("Zcash_cv", "r").
	valueCommitmentRandomnessHex = "8b6a0b38b9faae3c3b803b47b0f146ad50ab221e6e2afbe6dbde45cba9d381ed"
	// spendAuthHex is GroupHash("Zcash_G_", ""), the spend authorization base.
	spendAuthHex = "30b5f2aaad325630bcdddbce4d67656d05fd1cc2d037bb5375b6e96d9e01a1d7"
	// subgroupHex is the jubjub crate's prime-order subgroup generator.
	subgroupHex = "cb550cd538ea0cc1138480408e6eaab9b36c613f0dd3f7784fdb6eea837b13d7"
)

// Generators holds the fixed bases used by value commitments and signatures.
type Generators struct {
	// ValueCommitmentValue is multiplied by the note value.
	ValueCommitmentValue Point
	// ValueCommitmentRandomness is multiplied by rcv. It is also the basepoint
	// for binding signatures, so bvk = bsk * ValueCommitmentRandomness.
	ValueCommitmentRandomness Point
	// SpendAuth is the basepoint for spend authorization keys.
	SpendAuth Point
}

var (
	saplingGenerators Generators
	subgroupGenerator Point
)

func init() {
	saplingGenerators = Generators{
		ValueCommitmentValue:      mustDecodeLegacyHex(valueCommitmentValueHex),
		ValueCommitmentRandomness: mustDecodeLegacyHex(valueCommitmentRandomnessHex),
		SpendAuth:                 mustDecodeLegacyHex(spendAuthHex),
	}
	subgroupGenerator = mustDecodeLegacyHex(subgroupHex)
}

// SaplingGenerators returns the Sapling generator set.
func SaplingGenerators() Generators {
	return saplingGenerators
}

// SubgroupGenerator returns the generator of the prime-order subgroup as
// defined by the jubjub crate.
func SubgroupGenerator() Point {
	return subgroupGenerator
}

// ValueCommitment returns [value]G_v + [rcv]G_r.
func (g Generators) ValueCommitment(value Scalar, rcv Scalar) Point {
	return g.ValueCommitmentValue.Mul(value).Add(g.ValueCommitmentRandomness.Mul(rcv))
}

func mustDecodeLegacyHex(s string) Point {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != PointSize {
		panic(fmt.Sprintf("jubjub: bad generator constant %q", s))
	}
	var b [PointSize]byte
	copy(b[:], raw)
	p, err := PointFromLegacyBytes(b)
	if err != nil {
		panic(fmt.Sprintf("jubjub: bad generator constant %q: %v", s, err))
	}
	if !p.IsPrimeOrder() {
		panic(fmt.Sprintf("jubjub: generator %q not in prime-order subgroup", s))
	}
	return p
}

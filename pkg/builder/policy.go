package builder

import (
	"fmt"
	"strings"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
)

// BindingSigPolicy decides what a transaction with no shielded spends or
// outputs carries in the binding signature field. Shielded transactions
// always carry a computed signature.
type BindingSigPolicy int

const (
	// OmitBindingSig leaves the field out. v4 parsers only read it when
	// the transaction has shielded components.
	OmitBindingSig BindingSigPolicy = iota
	// ZeroBindingSig writes 64 zero bytes.
	ZeroBindingSig
	// ComputedBindingSig signs with bsk = 0 over the shielded sighash.
	ComputedBindingSig
)

func (p BindingSigPolicy) String() string {
	switch p {
	case OmitBindingSig:
		return "omit"
	case ZeroBindingSig:
		return "zero"
	case ComputedBindingSig:
		return "computed"
	default:
		return fmt.Sprintf("binding_sig_policy(%d)", int(p))
	}
}

// ParseBindingSigPolicy parses "omit", "zero" or "computed". The empty
// string selects OmitBindingSig.
func ParseBindingSigPolicy(s string) (BindingSigPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "omit":
		return OmitBindingSig, nil
	case "zero":
		return ZeroBindingSig, nil
	case "computed":
		return ComputedBindingSig, nil
	default:
		return OmitBindingSig, fmt.Errorf("unknown binding signature policy %q", s)
	}
}

// Basepoint names accepted by ParseBindingBasepoint.
const (
	RandomnessBasepoint = "randomness"
	SubgroupBasepoint   = "subgroup"
)

// ParseBindingBasepoint maps a basepoint name to its point. "randomness"
// (the default) is the value commitment randomness generator, the only base
// under which the value commitments balance against bvk. "subgroup" is the
// prime-order subgroup generator of the curve library; the librustzcash-based
// BitcoinZ builders sign the binding signature over it, so select it when
// comparing output with those builders or a node that expects their
// signatures. The prover must then commit with the same base.
func ParseBindingBasepoint(s string) (jubjub.Point, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", RandomnessBasepoint:
		return jubjub.SaplingGenerators().ValueCommitmentRandomness, nil
	case SubgroupBasepoint:
		return jubjub.SubgroupGenerator(), nil
	default:
		return jubjub.Point{}, fmt.Errorf("unknown binding basepoint %q", s)
	}
}

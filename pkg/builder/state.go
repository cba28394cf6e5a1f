package builder

import "fmt"

// State is the position of a Builder in its single-use lifecycle.
//
//	Empty -> CollectingInputs -> Proving -> SerializingProvisional ->
//	ComputingSighash -> SigningBinding -> SigningTransparent -> Finalized
//
// Any failure moves the builder to Failed. Finalized and Failed are
// terminal.
type State int

// Builder states.
const (
	Empty State = iota
	CollectingInputs
	Proving
	SerializingProvisional
	ComputingSighash
	SigningBinding
	SigningTransparent
	Finalized
	Failed
)

var stateNames = [...]string{
	Empty:                  "empty",
	CollectingInputs:       "collecting_inputs",
	Proving:                "proving",
	SerializingProvisional: "serializing_provisional",
	ComputingSighash:       "computing_sighash",
	SigningBinding:         "signing_binding",
	SigningTransparent:     "signing_transparent",
	Finalized:              "finalized",
	Failed:                 "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Finalized || s == Failed
}

// acceptsInputs reports whether Add* calls are allowed in s.
func (s State) acceptsInputs() bool {
	return s == Empty || s == CollectingInputs
}

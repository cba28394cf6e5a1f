package sapling

import "github.com/suffix-labs/btcz-shielded/pkg/jubjub"

// BindingKeyAccumulator sums value commitment randomness into the binding
// signing key: bsk = sum(rcv_spend) - sum(rcv_output). It belongs to a single
// build.
type BindingKeyAccumulator struct {
	bsk     jubjub.Scalar
	spends  int
	outputs int
}

// AddSpend adds a spend's rcv.
func (a *BindingKeyAccumulator) AddSpend(rcv jubjub.Scalar) {
	a.bsk = a.bsk.Add(rcv)
	a.spends++
}

// AddOutput subtracts an output's rcv.
func (a *BindingKeyAccumulator) AddOutput(rcv jubjub.Scalar) {
	a.bsk = a.bsk.Sub(rcv)
	a.outputs++
}

// Bsk returns the accumulated binding signing key.
func (a *BindingKeyAccumulator) Bsk() jubjub.Scalar {
	return a.bsk
}

// Counts returns the number of spends and outputs accumulated.
func (a *BindingKeyAccumulator) Counts() (spends, outputs int) {
	return a.spends, a.outputs
}

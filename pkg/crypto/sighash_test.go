package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btcz-shielded/pkg/params"
	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

func fill(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// vectorTx returns the transaction used by the pinned sighash vectors.
func vectorTx(t *testing.T, withSpend bool) *wire.Transaction {
	tx := wire.NewTransaction()

	var h0, h1 [32]byte
	for i := range h0 {
		h0[i] = byte(i)
		h1[i] = 0xaa
	}
	tx.Inputs = []wire.TxIn{
		{PrevOut: wire.OutPoint{Hash: h0, Index: 1}, Sequence: 0xfffffffe},
		{PrevOut: wire.OutPoint{Hash: h1, Index: 0}, Sequence: 0xffffffff},
	}
	tx.Outputs = []wire.TxOut{
		{Value: 49000, ScriptPubKey: mustHex(t, "76a914"+hex.EncodeToString(fill(20, 0x11))+"88ac")},
	}
	tx.LockTime = 5
	tx.ExpiryHeight = 100
	tx.ValueBalance = -50000

	var out wire.OutputDescription
	copy(out.CV[:], fill(32, 0x01))
	copy(out.Cmu[:], fill(32, 0x02))
	copy(out.EphemeralKey[:], fill(32, 0x03))
	copy(out.EncCiphertext[:], fill(580, 0x04))
	copy(out.OutCiphertext[:], fill(80, 0x05))
	copy(out.Proof[:], fill(192, 0x06))
	tx.ShieldedOutputs = []wire.OutputDescription{out}

	if withSpend {
		var sd wire.SpendDescription
		copy(sd.CV[:], fill(32, 0x07))
		copy(sd.Anchor[:], fill(32, 0x08))
		copy(sd.Nullifier[:], fill(32, 0x09))
		copy(sd.Rk[:], fill(32, 0x0a))
		copy(sd.Proof[:], fill(192, 0x0b))
		copy(sd.SpendAuthSig[:], fill(64, 0x0c))
		tx.ShieldedSpends = []wire.SpendDescription{sd}
		tx.ValueBalance = -10000
	}
	return tx
}

func TestShieldedSighashVectors(t *testing.T) {
	t.Run("outputs only", func(t *testing.T) {
		c := NewSighashComputer(vectorTx(t, false), params.SaplingBranchID, DefaultSighashPolicy)
		got := c.ShieldedSighash()
		assert.Equal(t, "9a0abf83fa083be693074a92a25f8f78c96e9ad2320f6a1180b84662e425406a", hex.EncodeToString(got[:]))
		assert.Equal(t, [32]byte{}, c.Digests().ShieldedSpendsHash)
		assert.Equal(t, [32]byte{}, c.Digests().JoinSplitsHash)
	})

	t.Run("with spend", func(t *testing.T) {
		c := NewSighashComputer(vectorTx(t, true), params.SaplingBranchID, DefaultSighashPolicy)
		got := c.ShieldedSighash()
		assert.Equal(t, "3ab3abc57b879f347484d83a3de5663ca70fcbc9bc238b832ea83424e26aae3a", hex.EncodeToString(got[:]))
	})
}

func TestTransparentSighashVectors(t *testing.T) {
	scriptCode := mustHex(t, "76a914"+hex.EncodeToString(fill(20, 0x22))+"88ac")
	c := NewSighashComputer(vectorTx(t, false), params.SaplingBranchID, DefaultSighashPolicy)

	tests := []struct {
		name     string
		index    int
		value    uint64
		hashType uint32
		want     string
	}{
		{"input 0 all", 0, 100000, SighashAll, "3816db88970f4f2375046fc1ecbade7de2f5e982931fbbf8082c68e9875028c5"},
		{"input 1 none", 1, 7, SighashNone, "c3a4368e23e43910802eab763da42c0c0ddeb9f757f923928242555558102fab"},
		{"input 0 single", 0, 100000, SighashSingle, "71921c92b8c283446d3e1beef4dde77503d52fde26644df7aba1418bf6d1b527"},
		{"input 1 single without output", 1, 7, SighashSingle, "018883de3d29006a13fbb7f71ca484f692e034b4f65ecded282445894eab2792"},
		{"input 0 all anyonecanpay", 0, 100000, SighashAll | SighashAnyoneCanPay, "e8ecf7caf1b10b6fe760d86ffc0338c002bf29a9898ccc8e900a459aa25e08aa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.TransparentSighash(&TransparentInput{Index: tt.index, ScriptCode: scriptCode, Value: tt.value}, tt.hashType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(got[:]))
		})
	}
}

func TestSighashPolicyReversal(t *testing.T) {
	tx := vectorTx(t, false)
	plain := NewSighashComputer(tx, params.SaplingBranchID, DefaultSighashPolicy)
	reversed := NewSighashComputer(tx, params.SaplingBranchID, SighashPolicy{ReverseTransparent: true, ReverseBinding: true})

	a := plain.ShieldedSighash()
	b := reversed.ShieldedSighash()
	reverse(b[:])
	assert.Equal(t, a, b)

	in := &TransparentInput{Index: 0, ScriptCode: []byte{0x51}, Value: 1}
	a, err := plain.TransparentSighash(in, SighashAll)
	require.NoError(t, err)
	b, err = reversed.TransparentSighash(in, SighashAll)
	require.NoError(t, err)
	reverse(b[:])
	assert.Equal(t, a, b)
}

func TestSighashSensitivity(t *testing.T) {
	base := NewSighashComputer(vectorTx(t, true), params.SaplingBranchID, DefaultSighashPolicy).ShieldedSighash()

	mutations := map[string]func(tx *wire.Transaction){
		"lock time":        func(tx *wire.Transaction) { tx.LockTime++ },
		"expiry":           func(tx *wire.Transaction) { tx.ExpiryHeight++ },
		"value balance":    func(tx *wire.Transaction) { tx.ValueBalance++ },
		"version group":    func(tx *wire.Transaction) { tx.VersionGroupID ^= 1 },
		"prevout index":    func(tx *wire.Transaction) { tx.Inputs[0].PrevOut.Index++ },
		"sequence":         func(tx *wire.Transaction) { tx.Inputs[1].Sequence-- },
		"output value":     func(tx *wire.Transaction) { tx.Outputs[0].Value++ },
		"output script":    func(tx *wire.Transaction) { tx.Outputs[0].ScriptPubKey[3] ^= 1 },
		"spend anchor":     func(tx *wire.Transaction) { tx.ShieldedSpends[0].Anchor[0] ^= 1 },
		"spend proof":      func(tx *wire.Transaction) { tx.ShieldedSpends[0].Proof[191] ^= 1 },
		"output cmu":       func(tx *wire.Transaction) { tx.ShieldedOutputs[0].Cmu[5] ^= 1 },
		"output enc":       func(tx *wire.Transaction) { tx.ShieldedOutputs[0].EncCiphertext[579] ^= 1 },
		"output out":       func(tx *wire.Transaction) { tx.ShieldedOutputs[0].OutCiphertext[0] ^= 1 },
		"output epk":       func(tx *wire.Transaction) { tx.ShieldedOutputs[0].EphemeralKey[0] ^= 1 },
		"additional input": func(tx *wire.Transaction) { tx.Inputs = append(tx.Inputs, tx.Inputs[0]) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			tx := vectorTx(t, true)
			mutate(tx)
			got := NewSighashComputer(tx, params.SaplingBranchID, DefaultSighashPolicy).ShieldedSighash()
			assert.NotEqual(t, base, got)
		})
	}

	t.Run("branch id", func(t *testing.T) {
		got := NewSighashComputer(vectorTx(t, true), 0x5ba81b19, DefaultSighashPolicy).ShieldedSighash()
		assert.NotEqual(t, base, got)
	})

	// authorizing data is not committed to
	unsigned := map[string]func(tx *wire.Transaction){
		"spend auth sig": func(tx *wire.Transaction) { tx.ShieldedSpends[0].SpendAuthSig[0] ^= 1 },
		"script sig":     func(tx *wire.Transaction) { tx.Inputs[0].ScriptSig = []byte{0x00} },
		"binding sig":    func(tx *wire.Transaction) { tx.BindingSig = new([64]byte) },
	}
	for name, mutate := range unsigned {
		t.Run(name, func(t *testing.T) {
			tx := vectorTx(t, true)
			mutate(tx)
			got := NewSighashComputer(tx, params.SaplingBranchID, DefaultSighashPolicy).ShieldedSighash()
			assert.Equal(t, base, got)
		})
	}
}

func TestSighashDeterministic(t *testing.T) {
	a := NewSighashComputer(vectorTx(t, true), params.SaplingBranchID, DefaultSighashPolicy)
	b := NewSighashComputer(vectorTx(t, true), params.SaplingBranchID, DefaultSighashPolicy)
	assert.Equal(t, a.ShieldedSighash(), b.ShieldedSighash())
	assert.Equal(t, a.Preimage(SighashAll, nil), b.Preimage(SighashAll, nil))
	assert.Len(t, a.Preimage(SighashAll, nil), 4+4+6*32+4+4+8+4)
}

func TestTransparentSighashErrors(t *testing.T) {
	c := NewSighashComputer(vectorTx(t, false), params.SaplingBranchID, DefaultSighashPolicy)

	_, err := c.TransparentSighash(&TransparentInput{Index: 2}, SighashAll)
	var sighashErr *SighashError
	require.ErrorAs(t, err, &sighashErr)
	assert.Equal(t, 2, sighashErr.InputIndex)

	_, err = c.TransparentSighash(nil, SighashAll)
	assert.Error(t, err)

	_, err = c.TransparentSighash(&TransparentInput{Index: 0}, 0x04)
	assert.Error(t, err)

	_, err = c.TransparentSighash(&TransparentInput{Index: 0}, 0x41)
	assert.Error(t, err)
}

package wire

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var p2pkhScript = mustHex("76a914" + strings.Repeat("ab", 20) + "88ac")

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func transparentTx() *Transaction {
	tx := NewTransaction()
	var prev [32]byte
	for i := range prev {
		prev[i] = 0x11
	}
	tx.Inputs = []TxIn{{PrevOut: OutPoint{Hash: prev, Index: 1}, Sequence: DefaultSequence}}
	tx.Outputs = []TxOut{{Value: 1000, ScriptPubKey: p2pkhScript}}
	return tx
}

func shieldedTx() *Transaction {
	tx := transparentTx()
	tx.ValueBalance = -50000

	var spend SpendDescription
	spend.CV[0] = 0x01
	spend.Anchor[0] = 0x02
	spend.Nullifier[0] = 0x03
	spend.Rk[0] = 0x04
	spend.Proof[0] = 0x05
	spend.SpendAuthSig[63] = 0x06

	var out OutputDescription
	out.CV[0] = 0x07
	out.Cmu[0] = 0x08
	out.EphemeralKey[0] = 0x09
	out.EncCiphertext[579] = 0x0a
	out.OutCiphertext[79] = 0x0b
	out.Proof[191] = 0x0c

	var sig [SignatureSize]byte
	sig[0] = 0xee
	tx.ShieldedSpends = []SpendDescription{spend}
	tx.ShieldedOutputs = []OutputDescription{out, out}
	tx.BindingSig = &sig
	return tx
}

func TestSerializeTransparentOnly(t *testing.T) {
	tx := transparentTx()

	raw, err := tx.Bytes()
	require.NoError(t, err)

	want := "04000080" + "85202f89" +
		"01" + strings.Repeat("11", 32) + "01000000" + "00" + "feffffff" +
		"01" + "e803000000000000" + "19" + hex.EncodeToString(p2pkhScript) +
		"00000000" + "00000000" +
		"0000000000000000" + // value balance
		"00" + "00" + "00" // spends, outputs, joinsplits
	assert.Equal(t, want, hex.EncodeToString(raw))
	assert.Equal(t, tx.SerializeSize(), len(raw))
}

func TestSerializeShieldedSizes(t *testing.T) {
	tx := shieldedTx()

	raw, err := tx.Bytes()
	require.NoError(t, err)
	assert.Equal(t, tx.SerializeSize(), len(raw))

	base, err := transparentTx().Bytes()
	require.NoError(t, err)
	assert.Equal(t, len(base)+SpendDescriptionSize+2*OutputDescriptionSize+SignatureSize, len(raw))
	assert.Equal(t, 384, SpendDescriptionSize)
	assert.Equal(t, 320, SpendBodySize)
	assert.Equal(t, 948, OutputDescriptionSize)

	// value balance is encoded as a signed 64-bit integer
	vbOffset := len(base) - 3 - 8
	assert.Equal(t, "b03cffffffffffff", hex.EncodeToString(raw[vbOffset:vbOffset+8]))

	// binding signature terminates the encoding
	assert.Equal(t, byte(0xee), raw[len(raw)-SignatureSize])
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tx   *Transaction
	}{
		{"transparent only", transparentTx()},
		{"shielded", shieldedTx()},
		{"transparent with binding sig", func() *Transaction {
			tx := transparentTx()
			tx.BindingSig = new([SignatureSize]byte)
			return tx
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.tx.Bytes()
			require.NoError(t, err)

			parsed, err := ParseTransaction(raw)
			require.NoError(t, err)

			again, err := parsed.Bytes()
			require.NoError(t, err)
			assert.Equal(t, raw, again)
			assert.Equal(t, tt.tx.ValueBalance, parsed.ValueBalance)
			assert.Equal(t, tt.tx.BindingSig != nil, parsed.BindingSig != nil)
		})
	}
}

func TestParseErrors(t *testing.T) {
	raw, err := shieldedTx().Bytes()
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, err := ParseTransaction(raw[:len(raw)-100])
		assert.Error(t, err)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := ParseTransaction(append(append([]byte{}, raw...), 0x00))
		assert.Error(t, err)
	})

	t.Run("missing binding sig", func(t *testing.T) {
		_, err := ParseTransaction(raw[:len(raw)-SignatureSize])
		assert.Error(t, err)
	})

	t.Run("wrong version", func(t *testing.T) {
		bad := append([]byte{}, raw...)
		bad[0] = 0x05
		_, err := ParseTransaction(bad)
		assert.Error(t, err)
	})
}

func TestTxID(t *testing.T) {
	tx := transparentTx()
	id, err := tx.TxID()
	require.NoError(t, err)

	tx.LockTime = 1
	id2, err := tx.TxID()
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)

	op, err := NewOutPoint(id.String(), 3)
	require.NoError(t, err)
	assert.Equal(t, [32]byte(id), op.Hash)
	assert.Equal(t, id.String(), op.TxIDString())
}

func TestWriteBodyExcludesSpendAuthSig(t *testing.T) {
	sd := shieldedTx().ShieldedSpends[0]
	var buf bytes.Buffer
	require.NoError(t, sd.WriteBody(&buf))
	assert.Equal(t, SpendBodySize, buf.Len())
	assert.NotContains(t, buf.String(), string([]byte{0x06}))
}

package jubjub

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeHex32(t *testing.T, s string) [32]byte {
	t.Helper()
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	var b [32]byte
	copy(b[:], raw)
	return b
}

func TestGeneratorCoordinates(t *testing.T) {
	gens := SaplingGenerators()
	tests := []struct {
		name string
		p    Point
		u, v string
	}{
		{
			"value commitment value", gens.ValueCommitmentValue,
			"273f910d9ecc1615d8618ed1d15fef4e9472c89ac043042d36183b2cb4d7ef51",
			"466a7e3a82f67ab1d32294fd89774ad6bc3332d0fa1ccd18a77a81f50667c8d7",
		},
		{
			"value commitment randomness", gens.ValueCommitmentRandomness,
			"6800f4fa0f001cfc7ff6826ad58004b4d1d8da41af03744e3bce3b7793664337",
			"6d81d3a9cb45dedbe6fb2a6e1e22ab50ad46f1b0473b803b3caefab9380b6a8b",
		},
		{
			"spend auth", gens.SpendAuth,
			"0926d4f32059c712d418a7ff26753b6ad5b9a7d3ef8e282747bf46920a95a753",
			"57a1019e6de9b67553bb37d0c21cfd056d65674dcedbddbc305632adaaf2b530",
		},
		{
			"subgroup", SubgroupGenerator(),
			"3ea5c4673a121ca35ed37ee3b172f5ee04315c657fbe375f512dfea318d56fe5",
			"57137b83ea6edb4f78f7d30d3f616cb3b9aa6e8e40808413c10cea38d50c55cb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v := tt.p.Coordinates()
			wantU, _ := new(big.Int).SetString(tt.u, 16)
			wantV, _ := new(big.Int).SetString(tt.v, 16)
			assert.Equal(t, wantU, u.BigInt(new(big.Int)))
			assert.Equal(t, wantV, v.BigInt(new(big.Int)))
			assert.True(t, tt.p.IsPrimeOrder())
			assert.False(t, tt.p.IsSmallOrder())
		})
	}
}

func TestLegacyEncoding(t *testing.T) {
	gens := SaplingGenerators()
	tests := []struct {
		name   string
		p      Point
		legacy string
		modern string
	}{
		{
			"2 * G_v", gens.ValueCommitmentValue.Double(),
			"d9f2a7715e00d5a1622d5eefdfd516a2cfd14fd10c9f71ec96e02026d3e5dbc4",
			"d9f2a7715e00d5a1622d5eefdfd516a2cfd14fd10c9f71ec96e02026d3e5db44",
		},
		{
			"7 * G_r", gens.ValueCommitmentRandomness.Mul(ScalarFromUint64(7)),
			"71ae3c470500e46bd4966cb68f32f60c3df29f6a3d44252e8e7a370f6719589a",
			"71ae3c470500e46bd4966cb68f32f60c3df29f6a3d44252e8e7a370f6719589a",
		},
		{
			"spend auth", gens.SpendAuth,
			"30b5f2aaad325630bcdddbce4d67656d05fd1cc2d037bb5375b6e96d9e01a1d7",
			"30b5f2aaad325630bcdddbce4d67656d05fd1cc2d037bb5375b6e96d9e01a157",
		},
		{
			"-spend auth", gens.SpendAuth.Neg(),
			"30b5f2aaad325630bcdddbce4d67656d05fd1cc2d037bb5375b6e96d9e01a157",
			"30b5f2aaad325630bcdddbce4d67656d05fd1cc2d037bb5375b6e96d9e01a1d7",
		},
		{
			"identity", Identity(),
			"0100000000000000000000000000000000000000000000000000000000000000",
			"0100000000000000000000000000000000000000000000000000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legacy := tt.p.LegacyBytes()
			assert.Equal(t, tt.legacy, hex.EncodeToString(legacy[:]))

			modern := tt.p.ModernBytes()
			assert.Equal(t, tt.modern, hex.EncodeToString(modern[:]))

			back, err := PointFromLegacyBytes(legacy)
			require.NoError(t, err)
			assert.True(t, back.Equal(tt.p))

			back, err = PointFromModernBytes(modern)
			require.NoError(t, err)
			assert.True(t, back.Equal(tt.p))
		})
	}
}

func TestLegacyEncodingProperties(t *testing.T) {
	g := SubgroupGenerator()
	for i := 0; i < 16; i++ {
		s, err := RandomScalar(rand.Reader)
		require.NoError(t, err)
		p := g.Mul(s)

		enc := p.LegacyBytes()
		u, v := p.Coordinates()

		// clearing the sign bit leaves v in little-endian
		cleared := enc
		cleared[31] &= 0x7f
		var vBytes [32]byte
		fr.LittleEndian.PutElement(&vBytes, v)
		assert.Equal(t, vBytes, cleared)

		// the sign bit is the parity of u
		assert.Equal(t, byte(u.Bits()[0]&1), enc[31]>>7)
	}
}

func TestPointFromLegacyBytesErrors(t *testing.T) {
	t.Run("v not canonical", func(t *testing.T) {
		var b [32]byte
		for i := range b {
			b[i] = 0xff
		}
		b[31] = 0x7f
		_, err := PointFromLegacyBytes(b)
		assert.ErrorIs(t, err, ErrNonCanonicalPoint)
	})

	t.Run("no u for v", func(t *testing.T) {
		var b [32]byte
		b[0] = 2
		_, err := PointFromLegacyBytes(b)
		assert.ErrorIs(t, err, ErrNotOnCurvePoint)
	})

	t.Run("sign bit on zero u", func(t *testing.T) {
		var b [32]byte
		b[0] = 1
		b[31] = 0x80
		_, err := PointFromLegacyBytes(b)
		assert.ErrorIs(t, err, ErrNonCanonicalPoint)
	})
}

func TestSmallOrder(t *testing.T) {
	order2 := decodeHex32(t, "00000000fffffffffe5bfeff02a4bd5305d8a10908d83933487d9d2953a7ed73")
	order4 := decodeHex32(t, "0000000000000000000000000000000000000000000000000000000000000000")

	for name, enc := range map[string][32]byte{"order 2": order2, "order 4": order4} {
		t.Run(name, func(t *testing.T) {
			p, err := PointFromLegacyBytes(enc)
			require.NoError(t, err)
			assert.True(t, p.IsSmallOrder())
			assert.False(t, p.IsPrimeOrder())
		})
	}

	assert.True(t, Identity().IsSmallOrder())
	assert.False(t, SaplingGenerators().SpendAuth.IsSmallOrder())
}

func TestValueCommitment(t *testing.T) {
	gens := SaplingGenerators()
	cv := gens.ValueCommitment(ScalarFromUint64(1000), ScalarFromUint64(5))
	enc := cv.LegacyBytes()
	assert.Equal(t, "f3623172222934adb5adf0c25d6ba8e54f05ac7c13e3d51acd6c0834f99bac5f", hex.EncodeToString(enc[:]))

	// commitments are additively homomorphic
	a := gens.ValueCommitment(ScalarFromUint64(600), ScalarFromUint64(2))
	b := gens.ValueCommitment(ScalarFromUint64(400), ScalarFromUint64(3))
	assert.True(t, a.Add(b).Equal(cv))
}

func TestScalarArithmetic(t *testing.T) {
	a := ScalarFromUint64(10)
	b := ScalarFromInt64(-3)

	assert.True(t, a.Add(b).Equal(ScalarFromUint64(7)))
	assert.True(t, b.Neg().Equal(ScalarFromUint64(3)))
	assert.True(t, a.Sub(a).IsZero())
	assert.True(t, a.Mul(b).Equal(ScalarFromInt64(-30)))
	assert.Equal(t, new(big.Int).Sub(Order(), big.NewInt(3)), b.BigInt())

	enc := b.Bytes()
	back, err := ScalarFromBytes(enc)
	require.NoError(t, err)
	assert.True(t, back.Equal(b))

	var over [32]byte
	for i := range over {
		over[i] = 0xff
	}
	_, err = ScalarFromBytes(over)
	assert.ErrorIs(t, err, ErrNonCanonicalScalar)

	// [r-1]P == -P
	g := SaplingGenerators().SpendAuth
	assert.True(t, g.Mul(ScalarFromInt64(-1)).Equal(g.Neg()))
	assert.True(t, g.Mul(Scalar{}).IsIdentity())
	assert.NotContains(t, a.String(), "10")
}

func TestRandomScalar(t *testing.T) {
	_, err := RandomScalar(bytes.NewReader(make([]byte, 10)))
	assert.Error(t, err)

	wide := make([]byte, 64)
	wide[0] = 9
	s, err := RandomScalar(bytes.NewReader(wide))
	require.NoError(t, err)
	assert.True(t, s.Equal(ScalarFromUint64(9)))
}

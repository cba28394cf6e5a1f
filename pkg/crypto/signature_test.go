package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
)

func nonceBytes(n int, f func(i int) byte) *bytes.Reader {
	b := make([]byte, n)
	for i := range b {
		b[i] = f(i)
	}
	return bytes.NewReader(b)
}

func TestSignRedJubjubVector(t *testing.T) {
	base := jubjub.SaplingGenerators().SpendAuth
	sk := jubjub.ScalarFromUint64(42)

	sig, err := SignRedJubjub(nonceBytes(80, func(i int) byte { return byte(i) }), sk, base, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t,
		"90c21b519ca3180e5c392389dedb62f59890138fac3a6750b7084e5e19ff0da7"+
			"c5a01aceb8523363287f09f03168b66cf6dedde1092ac9d6caee9fd2d057d301",
		hex.EncodeToString(sig[:]))

	vk := base.Mul(sk)
	vkBytes := vk.LegacyBytes()
	assert.Equal(t, "f34e521836a5d4df3bdf5a737639d854a102520c45eb10dc815cbc9de545049e", hex.EncodeToString(vkBytes[:]))
	assert.True(t, VerifyRedJubjub(vk, base, []byte("hello"), sig))
	assert.False(t, VerifyRedJubjub(vk, base, []byte("hellp"), sig))
	assert.False(t, VerifyRedJubjub(base.Mul(jubjub.ScalarFromUint64(43)), base, []byte("hello"), sig))
}

func TestVerifyRedJubjubRejectsMalformed(t *testing.T) {
	base := jubjub.SaplingGenerators().SpendAuth
	sk, err := jubjub.RandomScalar(rand.Reader)
	require.NoError(t, err)
	vk := base.Mul(sk)
	msg := []byte("message")

	sig, err := SignRedJubjub(rand.Reader, sk, base, msg)
	require.NoError(t, err)
	require.True(t, VerifyRedJubjub(vk, base, msg, sig))

	t.Run("non-canonical S", func(t *testing.T) {
		bad := sig
		for i := 32; i < 64; i++ {
			bad[i] = 0xff
		}
		assert.False(t, VerifyRedJubjub(vk, base, msg, bad))
	})

	t.Run("R not a point", func(t *testing.T) {
		bad := sig
		copy(bad[:32], make([]byte, 32))
		bad[0] = 2
		assert.False(t, VerifyRedJubjub(vk, base, msg, bad))
	})

	t.Run("short nonce source", func(t *testing.T) {
		_, err := SignRedJubjub(bytes.NewReader(make([]byte, 79)), sk, base, msg)
		var sigErr *SignatureError
		assert.ErrorAs(t, err, &sigErr)
	})
}

func TestBindingSignatureVector(t *testing.T) {
	engine := NewBindingSignatureEngine(jubjub.SaplingGenerators().ValueCommitmentRandomness)
	key := engine.Finalize(jubjub.ScalarFromUint64(12345))

	bvk := key.Bvk.LegacyBytes()
	assert.Equal(t, "90f82191d6ced1e7f33d4a89909ae7e88e460c4b66b2dd9e9ff7a58280f892db", hex.EncodeToString(bvk[:]))

	var sighash [32]byte
	copy(sighash[:], bytes.Repeat([]byte{0x55}, 32))

	msg := BindingMessage(key.Bvk, sighash)
	assert.Len(t, msg, 64)
	assert.Equal(t, bvk[:], msg[:32])
	assert.Equal(t, sighash[:], msg[32:])

	sig, err := engine.Sign(nonceBytes(80, func(int) byte { return 0xff }), key, sighash)
	require.NoError(t, err)
	assert.Equal(t,
		"367ec5c8ca0efa61b781409ae434c595699ea90083908707bd2178e97b951509"+
			"b3ec8045916d0d46efbdadfb602da13b56e881749cc955e05936f87db9537008",
		hex.EncodeToString(sig[:]))
	assert.True(t, engine.Verify(key.Bvk, sighash, sig))

	// the signature covers the 64-byte message, not the bare sighash
	assert.False(t, VerifyRedJubjub(key.Bvk, engine.Basepoint(), sighash[:], sig))
}

func TestValueBalanceIdentity(t *testing.T) {
	gens := jubjub.SaplingGenerators()
	engine := NewBindingSignatureEngine(gens.ValueCommitmentRandomness)

	for round := 0; round < 8; round++ {
		var (
			spendCVs, outputCVs []jubjub.Point
			bsk                 jubjub.Scalar
			balance             int64
		)
		values := []uint64{uint64(round) * 1000, 77, 123456}
		for _, v := range values {
			rcv, err := jubjub.RandomScalar(rand.Reader)
			require.NoError(t, err)
			spendCVs = append(spendCVs, gens.ValueCommitment(jubjub.ScalarFromUint64(v), rcv))
			bsk = bsk.Add(rcv)
			balance += int64(v)
		}
		for _, v := range []uint64{500, uint64(round)} {
			rcv, err := jubjub.RandomScalar(rand.Reader)
			require.NoError(t, err)
			outputCVs = append(outputCVs, gens.ValueCommitment(jubjub.ScalarFromUint64(v), rcv))
			bsk = bsk.Sub(rcv)
			balance -= int64(v)
		}

		key := engine.Finalize(bsk)
		assert.True(t, CheckValueBalance(gens, spendCVs, outputCVs, balance, key.Bvk))
		assert.False(t, CheckValueBalance(gens, spendCVs, outputCVs, balance+1, key.Bvk))
	}
}

func TestValueBalanceNegative(t *testing.T) {
	gens := jubjub.SaplingGenerators()
	rcv := jubjub.ScalarFromUint64(99)
	cv := gens.ValueCommitment(jubjub.ScalarFromUint64(50000), rcv)

	bvk := gens.ValueCommitmentRandomness.Mul(rcv.Neg())
	assert.True(t, CheckValueBalance(gens, nil, []jubjub.Point{cv}, -50000, bvk))
}

func TestECDSA(t *testing.T) {
	raw := bytes.Repeat([]byte{0x01}, 32)
	key, err := PrivateKeyFromBytes(raw)
	require.NoError(t, err)
	assert.True(t, key.Compressed())
	assert.Equal(t, raw, key.Bytes())

	var hash [32]byte
	hash[0] = 0xab
	sig := key.Sign(hash)
	assert.True(t, VerifySignature(key.PublicKey(), hash, sig))
	hash[0] = 0xac
	assert.False(t, VerifySignature(key.PublicKey(), hash, sig))

	pub := key.PublicKey().SerializeCompressed()
	parsed, err := ParsePublicKey(pub[:])
	require.NoError(t, err)
	assert.Equal(t, pub, parsed.SerializeCompressed())
	assert.Len(t, parsed.SerializeUncompressed(), 65)

	_, err = PrivateKeyFromBytes(make([]byte, 32))
	assert.Error(t, err)
	_, err = PrivateKeyFromBytes(raw[:31])
	assert.Error(t, err)
}

func TestWIF(t *testing.T) {
	raw := bytes.Repeat([]byte{0x01}, 32)

	tests := []struct {
		name       string
		compressed bool
		version    byte
	}{
		{"mainnet compressed", true, 0x80},
		{"mainnet uncompressed", false, 0x80},
		{"regtest compressed", true, 0xef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wif, err := EncodeWIF(raw, tt.compressed, tt.version)
			require.NoError(t, err)

			key, err := ParsePrivateKeyWIF(wif, tt.version)
			require.NoError(t, err)
			assert.Equal(t, raw, key.Bytes())
			assert.Equal(t, tt.compressed, key.Compressed())

			_, err = ParsePrivateKeyWIF(wif, tt.version^0x01)
			assert.Error(t, err)
		})
	}

	t.Run("known vector", func(t *testing.T) {
		// private key 0x01..01 with compressed flag on mainnet
		key, err := ParsePrivateKeyWIF("KwFfNUhSDaASSAwtG7ssQM1uVX8RgX5GHWnnLfhfiQDigjioWXHH", 0x80)
		require.NoError(t, err)
		assert.Equal(t, raw, key.Bytes())
	})

	t.Run("bad checksum", func(t *testing.T) {
		_, err := ParsePrivateKeyWIF("KwFfNUhSDaASSAwtG7ssQM1uVX8RgX5GHWnnLfhfiQDigjioWXHJ", 0x80)
		assert.Error(t, err)
	})
}

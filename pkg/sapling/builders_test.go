package sapling_test

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
	"github.com/suffix-labs/btcz-shielded/pkg/sapling"
	"github.com/suffix-labs/btcz-shielded/pkg/sapling/saplingtest"
	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
)

func testSpendInput(t *testing.T, value uint64) *sapling.SpendInput {
	t.Helper()
	var sk [32]byte
	_, err := rand.Read(sk[:])
	require.NoError(t, err)

	addr, _, err := saplingtest.NewAddress(rand.Reader)
	require.NoError(t, err)
	rseed, err := sapling.NewRseed(rand.Reader, true)
	require.NoError(t, err)
	path, err := saplingtest.NewWitness(rand.Reader, 42)
	require.NoError(t, err)

	in := &sapling.SpendInput{
		Key:  sapling.ExpandSpendingKey(sk),
		Note: sapling.Note{Recipient: addr, Value: value, Rseed: rseed},
		Path: path,
	}
	in.Anchor[0] = 0x11
	in.Nullifier[0] = 0x22
	return in
}

func testOutputInput(t *testing.T, value uint64) (*sapling.OutputInput, jubjub.Scalar) {
	t.Helper()
	addr, ivk, err := saplingtest.NewAddress(rand.Reader)
	require.NoError(t, err)
	ovk := sapling.OutgoingViewingKey{0x0f}
	return &sapling.OutputInput{Ovk: &ovk, Recipient: addr, Value: value}, ivk
}

func TestBuildSpend(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		prover := &saplingtest.Prover{}
		b := &sapling.DescriptionBuilder{Prover: prover, Encrypter: sapling.NoteEncryptor{}}
		in := testSpendInput(t, 7000)

		spend, err := b.BuildSpend(ctx, in, rand.Reader)
		require.NoError(t, err)

		gens := jubjub.SaplingGenerators()
		assert.True(t, gens.ValueCommitment(jubjub.ScalarFromUint64(7000), spend.Rcv).Equal(spend.CV))
		assert.True(t, gens.SpendAuth.Mul(spend.Rsk).Equal(spend.Rk))
		assert.Equal(t, spend.CV.LegacyBytes(), spend.Description.CV)
		assert.Equal(t, spend.Rk.LegacyBytes(), spend.Description.Rk)
		assert.Equal(t, in.Anchor, spend.Description.Anchor)
		assert.Equal(t, in.Nullifier, spend.Description.Nullifier)
		assert.Equal(t, [64]byte{}, spend.Description.SpendAuthSig)

		require.Len(t, prover.SpendRequests, 1)
		assert.Equal(t, uint64(7000), prover.SpendRequests[0].Value)
	})

	t.Run("fresh randomness per call", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}}
		in := testSpendInput(t, 1)
		s1, err := b.BuildSpend(ctx, in, rand.Reader)
		require.NoError(t, err)
		s2, err := b.BuildSpend(ctx, in, rand.Reader)
		require.NoError(t, err)
		assert.False(t, s1.Rcv.Equal(s2.Rcv))
		assert.NotEqual(t, s1.Description.Rk, s2.Description.Rk)
	})

	t.Run("short witness", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}}
		in := testSpendInput(t, 1)
		in.Path.AuthPath = in.Path.AuthPath[:31]
		_, err := b.BuildSpend(ctx, in, rand.Reader)
		assert.ErrorIs(t, err, txerr.ErrInvalidMerklePath)
	})

	t.Run("prover failure", func(t *testing.T) {
		cause := errors.New("params missing")
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{SpendErr: cause}, Encrypter: sapling.NoteEncryptor{}}
		_, err := b.BuildSpend(ctx, testSpendInput(t, 1), rand.Reader)
		assert.ErrorIs(t, err, txerr.ErrProofGenerationFailure)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("small order cv", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{SmallOrderCV: true}, Encrypter: sapling.NoteEncryptor{}}
		_, err := b.BuildSpend(ctx, testSpendInput(t, 1), rand.Reader)
		assert.ErrorIs(t, err, txerr.ErrSmallOrderPoint)
	})

	t.Run("missing key", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}}
		in := testSpendInput(t, 1)
		in.Key = nil
		_, err := b.BuildSpend(ctx, in, rand.Reader)
		assert.ErrorIs(t, err, txerr.ErrInvalidInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}}
		_, err := b.BuildSpend(cctx, testSpendInput(t, 1), rand.Reader)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuildOutput(t *testing.T) {
	ctx := context.Background()

	for _, zip212 := range []bool{false, true} {
		name := "pre zip 212"
		if zip212 {
			name = "zip 212"
		}
		t.Run(name, func(t *testing.T) {
			b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}, AfterZip212: zip212}
			in, ivk := testOutputInput(t, 50000)
			memo, err := sapling.NewTextMemo("invoice 7")
			require.NoError(t, err)
			in.Memo = &memo

			out, err := b.BuildOutput(ctx, in, rand.Reader)
			require.NoError(t, err)

			gens := jubjub.SaplingGenerators()
			assert.True(t, gens.ValueCommitment(jubjub.ScalarFromUint64(50000), out.Rcv).Equal(out.CV))

			epk, err := jubjub.PointFromLegacyBytes(out.Description.EphemeralKey)
			require.NoError(t, err)

			note, err := sapling.TryDecryptNote(ivk, epk, &out.Description.EncCiphertext)
			require.NoError(t, err)
			assert.Equal(t, uint64(50000), note.Value)
			assert.Equal(t, in.Recipient.Diversifier, note.Diversifier)
			assert.Equal(t, zip212, note.Rseed.AfterZip212)
			assert.Equal(t, memo, note.Memo)

			rcm, err := note.Rseed.Rcm()
			require.NoError(t, err)
			assert.Equal(t, saplingtest.FakeCmu(&in.Recipient, 50000, rcm), out.Description.Cmu)

			recovered, pkd, err := sapling.TryRecoverOutgoing(in.Ovk, out.CV, out.Description.Cmu, epk,
				&out.Description.EncCiphertext, &out.Description.OutCiphertext)
			require.NoError(t, err)
			assert.True(t, pkd.Equal(in.Recipient.PkD))
			assert.Equal(t, uint64(50000), recovered.Value)

			if zip212 {
				esk, ok := note.Rseed.Esk()
				require.True(t, ok)
				assert.True(t, in.Recipient.Gd.Mul(esk).Equal(epk))
			}
		})
	}

	t.Run("no ovk", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}, AfterZip212: true}
		in, ivk := testOutputInput(t, 10)
		in.Ovk = nil

		out, err := b.BuildOutput(ctx, in, rand.Reader)
		require.NoError(t, err)

		epk, err := jubjub.PointFromLegacyBytes(out.Description.EphemeralKey)
		require.NoError(t, err)
		note, err := sapling.TryDecryptNote(ivk, epk, &out.Description.EncCiphertext)
		require.NoError(t, err)
		assert.Equal(t, sapling.EmptyMemo, note.Memo)

		ovk := sapling.OutgoingViewingKey{0x0f}
		_, _, err = sapling.TryRecoverOutgoing(&ovk, out.CV, out.Description.Cmu, epk,
			&out.Description.EncCiphertext, &out.Description.OutCiphertext)
		assert.ErrorIs(t, err, sapling.ErrDecryption)
	})

	t.Run("wrong ivk", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}}
		in, ivk := testOutputInput(t, 10)
		out, err := b.BuildOutput(ctx, in, rand.Reader)
		require.NoError(t, err)

		epk, err := jubjub.PointFromLegacyBytes(out.Description.EphemeralKey)
		require.NoError(t, err)
		_, err = sapling.TryDecryptNote(ivk.Add(jubjub.ScalarFromUint64(1)), epk, &out.Description.EncCiphertext)
		assert.ErrorIs(t, err, sapling.ErrDecryption)
	})

	t.Run("small order recipient", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}}
		in, _ := testOutputInput(t, 10)
		in.Recipient.PkD = jubjub.Identity()
		_, err := b.BuildOutput(ctx, in, rand.Reader)
		assert.ErrorIs(t, err, txerr.ErrInvalidInput)
	})

	t.Run("small order cv", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{SmallOrderCV: true}, Encrypter: sapling.NoteEncryptor{}}
		in, _ := testOutputInput(t, 10)
		_, err := b.BuildOutput(ctx, in, rand.Reader)
		assert.ErrorIs(t, err, txerr.ErrSmallOrderPoint)
	})

	t.Run("prover failure", func(t *testing.T) {
		b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{OutputErr: errors.New("boom")}, Encrypter: sapling.NoteEncryptor{}}
		in, _ := testOutputInput(t, 10)
		_, err := b.BuildOutput(ctx, in, rand.Reader)
		assert.ErrorIs(t, err, txerr.ErrProofGenerationFailure)
	})
}

func TestSpendAuthorization(t *testing.T) {
	b := &sapling.DescriptionBuilder{Prover: &saplingtest.Prover{}, Encrypter: sapling.NoteEncryptor{}}
	spend, err := b.BuildSpend(context.Background(), testSpendInput(t, 5), rand.Reader)
	require.NoError(t, err)

	sighash := [32]byte{0xde, 0xad}
	require.NoError(t, sapling.SignSpend(rand.Reader, spend, sighash))
	assert.NotEqual(t, [64]byte{}, spend.Description.SpendAuthSig)
	assert.True(t, sapling.VerifySpend(&spend.Description, sighash))

	msg := sapling.SpendAuthMessage(spend.Description.Rk, sighash)
	assert.Equal(t, spend.Description.Rk[:], msg[:32])
	assert.Equal(t, sighash[:], msg[32:])

	other := sighash
	other[31] = 1
	assert.False(t, sapling.VerifySpend(&spend.Description, other))

	tampered := spend.Description
	tampered.Rk = jubjub.SaplingGenerators().SpendAuth.LegacyBytes()
	assert.False(t, sapling.VerifySpend(&tampered, sighash))
}

package sapling

import (
	"context"
	"io"

	"github.com/suffix-labs/btcz-shielded/pkg/crypto"
	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

// SpendInput is a note to spend.
type SpendInput struct {
	Key       *ExpandedSpendingKey
	Note      Note
	Nullifier [32]byte // nf of the note, computed by the wallet
	Anchor    [32]byte // tree root the path authenticates against
	Path      MerklePath
}

// OutputInput is a payment to a shielded address.
type OutputInput struct {
	Ovk       *OutgoingViewingKey // nil makes the output unrecoverable by the sender
	Recipient PaymentAddress
	Value     uint64
	Memo      *Memo // nil is the empty memo
}

// BuiltSpend is a spend description together with the secrets the rest of
// the build needs. SpendAuthSig is left zero until the sighash is known.
type BuiltSpend struct {
	Description wire.SpendDescription
	CV          jubjub.Point
	Rk          jubjub.Point
	Rcv         jubjub.Scalar // feeds the binding key
	Rsk         jubjub.Scalar // signs the spend authorization
}

// BuiltOutput is an output description and its rcv.
type BuiltOutput struct {
	Description wire.OutputDescription
	CV          jubjub.Point
	Rcv         jubjub.Scalar
}

// DescriptionBuilder builds spend and output descriptions.
type DescriptionBuilder struct {
	Prover    Prover
	Encrypter NoteEncrypter
	// AfterZip212 selects v2 note plaintexts with rseed-derived rcm and esk.
	AfterZip212 bool
}

// BuildSpend proves a spend of in.Note. Each call draws fresh alpha and rcv
// from rng.
func (b *DescriptionBuilder) BuildSpend(ctx context.Context, in *SpendInput, rng io.Reader) (*BuiltSpend, error) {
	if in.Key == nil {
		return nil, txerr.New(txerr.InvalidInput, "spend has no spending key")
	}
	if err := in.Path.Validate(); err != nil {
		return nil, txerr.Wrap(txerr.InvalidMerklePath, err, "spend witness rejected")
	}

	alpha, err := jubjub.RandomScalar(rng)
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "drawing alpha")
	}
	rcv, err := jubjub.RandomScalar(rng)
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "drawing rcv")
	}

	pgk := in.Key.ProofGenerationKey()
	proof, err := b.Prover.SpendProof(ctx, &SpendProofRequest{
		ProofGenerationKey: pgk,
		Diversifier:        in.Note.Recipient.Diversifier,
		Rseed:              in.Note.Rseed,
		Alpha:              alpha,
		Rcv:                rcv,
		Value:              in.Note.Value,
		Anchor:             in.Anchor,
		MerklePath:         in.Path,
	})
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "spend proof")
	}

	if proof.CV.IsSmallOrder() {
		return nil, txerr.New(txerr.SmallOrderPoint, "spend value commitment has small order")
	}
	if proof.Rk.IsSmallOrder() {
		return nil, txerr.New(txerr.SmallOrderPoint, "spend rk has small order")
	}

	rsk := in.Key.Ask.Add(alpha)
	if !jubjub.SaplingGenerators().SpendAuth.Mul(rsk).Equal(proof.Rk) {
		return nil, txerr.New(txerr.ProofGenerationFailure, "prover rk does not match the randomized key")
	}

	out := &BuiltSpend{CV: proof.CV, Rk: proof.Rk, Rcv: rcv, Rsk: rsk}
	d := &out.Description
	d.CV = proof.CV.LegacyBytes()
	d.Anchor = in.Anchor
	d.Nullifier = in.Nullifier
	d.Rk = proof.Rk.LegacyBytes()
	d.Proof = proof.Proof
	return out, nil
}

// BuildOutput creates a note for in.Recipient, proves it and encrypts it.
// Each call draws a fresh rseed and rcv from rng.
func (b *DescriptionBuilder) BuildOutput(ctx context.Context, in *OutputInput, rng io.Reader) (*BuiltOutput, error) {
	if in.Recipient.PkD.IsSmallOrder() || in.Recipient.Gd.IsSmallOrder() {
		return nil, txerr.New(txerr.InvalidInput, "recipient address has a small-order component")
	}

	rseed, err := NewRseed(rng, b.AfterZip212)
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "drawing rseed")
	}
	rcm, err := rseed.Rcm()
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "deriving rcm")
	}
	rcv, err := jubjub.RandomScalar(rng)
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "drawing rcv")
	}

	note := &Note{Recipient: in.Recipient, Value: in.Value, Rseed: rseed}
	ne, err := b.Encrypter.NewNoteEncryption(in.Ovk, note, in.Memo, rng)
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "preparing note encryption")
	}

	epk := ne.EphemeralPublicKey()
	if epk.IsSmallOrder() {
		return nil, txerr.New(txerr.SmallOrderPoint, "ephemeral key has small order")
	}

	proof, err := b.Prover.OutputProof(ctx, &OutputProofRequest{
		Esk:       ne.Esk(),
		Recipient: in.Recipient,
		Rcm:       rcm,
		Value:     in.Value,
		Rcv:       rcv,
	})
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "output proof")
	}
	if proof.CV.IsSmallOrder() {
		return nil, txerr.New(txerr.SmallOrderPoint, "output value commitment has small order")
	}

	encCiphertext, err := ne.EncryptNotePlaintext()
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "encrypting note")
	}
	outCiphertext, err := ne.EncryptOutgoingPlaintext(proof.CV, proof.Cmu)
	if err != nil {
		return nil, txerr.Wrap(txerr.ProofGenerationFailure, err, "encrypting outgoing plaintext")
	}

	out := &BuiltOutput{CV: proof.CV, Rcv: rcv}
	d := &out.Description
	d.CV = proof.CV.LegacyBytes()
	d.Cmu = proof.Cmu
	d.EphemeralKey = epk.LegacyBytes()
	d.EncCiphertext = encCiphertext
	d.OutCiphertext = outCiphertext
	d.Proof = proof.Proof
	return out, nil
}

// SpendAuthMessage returns legacy(rk) || sighash, the message signed by the
// spend authorization signature.
func SpendAuthMessage(rk [32]byte, sighash [32]byte) []byte {
	msg := make([]byte, 0, 64)
	msg = append(msg, rk[:]...)
	return append(msg, sighash[:]...)
}

// SignSpend sets the spend authorization signature: RedJubjub over G_spend
// with key rsk.
func SignSpend(rng io.Reader, spend *BuiltSpend, sighash [32]byte) error {
	msg := SpendAuthMessage(spend.Description.Rk, sighash)
	sig, err := crypto.SignRedJubjub(rng, spend.Rsk, jubjub.SaplingGenerators().SpendAuth, msg)
	if err != nil {
		return txerr.Wrap(txerr.SigningFailure, err, "spend authorization signature")
	}
	spend.Description.SpendAuthSig = sig
	return nil
}

// VerifySpend checks a spend's authorization signature against its rk.
func VerifySpend(spend *wire.SpendDescription, sighash [32]byte) bool {
	rk, err := jubjub.PointFromLegacyBytes(spend.Rk)
	if err != nil {
		return false
	}
	msg := SpendAuthMessage(spend.Rk, sighash)
	return crypto.VerifyRedJubjub(rk, jubjub.SaplingGenerators().SpendAuth, msg, spend.SpendAuthSig)
}

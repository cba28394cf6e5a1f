package sapling

import (
	"context"
	"io"

	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

// SpendProofRequest is the witness for a spend proof.
type SpendProofRequest struct {
	ProofGenerationKey ProofGenerationKey
	Diversifier        Diversifier
	Rseed              Rseed
	Alpha              jubjub.Scalar // spend authorization randomizer
	Rcv                jubjub.Scalar // value commitment randomness
	Value              uint64
	Anchor             [32]byte
	MerklePath         MerklePath
}

// SpendProof is the prover's result for a spend. CV must equal
// ValueCommitment(Value, Rcv) and Rk must equal Ak + [Alpha]G_spend.
type SpendProof struct {
	Proof [wire.GrothProofSize]byte
	CV    jubjub.Point
	Rk    jubjub.Point
}

// OutputProofRequest is the witness for an output proof.
type OutputProofRequest struct {
	Esk       jubjub.Scalar
	Recipient PaymentAddress
	Rcm       jubjub.Scalar
	Value     uint64
	Rcv       jubjub.Scalar
}

// OutputProof is the prover's result for an output. CV must equal
// ValueCommitment(Value, Rcv).
type OutputProof struct {
	Proof [wire.GrothProofSize]byte
	CV    jubjub.Point
	Cmu   [32]byte
}

// Prover creates Groth16 proofs. Calls may block for a long time; they are
// issued one at a time by a single build.
type Prover interface {
	SpendProof(ctx context.Context, req *SpendProofRequest) (*SpendProof, error)
	OutputProof(ctx context.Context, req *OutputProofRequest) (*OutputProof, error)
}

// NoteEncryption encrypts a single output's note.
type NoteEncryption interface {
	// Esk is the ephemeral secret the output proof is made with.
	Esk() jubjub.Scalar
	// EphemeralPublicKey is epk = [esk]Gd.
	EphemeralPublicKey() jubjub.Point
	// EncryptNotePlaintext returns the ciphertext for the recipient.
	EncryptNotePlaintext() ([wire.EncCiphertextSize]byte, error)
	// EncryptOutgoingPlaintext returns the ciphertext for the sender.
	EncryptOutgoingPlaintext(cv jubjub.Point, cmu [32]byte) ([wire.OutCiphertextSize]byte, error)
}

// NoteEncrypter creates a NoteEncryption per output. A nil ovk means the
// sender cannot recover the output.
type NoteEncrypter interface {
	NewNoteEncryption(ovk *OutgoingViewingKey, note *Note, memo *Memo, rng io.Reader) (NoteEncryption, error)
}

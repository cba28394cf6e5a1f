// Package wire defines the v4 (Sapling) transaction format of the BitcoinZ
// chain and its binary encoding.
//
// The layout is a strict concatenation of little-endian fields:
//
//	header | versionGroupId | vin | vout | lockTime | expiryHeight |
//	valueBalance | vShieldedSpend | vShieldedOutput | vJoinSplit | bindingSig
//
// Each list is prefixed with a compact size count. Join-splits are never
// produced, so the count is always zero. The binding signature is either
// absent or exactly 64 bytes.
package wire

const (
	// SaplingTxVersion is the transaction version for Sapling transactions.
	SaplingTxVersion = 4

	// OverwinterFlag is bit 31 of the header; set for all v3+ transactions.
	OverwinterFlag = uint32(1) << 31

	// SaplingVersionGroupID identifies v4 transactions.
	SaplingVersionGroupID = uint32(0x892f2085)

	// DefaultSequence leaves lock time enabled without opting into RBF.
	DefaultSequence = uint32(0xfffffffe)
)

// Field sizes in bytes.
const (
	HashSize          = 32
	PointSize         = 32
	GrothProofSize    = 192
	SignatureSize     = 64
	EncCiphertextSize = 580
	OutCiphertextSize = 80

	// SpendBodySize covers cv, anchor, nullifier, rk and proof. This is the
	// portion committed to by the shielded spends hash.
	SpendBodySize = 4*HashSize + GrothProofSize
	// SpendDescriptionSize is the on-wire size including spendAuthSig.
	SpendDescriptionSize = SpendBodySize + SignatureSize
	// OutputDescriptionSize is the on-wire size of an output description.
	OutputDescriptionSize = 3*HashSize + EncCiphertextSize + OutCiphertextSize + GrothProofSize
)

// OutPoint references a previous transparent output.
type OutPoint struct {
	Hash  [HashSize]byte // txid in internal (wire) byte order
	Index uint32
}

// TxIn is a transparent input.
type TxIn struct {
	PrevOut   OutPoint
	ScriptSig []byte // empty until the input is signed
	Sequence  uint32
}

// TxOut is a transparent output.
type TxOut struct {
	Value        uint64 // zatoshis
	ScriptPubKey []byte
}

// SpendDescription is a shielded spend. Curve points are stored in their
// legacy wire encoding.
type SpendDescription struct {
	CV           [PointSize]byte      // value commitment
	Anchor       [HashSize]byte       // note commitment tree root
	Nullifier    [HashSize]byte       // nullifier of the spent note
	Rk           [PointSize]byte      // randomized spend authorization key
	Proof        [GrothProofSize]byte // Groth16 spend proof
	SpendAuthSig [SignatureSize]byte  // RedJubjub signature under rk
}

// OutputDescription is a shielded output.
type OutputDescription struct {
	CV            [PointSize]byte         // value commitment
	Cmu           [HashSize]byte          // u-coordinate of the note commitment
	EphemeralKey  [PointSize]byte         // epk
	EncCiphertext [EncCiphertextSize]byte // note plaintext encrypted to the recipient
	OutCiphertext [OutCiphertextSize]byte // recovery data encrypted to the sender's ovk
	Proof         [GrothProofSize]byte    // Groth16 output proof
}

// Transaction is a v4 Sapling transaction.
type Transaction struct {
	Version        uint32 // 4
	Overwintered   bool   // always true for v4
	VersionGroupID uint32

	Inputs  []TxIn
	Outputs []TxOut

	LockTime     uint32
	ExpiryHeight uint32

	// ValueBalance is the net value leaving the shielded pool. Negative
	// values move funds into the pool.
	ValueBalance int64

	ShieldedSpends  []SpendDescription
	ShieldedOutputs []OutputDescription

	// BindingSig is nil when the field is omitted from the encoding.
	BindingSig *[SignatureSize]byte
}

// NewTransaction returns an empty v4 transaction with the Sapling header set.
func NewTransaction() *Transaction {
	return &Transaction{
		Version:        SaplingTxVersion,
		Overwintered:   true,
		VersionGroupID: SaplingVersionGroupID,
	}
}

// Header returns the 32-bit header field: the version with the
// overwintered flag in the top bit.
func (tx *Transaction) Header() uint32 {
	h := tx.Version
	if tx.Overwintered {
		h |= OverwinterFlag
	}
	return h
}

// HasShielded reports whether the transaction carries any Sapling component.
func (tx *Transaction) HasShielded() bool {
	return len(tx.ShieldedSpends) > 0 || len(tx.ShieldedOutputs) > 0
}

// SerializeSize returns the number of bytes Serialize writes.
func (tx *Transaction) SerializeSize() int {
	n := 4 + 4
	n += CompactSizeLen(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		n += HashSize + 4 + CompactSizeLen(uint64(len(in.ScriptSig))) + len(in.ScriptSig) + 4
	}
	n += CompactSizeLen(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		n += 8 + CompactSizeLen(uint64(len(out.ScriptPubKey))) + len(out.ScriptPubKey)
	}
	n += 4 + 4 + 8
	n += CompactSizeLen(uint64(len(tx.ShieldedSpends))) + len(tx.ShieldedSpends)*SpendDescriptionSize
	n += CompactSizeLen(uint64(len(tx.ShieldedOutputs))) + len(tx.ShieldedOutputs)*OutputDescriptionSize
	n++ // joinsplit count
	if tx.BindingSig != nil {
		n += SignatureSize
	}
	return n
}

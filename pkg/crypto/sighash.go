// Package crypto implements the signature hashing and signing schemes used to
// authorize BitcoinZ v4 Sapling transactions.
//
// The sighash follows ZIP 243: a set of BLAKE2b-256 intermediate digests over
// the transaction's components, combined in a final digest personalized with
// the consensus branch id. BitcoinZ fixes the branch id to the Sapling value
// regardless of height.
//
// References:
//   - ZIP 243: https://zips.z.cash/zip-0243
package crypto

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

// Personalization strings for BLAKE2b digests.
const (
	SighashPersonalizationPrefix = "ZcashSigHash"

	PrevoutsHashPersonalization        = "ZcashPrevoutHash"
	SequenceHashPersonalization        = "ZcashSequencHash"
	OutputsHashPersonalization         = "ZcashOutputsHash"
	ShieldedSpendsHashPersonalization  = "ZcashSSpendsHash"
	ShieldedOutputsHashPersonalization = "ZcashSOutputHash"
)

// Signature hash types.
const (
	SighashAll          = uint32(0x01)
	SighashNone         = uint32(0x02)
	SighashSingle       = uint32(0x03)
	SighashAnyoneCanPay = uint32(0x80)

	sighashMask = uint32(0x1f)
)

// blake2bNew256 creates a BLAKE2b-256 hash with the given personalization.
func blake2bNew256(personalization string) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{Size: 32, Person: []byte(personalization)})
	if err != nil {
		// only reachable with a personalization longer than 16 bytes
		panic(err)
	}
	return h
}

// SighashPolicy controls whether final digests are byte-reversed before they
// are used as signing messages. The digest itself is never altered.
type SighashPolicy struct {
	// ReverseTransparent reverses the per-input digest passed to ECDSA.
	ReverseTransparent bool `yaml:"reverseTransparent"`
	// ReverseBinding reverses the shielded digest used by the binding and
	// spend authorization signatures.
	ReverseBinding bool `yaml:"reverseBinding"`
}

// DefaultSighashPolicy signs the digests as produced, matching zcashd's
// CKey::Sign over the uint256 sighash. Wallets derived from bitcore-lib-btcz
// sign the transparent digest reversed; set ReverseTransparent to match them.
var DefaultSighashPolicy = SighashPolicy{}

// Digests holds the ZIP 243 intermediate hashes of a transaction.
type Digests struct {
	PrevoutsHash        [32]byte
	SequenceHash        [32]byte
	OutputsHash         [32]byte
	JoinSplitsHash      [32]byte // always zero: no join-splits
	ShieldedSpendsHash  [32]byte
	ShieldedOutputsHash [32]byte
}

// TransparentInput carries the input-specific part of a transparent sighash.
type TransparentInput struct {
	Index      int
	ScriptCode []byte // the scriptPubKey being spent
	Value      uint64
}

// SighashComputer computes signature hashes over a fixed transaction.
// Intermediate digests are computed once and shared by all inputs.
type SighashComputer struct {
	tx       *wire.Transaction
	branchID uint32
	policy   SighashPolicy
	digests  Digests
}

// NewSighashComputer precomputes the intermediate digests of tx.
// The transaction must not be modified in ways that affect the sighash
// while the computer is in use; scriptSigs and signatures do not.
func NewSighashComputer(tx *wire.Transaction, branchID uint32, policy SighashPolicy) *SighashComputer {
	c := &SighashComputer{tx: tx, branchID: branchID, policy: policy}
	c.digests = Digests{
		PrevoutsHash:        prevoutsHash(tx),
		SequenceHash:        sequenceHash(tx),
		OutputsHash:         outputsHash(tx),
		ShieldedSpendsHash:  shieldedSpendsHash(tx),
		ShieldedOutputsHash: shieldedOutputsHash(tx),
	}
	return c
}

// Digests returns the intermediate digests for SIGHASH_ALL.
func (c *SighashComputer) Digests() Digests {
	return c.digests
}

// Policy returns the byte-order policy.
func (c *SighashComputer) Policy() SighashPolicy {
	return c.policy
}

// ShieldedSighash returns the digest signed by the binding and spend
// authorization signatures: SIGHASH_ALL with no transparent input.
func (c *SighashComputer) ShieldedSighash() [32]byte {
	digest := c.digest(c.preimage(SighashAll, nil))
	if c.policy.ReverseBinding {
		reverse(digest[:])
	}
	return digest
}

// TransparentSighash returns the digest signed by the ECDSA signature of a
// transparent input.
func (c *SighashComputer) TransparentSighash(in *TransparentInput, hashType uint32) ([32]byte, error) {
	if in == nil || in.Index < 0 || in.Index >= len(c.tx.Inputs) {
		return [32]byte{}, &SighashError{InputIndex: indexOf(in), Message: "input index out of range"}
	}
	if !validHashType(hashType) {
		return [32]byte{}, &SighashError{InputIndex: in.Index, Message: fmt.Sprintf("invalid hash type 0x%02x", hashType)}
	}

	digest := c.digest(c.preimage(hashType, in))
	if c.policy.ReverseTransparent {
		reverse(digest[:])
	}
	return digest, nil
}

// Preimage returns the bytes hashed for the given hash type and input. A nil
// input yields the shielded preimage.
func (c *SighashComputer) Preimage(hashType uint32, in *TransparentInput) []byte {
	return c.preimage(hashType, in)
}

func (c *SighashComputer) preimage(hashType uint32, in *TransparentInput) []byte {
	tx := c.tx
	d := c.digests

	anyoneCanPay := hashType&SighashAnyoneCanPay != 0
	base := hashType & sighashMask

	var zero [32]byte
	prevouts, sequence, outputs := d.PrevoutsHash, d.SequenceHash, d.OutputsHash
	if anyoneCanPay {
		prevouts = zero
	}
	if anyoneCanPay || base == SighashSingle || base == SighashNone {
		sequence = zero
	}
	switch {
	case base == SighashSingle && in != nil && in.Index < len(tx.Outputs):
		outputs = singleOutputHash(&tx.Outputs[in.Index])
	case base == SighashSingle || base == SighashNone:
		outputs = zero
	}

	var buf bytes.Buffer
	buf.Grow(4 + 4 + 6*32 + 4 + 4 + 8 + 4 + 36 + 9 + 32 + 8 + 4)

	var u32 [4]byte
	var u64 [8]byte
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(u32[:], v)
		buf.Write(u32[:])
	}

	putU32(tx.Header())
	putU32(tx.VersionGroupID)
	buf.Write(prevouts[:])
	buf.Write(sequence[:])
	buf.Write(outputs[:])
	buf.Write(d.JoinSplitsHash[:])
	buf.Write(d.ShieldedSpendsHash[:])
	buf.Write(d.ShieldedOutputsHash[:])
	putU32(tx.LockTime)
	putU32(tx.ExpiryHeight)
	binary.LittleEndian.PutUint64(u64[:], uint64(tx.ValueBalance))
	buf.Write(u64[:])
	putU32(hashType)

	if in != nil && !anyoneCanPay {
		txIn := &tx.Inputs[in.Index]
		_ = wire.WriteOutPoint(&buf, &txIn.PrevOut)
		_ = wire.WriteVarBytes(&buf, in.ScriptCode)
		binary.LittleEndian.PutUint64(u64[:], in.Value)
		buf.Write(u64[:])
		putU32(txIn.Sequence)
	}

	return buf.Bytes()
}

func (c *SighashComputer) digest(preimage []byte) [32]byte {
	person := make([]byte, 0, 16)
	person = append(person, SighashPersonalizationPrefix...)
	person = binary.LittleEndian.AppendUint32(person, c.branchID)

	h := blake2bNew256(string(person))
	h.Write(preimage)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// prevoutsHash = BLAKE2b-256("ZcashPrevoutHash", outpoint*)
func prevoutsHash(tx *wire.Transaction) [32]byte {
	h := blake2bNew256(PrevoutsHashPersonalization)
	for i := range tx.Inputs {
		_ = wire.WriteOutPoint(h, &tx.Inputs[i].PrevOut)
	}
	return sum(h)
}

// sequenceHash = BLAKE2b-256("ZcashSequencHash", nSequence*)
func sequenceHash(tx *wire.Transaction) [32]byte {
	h := blake2bNew256(SequenceHashPersonalization)
	var buf [4]byte
	for _, in := range tx.Inputs {
		binary.LittleEndian.PutUint32(buf[:], in.Sequence)
		h.Write(buf[:])
	}
	return sum(h)
}

// outputsHash = BLAKE2b-256("ZcashOutputsHash", (value || script)*)
func outputsHash(tx *wire.Transaction) [32]byte {
	h := blake2bNew256(OutputsHashPersonalization)
	for i := range tx.Outputs {
		_ = wire.WriteTxOut(h, &tx.Outputs[i])
	}
	return sum(h)
}

func singleOutputHash(out *wire.TxOut) [32]byte {
	h := blake2bNew256(OutputsHashPersonalization)
	_ = wire.WriteTxOut(h, out)
	return sum(h)
}

// shieldedSpendsHash covers cv, anchor, nullifier, rk and proof of each
// spend. Zero when there are no spends.
func shieldedSpendsHash(tx *wire.Transaction) [32]byte {
	if len(tx.ShieldedSpends) == 0 {
		return [32]byte{}
	}
	h := blake2bNew256(ShieldedSpendsHashPersonalization)
	for i := range tx.ShieldedSpends {
		_ = tx.ShieldedSpends[i].WriteBody(h)
	}
	return sum(h)
}

// shieldedOutputsHash covers every field of each output. Zero when there
// are no outputs.
func shieldedOutputsHash(tx *wire.Transaction) [32]byte {
	if len(tx.ShieldedOutputs) == 0 {
		return [32]byte{}
	}
	h := blake2bNew256(ShieldedOutputsHashPersonalization)
	for i := range tx.ShieldedOutputs {
		_ = tx.ShieldedOutputs[i].Write(h)
	}
	return sum(h)
}

func sum(h hash.Hash) [32]byte {
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func validHashType(hashType uint32) bool {
	if hashType&^(sighashMask|SighashAnyoneCanPay) != 0 {
		return false
	}
	switch hashType & sighashMask {
	case SighashAll, SighashNone, SighashSingle:
		return true
	}
	return false
}

func indexOf(in *TransparentInput) int {
	if in == nil {
		return -1
	}
	return in.Index
}

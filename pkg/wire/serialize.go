package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Serialize writes the v4 encoding of tx to w.
//
// Format:
//   - header (4 bytes) and version group id (4 bytes)
//   - transparent inputs and outputs
//   - lock_time (4 bytes) and expiry_height (4 bytes)
//   - valueBalance (8 bytes, signed)
//   - shielded spends (384 bytes each) and shielded outputs (948 bytes each)
//   - joinsplit count (always 0)
//   - bindingSig (64 bytes) when present
func (tx *Transaction) Serialize(w io.Writer) error {
	if !tx.Overwintered || tx.Version != SaplingTxVersion {
		return fmt.Errorf("unsupported transaction version %d (overwintered=%v)", tx.Version, tx.Overwintered)
	}

	if err := tx.writeHeader(w); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := tx.writeTransparent(w); err != nil {
		return fmt.Errorf("writing transparent bundle: %w", err)
	}
	if err := tx.writeTrailer(w); err != nil {
		return fmt.Errorf("writing lock time: %w", err)
	}
	if err := tx.writeSapling(w); err != nil {
		return fmt.Errorf("writing sapling bundle: %w", err)
	}

	// No join-splits.
	if err := WriteCompactSize(w, 0); err != nil {
		return fmt.Errorf("writing joinsplit count: %w", err)
	}

	if tx.BindingSig != nil {
		if _, err := w.Write(tx.BindingSig[:]); err != nil {
			return fmt.Errorf("writing binding signature: %w", err)
		}
	}
	return nil
}

// Bytes returns the v4 encoding of tx.
func (tx *Transaction) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tx *Transaction) writeHeader(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], tx.Header())
	binary.LittleEndian.PutUint32(buf[4:8], tx.VersionGroupID)
	_, err := w.Write(buf[:])
	return err
}

func (tx *Transaction) writeTransparent(w io.Writer) error {
	if err := WriteCompactSize(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for i := range tx.Inputs {
		if err := writeTxIn(w, &tx.Inputs[i]); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}

	if err := WriteCompactSize(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for i := range tx.Outputs {
		if err := WriteTxOut(w, &tx.Outputs[i]); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}

func (tx *Transaction) writeTrailer(w io.Writer) error {
	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:4], tx.LockTime)
	binary.LittleEndian.PutUint32(buf[4:8], tx.ExpiryHeight)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(tx.ValueBalance))
	_, err := w.Write(buf[:])
	return err
}

func (tx *Transaction) writeSapling(w io.Writer) error {
	if err := WriteCompactSize(w, uint64(len(tx.ShieldedSpends))); err != nil {
		return err
	}
	for i := range tx.ShieldedSpends {
		sd := &tx.ShieldedSpends[i]
		if err := sd.WriteBody(w); err != nil {
			return fmt.Errorf("spend %d: %w", i, err)
		}
		if _, err := w.Write(sd.SpendAuthSig[:]); err != nil {
			return fmt.Errorf("spend %d: %w", i, err)
		}
	}

	if err := WriteCompactSize(w, uint64(len(tx.ShieldedOutputs))); err != nil {
		return err
	}
	for i := range tx.ShieldedOutputs {
		if err := tx.ShieldedOutputs[i].Write(w); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}

// WriteOutPoint writes the 36-byte outpoint encoding.
func WriteOutPoint(w io.Writer, op *OutPoint) error {
	var buf [HashSize + 4]byte
	copy(buf[:HashSize], op.Hash[:])
	binary.LittleEndian.PutUint32(buf[HashSize:], op.Index)
	_, err := w.Write(buf[:])
	return err
}

// WriteVarBytes writes b prefixed with its compact size length.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteCompactSize(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func writeTxIn(w io.Writer, in *TxIn) error {
	if err := WriteOutPoint(w, &in.PrevOut); err != nil {
		return err
	}
	if err := WriteVarBytes(w, in.ScriptSig); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, in.Sequence)
}

// WriteTxOut writes value followed by the length-prefixed script.
func WriteTxOut(w io.Writer, out *TxOut) error {
	if err := binary.Write(w, binary.LittleEndian, out.Value); err != nil {
		return err
	}
	return WriteVarBytes(w, out.ScriptPubKey)
}

// WriteBody writes the fields of a spend that are committed to by the
// shielded spends hash: cv, anchor, nullifier, rk and proof.
func (sd *SpendDescription) WriteBody(w io.Writer) error {
	for _, field := range [][]byte{sd.CV[:], sd.Anchor[:], sd.Nullifier[:], sd.Rk[:], sd.Proof[:]} {
		if _, err := w.Write(field); err != nil {
			return err
		}
	}
	return nil
}

// Write writes the 948-byte output description.
func (od *OutputDescription) Write(w io.Writer) error {
	fields := [][]byte{
		od.CV[:], od.Cmu[:], od.EphemeralKey[:],
		od.EncCiphertext[:], od.OutCiphertext[:], od.Proof[:],
	}
	for _, field := range fields {
		if _, err := w.Write(field); err != nil {
			return err
		}
	}
	return nil
}

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// maxScriptSize bounds script lengths read from untrusted input.
const maxScriptSize = 10000

// ParseTransaction decodes a v4 Sapling transaction.
//
// The binding signature is read when exactly 64 bytes remain after the
// joinsplit count, so that transactions built with an explicit binding
// signature and no shielded components also parse.
func ParseTransaction(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)
	tx := &Transaction{}

	var header uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	tx.Overwintered = header&OverwinterFlag != 0
	tx.Version = header &^ OverwinterFlag
	if !tx.Overwintered || tx.Version != SaplingTxVersion {
		return nil, fmt.Errorf("not a v4 sapling transaction (header=0x%08x)", header)
	}

	if err := binary.Read(r, binary.LittleEndian, &tx.VersionGroupID); err != nil {
		return nil, fmt.Errorf("reading version_group_id: %w", err)
	}
	if tx.VersionGroupID != SaplingVersionGroupID {
		return nil, fmt.Errorf("unexpected version group id 0x%08x", tx.VersionGroupID)
	}

	if err := parseTransparent(r, tx); err != nil {
		return nil, fmt.Errorf("parsing transparent bundle: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &tx.LockTime); err != nil {
		return nil, fmt.Errorf("reading lock_time: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &tx.ExpiryHeight); err != nil {
		return nil, fmt.Errorf("reading expiry_height: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &tx.ValueBalance); err != nil {
		return nil, fmt.Errorf("reading value_balance: %w", err)
	}

	if err := parseSapling(r, tx); err != nil {
		return nil, fmt.Errorf("parsing sapling bundle: %w", err)
	}

	nJoinSplit, err := ReadCompactSize(r)
	if err != nil {
		return nil, fmt.Errorf("reading joinsplit count: %w", err)
	}
	if nJoinSplit != 0 {
		return nil, fmt.Errorf("joinsplits are not supported (count=%d)", nJoinSplit)
	}

	switch r.Len() {
	case 0:
	case SignatureSize:
		var sig [SignatureSize]byte
		if _, err := io.ReadFull(r, sig[:]); err != nil {
			return nil, fmt.Errorf("reading binding_sig: %w", err)
		}
		tx.BindingSig = &sig
	default:
		return nil, fmt.Errorf("%d unexpected trailing bytes", r.Len())
	}

	if tx.HasShielded() && tx.BindingSig == nil {
		return nil, fmt.Errorf("missing binding signature for shielded transaction")
	}
	return tx, nil
}

func parseTransparent(r *bytes.Reader, tx *Transaction) error {
	nIn, err := readCount(r, HashSize+4+1+4)
	if err != nil {
		return fmt.Errorf("reading input count: %w", err)
	}
	tx.Inputs = make([]TxIn, nIn)
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if _, err := io.ReadFull(r, in.PrevOut.Hash[:]); err != nil {
			return fmt.Errorf("input %d: reading prevout hash: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &in.PrevOut.Index); err != nil {
			return fmt.Errorf("input %d: reading prevout index: %w", i, err)
		}
		if in.ScriptSig, err = readVarBytes(r); err != nil {
			return fmt.Errorf("input %d: reading script_sig: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
			return fmt.Errorf("input %d: reading sequence: %w", i, err)
		}
	}

	nOut, err := readCount(r, 8+1)
	if err != nil {
		return fmt.Errorf("reading output count: %w", err)
	}
	tx.Outputs = make([]TxOut, nOut)
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
			return fmt.Errorf("output %d: reading value: %w", i, err)
		}
		if out.ScriptPubKey, err = readVarBytes(r); err != nil {
			return fmt.Errorf("output %d: reading script_pubkey: %w", i, err)
		}
	}
	return nil
}

func parseSapling(r *bytes.Reader, tx *Transaction) error {
	nSpends, err := readCount(r, SpendDescriptionSize)
	if err != nil {
		return fmt.Errorf("reading spend count: %w", err)
	}
	tx.ShieldedSpends = make([]SpendDescription, nSpends)
	for i := range tx.ShieldedSpends {
		sd := &tx.ShieldedSpends[i]
		for _, field := range [][]byte{sd.CV[:], sd.Anchor[:], sd.Nullifier[:], sd.Rk[:], sd.Proof[:], sd.SpendAuthSig[:]} {
			if _, err := io.ReadFull(r, field); err != nil {
				return fmt.Errorf("spend %d: %w", i, err)
			}
		}
	}

	nOutputs, err := readCount(r, OutputDescriptionSize)
	if err != nil {
		return fmt.Errorf("reading output count: %w", err)
	}
	tx.ShieldedOutputs = make([]OutputDescription, nOutputs)
	for i := range tx.ShieldedOutputs {
		od := &tx.ShieldedOutputs[i]
		fields := [][]byte{
			od.CV[:], od.Cmu[:], od.EphemeralKey[:],
			od.EncCiphertext[:], od.OutCiphertext[:], od.Proof[:],
		}
		for _, field := range fields {
			if _, err := io.ReadFull(r, field); err != nil {
				return fmt.Errorf("output %d: %w", i, err)
			}
		}
	}
	return nil
}

// readCount reads a list length and rejects counts that cannot fit in the
// remaining input given the minimum element size.
func readCount(r *bytes.Reader, minElemSize int) (int, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Len()/minElemSize) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining %d bytes", ErrTruncated, n, r.Len())
	}
	return int(n), nil
}

func readVarBytes(r *bytes.Reader) ([]byte, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	if n > maxScriptSize {
		return nil, fmt.Errorf("script length %d exceeds %d", n, maxScriptSize)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

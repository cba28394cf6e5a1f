package wire

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TxID returns the double-SHA256 of the v4 encoding. The hash's String
// method gives the conventional byte-reversed hex form.
func (tx *Transaction) TxID() (chainhash.Hash, error) {
	b, err := tx.Bytes()
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(b), nil
}

// NewOutPoint builds an outpoint from a txid in display (byte-reversed) hex.
func NewOutPoint(txid string, index uint32) (OutPoint, error) {
	h, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return OutPoint{}, err
	}
	return OutPoint{Hash: *h, Index: index}, nil
}

// TxIDString returns the outpoint's txid in display order.
func (op OutPoint) TxIDString() string {
	return chainhash.Hash(op.Hash).String()
}

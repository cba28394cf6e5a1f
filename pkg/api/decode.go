package api

import (
	"encoding/hex"
	"fmt"

	"github.com/suffix-labs/btcz-shielded/pkg/address"
	"github.com/suffix-labs/btcz-shielded/pkg/params"
	"github.com/suffix-labs/btcz-shielded/pkg/payreq"
	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

// Summary is a human-readable view of a v4 transaction.
type Summary struct {
	TxID            string          `yaml:"txid"`
	Size            int             `yaml:"size"`
	LockTime        uint32          `yaml:"lockTime"`
	ExpiryHeight    uint32          `yaml:"expiryHeight"`
	Inputs          []InputSummary  `yaml:"inputs"`
	Outputs         []OutputSummary `yaml:"outputs"`
	ValueBalance    string          `yaml:"valueBalance"` // signed BTCZ
	ShieldedSpends  int             `yaml:"shieldedSpends"`
	ShieldedOutputs int             `yaml:"shieldedOutputs"`
	BindingSig      bool            `yaml:"bindingSig"`
}

type InputSummary struct {
	PrevOut  string `yaml:"prevOut"` // txid:vout
	Sequence uint32 `yaml:"sequence"`
	Signed   bool   `yaml:"signed"`
}

type OutputSummary struct {
	Amount  string `yaml:"amount"`
	Address string `yaml:"address,omitempty"` // empty for non-standard scripts
	Script  string `yaml:"script"`
}

// DecodeTransaction parses raw and summarizes it, rendering standard
// output scripts as addresses of net.
func DecodeTransaction(raw []byte, net *params.Network) (*Summary, error) {
	tx, err := wire.ParseTransaction(raw)
	if err != nil {
		return nil, txerr.Wrap(txerr.InvalidInput, err, "decode transaction")
	}
	id, err := tx.TxID()
	if err != nil {
		return nil, txerr.Wrap(txerr.SerializationFailure, err, "txid")
	}

	s := &Summary{
		TxID:            id.String(),
		Size:            len(raw),
		LockTime:        tx.LockTime,
		ExpiryHeight:    tx.ExpiryHeight,
		ValueBalance:    formatSigned(tx.ValueBalance),
		ShieldedSpends:  len(tx.ShieldedSpends),
		ShieldedOutputs: len(tx.ShieldedOutputs),
		BindingSig:      tx.BindingSig != nil,
	}
	for _, in := range tx.Inputs {
		s.Inputs = append(s.Inputs, InputSummary{
			PrevOut:  fmt.Sprintf("%s:%d", in.PrevOut.TxIDString(), in.PrevOut.Index),
			Sequence: in.Sequence,
			Signed:   len(in.ScriptSig) > 0,
		})
	}
	for _, out := range tx.Outputs {
		o := OutputSummary{
			Amount: payreq.FormatAmount(out.Value),
			Script: hex.EncodeToString(out.ScriptPubKey),
		}
		if addr, err := address.FromScript(out.ScriptPubKey, net); err == nil {
			o.Address = addr.String()
		}
		s.Outputs = append(s.Outputs, o)
	}
	return s, nil
}

func formatSigned(v int64) string {
	if v < 0 {
		return "-" + payreq.FormatAmount(uint64(-v))
	}
	return payreq.FormatAmount(uint64(v))
}

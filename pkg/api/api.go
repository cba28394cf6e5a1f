// Package api is the request-level entry point of the library.
//
// A Request describes a transaction in plain terms: coins to spend with
// their WIF keys, recipients as t-addresses or raw Sapling payment address
// fields, a change address and an optional bitcoinz: payment URI. The
// package resolves those into builder calls:
//
//  1. ParseRequest - Decodes a YAML request
//  2. BuildTransaction - Resolves the request and runs the builder
//  3. DecodeTransaction - Summarizes a serialized v4 transaction
package api

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/suffix-labs/btcz-shielded/pkg/address"
	"github.com/suffix-labs/btcz-shielded/pkg/builder"
	"github.com/suffix-labs/btcz-shielded/pkg/config"
	"github.com/suffix-labs/btcz-shielded/pkg/crypto"
	"github.com/suffix-labs/btcz-shielded/pkg/jubjub"
	"github.com/suffix-labs/btcz-shielded/pkg/params"
	"github.com/suffix-labs/btcz-shielded/pkg/payreq"
	"github.com/suffix-labs/btcz-shielded/pkg/sapling"
	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

// Request is a transaction to build. Amounts are decimal BTCZ strings.
type Request struct {
	Height  uint32   `yaml:"height"`
	Fee     string   `yaml:"fee,omitempty"` // overrides the configured fee
	Inputs  []Input  `yaml:"inputs"`
	Outputs []Output `yaml:"outputs,omitempty"`
	// URI is a bitcoinz: payment request whose payments are appended
	// after Outputs.
	URI    string `yaml:"uri,omitempty"`
	Change string `yaml:"change,omitempty"` // t-address
}

// Input is a transparent coin to spend.
type Input struct {
	TxID   string `yaml:"txid"` // display (big-endian) hex
	Vout   uint32 `yaml:"vout"`
	Amount string `yaml:"amount"`
	// Script is the coin's scriptPubKey in hex. When empty the P2PKH
	// script of the key is assumed.
	Script string `yaml:"script,omitempty"`
	WIF    string `yaml:"wif"`
}

// Output pays either a t-address or a Sapling recipient.
type Output struct {
	Address string            `yaml:"address,omitempty"`
	Sapling *SaplingRecipient `yaml:"sapling,omitempty"`
	Amount  string            `yaml:"amount"`
	Memo    string            `yaml:"memo,omitempty"` // text, shielded only
	Ovk     string            `yaml:"ovk,omitempty"`  // hex, shielded only
}

// SaplingRecipient carries the decoded parts of a Sapling payment address.
// Points are in their 32-byte legacy encoding.
type SaplingRecipient struct {
	Diversifier string `yaml:"diversifier"`
	Gd          string `yaml:"gd"`
	PkD         string `yaml:"pkd"`
}

// ParseRequest decodes a YAML request.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := yaml.UnmarshalStrict(data, &req); err != nil {
		return nil, txerr.Wrap(txerr.InvalidInput, err, "parse request")
	}
	return &req, nil
}

// BuildTransaction resolves req against cfg and builds the signed
// transaction. prover may be nil when the request has no shielded
// recipients.
func BuildTransaction(ctx context.Context, cfg *config.Config, req *Request, prover sapling.Prover, opts ...builder.Option) (*builder.Result, error) {
	net, err := cfg.Params()
	if err != nil {
		return nil, txerr.Wrap(txerr.InvalidInput, err, "network")
	}
	base, err := cfg.BuilderOptions(nil)
	if err != nil {
		return nil, txerr.Wrap(txerr.InvalidInput, err, "builder options")
	}

	fee := cfg.Builder.FeeAmount()
	if req.Fee != "" {
		if fee, err = payreq.ParseAmount(req.Fee); err != nil {
			return nil, txerr.Wrap(txerr.InvalidInput, err, "fee")
		}
	}

	b := builder.New(net, req.Height, prover, append(base, opts...)...)

	for i := range req.Inputs {
		if err := addInput(b, net, &req.Inputs[i]); err != nil {
			return nil, errors.WithMessagef(err, "input %d", i)
		}
	}

	outputs := req.Outputs
	if req.URI != "" {
		fromURI, err := uriOutputs(req.URI)
		if err != nil {
			return nil, err
		}
		outputs = append(append([]Output(nil), outputs...), fromURI...)
	}
	for i := range outputs {
		if err := addOutput(b, net, &outputs[i]); err != nil {
			return nil, errors.WithMessagef(err, "output %d", i)
		}
	}

	if req.Change != "" {
		script, err := addressScript(req.Change, net)
		if err != nil {
			return nil, errors.WithMessage(err, "change")
		}
		if err := b.SetChangeScript(script); err != nil {
			return nil, err
		}
	}

	return b.Build(ctx, fee)
}

func addInput(b *builder.Builder, net *params.Network, in *Input) error {
	op, err := wire.NewOutPoint(in.TxID, in.Vout)
	if err != nil {
		return txerr.Wrap(txerr.InvalidInput, err, "outpoint")
	}
	value, err := payreq.ParseAmount(in.Amount)
	if err != nil {
		return txerr.Wrap(txerr.InvalidInput, err, "amount")
	}
	key, err := crypto.ParsePrivateKeyWIF(in.WIF, net.WIF)
	if err != nil {
		return txerr.Wrap(txerr.InvalidInput, err, "key")
	}

	var script []byte
	if in.Script != "" {
		if script, err = hex.DecodeString(in.Script); err != nil {
			return txerr.Wrap(txerr.InvalidInput, err, "script")
		}
	} else {
		if script, err = keyScript(key, net); err != nil {
			return err
		}
	}
	return b.AddTransparentInput(op, value, script, key)
}

func keyScript(key *crypto.PrivateKey, net *params.Network) ([]byte, error) {
	pub := key.PublicKey()
	var raw []byte
	if key.Compressed() {
		c := pub.SerializeCompressed()
		raw = c[:]
	} else {
		raw = pub.SerializeUncompressed()
	}
	script, err := address.FromPubKey(raw, net).Script()
	if err != nil {
		return nil, txerr.Wrap(txerr.InvalidInput, err, "key script")
	}
	return script, nil
}

func addOutput(b *builder.Builder, net *params.Network, out *Output) error {
	value, err := payreq.ParseAmount(out.Amount)
	if err != nil {
		return txerr.Wrap(txerr.InvalidInput, err, "amount")
	}

	switch {
	case out.Address != "" && out.Sapling != nil:
		return txerr.New(txerr.InvalidInput, "output has both an address and a sapling recipient")
	case out.Sapling != nil:
		to, err := out.Sapling.paymentAddress()
		if err != nil {
			return err
		}
		ovk, err := parseOvk(out.Ovk)
		if err != nil {
			return err
		}
		var memo *sapling.Memo
		if out.Memo != "" {
			m, err := sapling.NewTextMemo(out.Memo)
			if err != nil {
				return txerr.Wrap(txerr.InvalidInput, err, "memo")
			}
			memo = &m
		}
		return b.AddSaplingOutput(ovk, to, value, memo)
	case out.Address != "":
		if out.Memo != "" {
			return txerr.New(txerr.InvalidInput, "memo given for transparent recipient %s", out.Address)
		}
		script, err := addressScript(out.Address, net)
		if err != nil {
			return err
		}
		return b.AddTransparentOutput(script, value)
	default:
		return txerr.New(txerr.InvalidInput, "output has no recipient")
	}
}

func addressScript(s string, net *params.Network) ([]byte, error) {
	addr, err := address.Decode(s, net)
	if err != nil {
		return nil, txerr.Wrap(txerr.InvalidInput, err, "address %s", s)
	}
	script, err := addr.Script()
	if err != nil {
		return nil, txerr.Wrap(txerr.InvalidInput, err, "address %s", s)
	}
	return script, nil
}

func (r *SaplingRecipient) paymentAddress() (sapling.PaymentAddress, error) {
	var to sapling.PaymentAddress
	d, err := hex.DecodeString(r.Diversifier)
	if err != nil || len(d) != sapling.DiversifierSize {
		return to, txerr.New(txerr.InvalidInput, "diversifier must be %d hex bytes", sapling.DiversifierSize)
	}
	copy(to.Diversifier[:], d)

	if to.Gd, err = parsePoint(r.Gd, "gd"); err != nil {
		return to, err
	}
	if to.PkD, err = parsePoint(r.PkD, "pkd"); err != nil {
		return to, err
	}
	return to, nil
}

func parsePoint(s, what string) (jubjub.Point, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != jubjub.PointSize {
		return jubjub.Point{}, txerr.New(txerr.InvalidInput, "%s must be %d hex bytes", what, jubjub.PointSize)
	}
	var b [jubjub.PointSize]byte
	copy(b[:], raw)
	p, err := jubjub.PointFromLegacyBytes(b)
	if err != nil {
		return jubjub.Point{}, txerr.Wrap(txerr.InvalidInput, err, "%s", what)
	}
	return p, nil
}

func parseOvk(s string) (*sapling.OutgoingViewingKey, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(sapling.OutgoingViewingKey{}) {
		return nil, txerr.New(txerr.InvalidInput, "ovk must be 32 hex bytes")
	}
	var ovk sapling.OutgoingViewingKey
	copy(ovk[:], raw)
	return &ovk, nil
}

// uriOutputs turns the payments of a bitcoinz: URI into outputs. Only
// t-address payments with an amount can be resolved this way.
func uriOutputs(uri string) ([]Output, error) {
	pr, err := payreq.Parse(uri)
	if err != nil {
		return nil, txerr.Wrap(txerr.InvalidInput, err, "payment request")
	}
	outs := make([]Output, 0, len(pr.Payments))
	for i, p := range pr.Payments {
		if strings.HasPrefix(p.Address, "zs") {
			return nil, txerr.New(txerr.UnsupportedOperation,
				"payment %d: shielded URI recipients need explicit sapling fields", i)
		}
		if p.Amount == nil {
			return nil, txerr.New(txerr.InvalidInput, "payment %d has no amount", i)
		}
		if len(p.Memo) > 0 {
			return nil, txerr.New(txerr.InvalidInput, "payment %d: memo given for transparent recipient", i)
		}
		outs = append(outs, Output{Address: p.Address, Amount: payreq.FormatAmount(*p.Amount)})
	}
	return outs, nil
}

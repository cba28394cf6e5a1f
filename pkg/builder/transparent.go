package builder

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/suffix-labs/btcz-shielded/pkg/address"
	"github.com/suffix-labs/btcz-shielded/pkg/crypto"
	"github.com/suffix-labs/btcz-shielded/pkg/params"
	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
	"github.com/suffix-labs/btcz-shielded/pkg/wire"
)

// transparentInput is a P2PKH coin and the key that spends it.
type transparentInput struct {
	prevOut      wire.OutPoint
	value        uint64
	scriptPubKey []byte
	sequence     uint32
	key          *crypto.PrivateKey
}

func (in *transparentInput) pubKey() []byte {
	pub := in.key.PublicKey()
	if in.key.Compressed() {
		c := pub.SerializeCompressed()
		return c[:]
	}
	return pub.SerializeUncompressed()
}

// checkOwnership verifies the scriptPubKey is P2PKH to the key's hash.
func (in *transparentInput) checkOwnership(net *params.Network) error {
	a, err := address.FromScript(in.scriptPubKey, net)
	if err != nil {
		return txerr.Wrap(txerr.UnsupportedOperation, err, "input %s:%d", in.prevOut.TxIDString(), in.prevOut.Index)
	}
	if a.Kind != address.PubKeyHash {
		return txerr.New(txerr.UnsupportedOperation, "input %s:%d: only p2pkh coins can be spent", in.prevOut.TxIDString(), in.prevOut.Index)
	}
	if !bytes.Equal(a.Hash[:], btcutil.Hash160(in.pubKey())) {
		return txerr.New(txerr.InvalidInput, "input %s:%d: key does not match %s", in.prevOut.TxIDString(), in.prevOut.Index, a)
	}
	return nil
}

// sign produces the scriptSig push(DER || hashType) push(pubkey) and
// checks the signature before returning it.
func (in *transparentInput) sign(sighash [32]byte, hashType uint32) ([]byte, error) {
	der := in.key.Sign(sighash)
	if !crypto.VerifySignature(in.key.PublicKey(), sighash, der) {
		return nil, &crypto.SignatureError{Scheme: "ecdsa", Message: "signature does not verify"}
	}

	sig := make([]byte, 0, len(der)+1)
	sig = append(sig, der...)
	sig = append(sig, byte(hashType))

	return txscript.NewScriptBuilder().AddData(sig).AddData(in.pubKey()).Script()
}

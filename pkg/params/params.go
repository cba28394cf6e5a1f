// Package params defines BitcoinZ network parameters: address prefixes,
// network upgrade activation heights and consensus branch ids.
package params

import (
	"fmt"
	"strings"

	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
)

// NetworkUpgrade identifies a consensus upgrade.
type NetworkUpgrade int

// Network upgrades in activation order.
const (
	Sprout NetworkUpgrade = iota
	Overwinter
	Sapling
	Blossom
	Heartwood
	Canopy
)

var upgradeNames = map[NetworkUpgrade]string{
	Sprout:     "sprout",
	Overwinter: "overwinter",
	Sapling:    "sapling",
	Blossom:    "blossom",
	Heartwood:  "heartwood",
	Canopy:     "canopy",
}

func (u NetworkUpgrade) String() string {
	if name, ok := upgradeNames[u]; ok {
		return name
	}
	return fmt.Sprintf("upgrade(%d)", int(u))
}

// Consensus branch ids.
const (
	SproutBranchID     = uint32(0x00000000)
	OverwinterBranchID = uint32(0x5ba81b19)
	SaplingBranchID    = uint32(0x76b809bb)
	BlossomBranchID    = uint32(0x2bb40e60)
	HeartwoodBranchID  = uint32(0xf5b9230b)
	CanopyBranchID     = uint32(0xe9ff75a6)
)

var branchIDs = [...]uint32{
	Sprout:     SproutBranchID,
	Overwinter: OverwinterBranchID,
	Sapling:    SaplingBranchID,
	Blossom:    BlossomBranchID,
	Heartwood:  HeartwoodBranchID,
	Canopy:     CanopyBranchID,
}

// NoActivation marks an upgrade that never activates on a network.
const NoActivation = ^uint32(0)

// Network holds the parameters of a BitcoinZ network.
type Network struct {
	Name string

	// Base58Check prefixes. Transparent address prefixes are two bytes.
	PubKeyHashPrefix [2]byte
	ScriptHashPrefix [2]byte
	WIF              byte

	// Bech32 human-readable parts for Sapling keys and addresses.
	SaplingPaymentAddressHRP      string
	SaplingFullViewingKeyHRP      string
	SaplingExtendedSpendingKeyHRP string

	// SLIP 44 coin type.
	CoinType uint32

	// Activation heights indexed by NetworkUpgrade. Sprout is always 0.
	Activations [Canopy + 1]uint32

	// DefaultExpiryDelta is added to the build height for expiryHeight.
	DefaultExpiryDelta uint32
}

// MainNet is the BitcoinZ main network.
var MainNet = Network{
	Name:                          "mainnet",
	PubKeyHashPrefix:              [2]byte{0x1c, 0xb8},
	ScriptHashPrefix:              [2]byte{0x1c, 0xbd},
	WIF:                           0x80,
	SaplingPaymentAddressHRP:      "zs",
	SaplingFullViewingKeyHRP:      "zxviews",
	SaplingExtendedSpendingKeyHRP: "secret-extended-key-main",
	CoinType:                      177,
	Activations: [Canopy + 1]uint32{
		Sprout:     0,
		Overwinter: 328500,
		Sapling:    328500,
		Blossom:    653600,
		Heartwood:  903800,
		Canopy:     1153550,
	},
	DefaultExpiryDelta: 20,
}

// RegTest is the local regression test network. Every upgrade is active
// from height 1.
var RegTest = Network{
	Name:                          "regtest",
	PubKeyHashPrefix:              [2]byte{0x1d, 0x25},
	ScriptHashPrefix:              [2]byte{0x1c, 0xba},
	WIF:                           0xef,
	SaplingPaymentAddressHRP:      "zregtestsapling",
	SaplingFullViewingKeyHRP:      "zxviewregtestsapling",
	SaplingExtendedSpendingKeyHRP: "secret-extended-key-regtest",
	CoinType:                      1,
	Activations: [Canopy + 1]uint32{
		Sprout:     0,
		Overwinter: 1,
		Sapling:    1,
		Blossom:    1,
		Heartwood:  1,
		Canopy:     1,
	},
	DefaultExpiryDelta: 20,
}

// ByName returns the network with the given name.
func ByName(name string) (*Network, error) {
	switch strings.ToLower(name) {
	case "", "main", "mainnet":
		return &MainNet, nil
	case "regtest":
		return &RegTest, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

// UpgradeAt returns the activation height of u, or NoActivation.
func (n *Network) UpgradeAt(u NetworkUpgrade) uint32 {
	if u < Sprout || u > Canopy {
		return NoActivation
	}
	return n.Activations[u]
}

// IsActive reports whether u is active at height.
func (n *Network) IsActive(u NetworkUpgrade, height uint32) bool {
	at := n.UpgradeAt(u)
	return at != NoActivation && height >= at
}

// CurrentUpgrade returns the latest upgrade active at height.
func (n *Network) CurrentUpgrade(height uint32) NetworkUpgrade {
	for u := Canopy; u > Sprout; u-- {
		if n.IsActive(u, height) {
			return u
		}
	}
	return Sprout
}

// BranchIDForHeight returns the consensus branch id of the upgrade active
// at height, as a reference Zcash node would use it.
func (n *Network) BranchIDForHeight(height uint32) uint32 {
	return BranchIDFor(n.CurrentUpgrade(height))
}

// SighashBranchID returns the branch id to personalize signature hashes
// with when building at height. BitcoinZ keeps the Sapling id for every
// height from Sapling activation on; earlier heights cannot carry v4
// transactions.
func (n *Network) SighashBranchID(height uint32) (uint32, error) {
	if !n.IsActive(Sapling, height) {
		return 0, txerr.New(txerr.UnsupportedOperation,
			"sapling is not active at height %d on %s (activates at %d)", height, n.Name, n.UpgradeAt(Sapling))
	}
	return SaplingBranchID, nil
}

// AfterZip212 reports whether outputs created at height use v2 note
// plaintexts.
func (n *Network) AfterZip212(height uint32) bool {
	return n.IsActive(Canopy, height)
}

// ExpiryHeight returns the expiry height for a transaction built at height,
// saturating at the maximum the consensus rules allow.
func (n *Network) ExpiryHeight(height, delta uint32) uint32 {
	const maxExpiry = 499999999
	if delta == 0 {
		delta = n.DefaultExpiryDelta
	}
	if uint64(height)+uint64(delta) > maxExpiry {
		return maxExpiry
	}
	return height + delta
}

// BranchIDFor returns the consensus branch id of u.
func BranchIDFor(u NetworkUpgrade) uint32 {
	if u < Sprout || u > Canopy {
		return SproutBranchID
	}
	return branchIDs[u]
}

// UpgradeForBranchID returns the upgrade a branch id belongs to.
func UpgradeForBranchID(id uint32) (NetworkUpgrade, error) {
	for u, b := range branchIDs {
		if b == id {
			return NetworkUpgrade(u), nil
		}
	}
	return Sprout, fmt.Errorf("unknown consensus branch id 0x%08x", id)
}

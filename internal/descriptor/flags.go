package descriptor

import (
	"fmt"
	"math/bits"
	"strings"
)

// Capability is a bit in the 32-bit security-flags word describing what a
// command is able to do. Capability bits occupy bits 8-12; bits 0-4 hold the
// one-hot risk level.
type Capability uint32

const (
	CapRootRequired Capability = 1 << (8 + iota)
	CapDestructive
	CapNetwork
	CapFileMod
	CapSystemMod
)

// AllCaps is the union of every defined capability bit.
const AllCaps Capability = CapRootRequired | CapDestructive | CapNetwork | CapFileMod | CapSystemMod

const capMask = AllCaps

// riskMask covers the five one-hot risk bits.
const riskMask uint32 = (1 << NumRiskLevels) - 1

var capNames = []struct {
	cap  Capability
	name string
}{
	{CapRootRequired, "root-required"},
	{CapDestructive, "destructive"},
	{CapNetwork, "network"},
	{CapFileMod, "file-mod"},
	{CapSystemMod, "system-mod"},
}

// Has reports whether c contains every bit of want.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Names returns the human-readable names of all set capability bits,
// in declaration order.
func (c Capability) Names() []string {
	var names []string
	for _, cn := range capNames {
		if c&cn.cap != 0 {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Capability) String() string {
	names := c.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// FlagSet is the decoded form of the security-flags word: one risk level and
// a set of capability bits. All call sites decode through DecodeFlags rather
// than re-deriving bit constants.
type FlagSet struct {
	Risk RiskLevel
	Caps Capability
}

// Encode packs the flag set into the wire representation: a one-hot risk bit
// in bits 0-4 plus the capability bits.
func (fs FlagSet) Encode() uint32 {
	return (1 << uint32(fs.Risk)) | uint32(fs.Caps&capMask)
}

// DecodeFlags is the single exhaustive decoder for the security-flags word.
// It enforces the wire invariant that exactly one risk bit is set and that no
// unknown bits are present.
func DecodeFlags(bits32 uint32) (FlagSet, error) {
	riskBits := bits32 & riskMask
	if bits.OnesCount32(riskBits) != 1 {
		return FlagSet{}, fmt.Errorf("security flags %#08x: expected exactly one risk bit, got %d", bits32, bits.OnesCount32(riskBits))
	}
	if unknown := bits32 &^ (riskMask | uint32(capMask)); unknown != 0 {
		return FlagSet{}, fmt.Errorf("security flags %#08x: unknown bits %#08x", bits32, unknown)
	}
	return FlagSet{
		Risk: RiskLevel(bits.TrailingZeros32(riskBits)),
		Caps: Capability(bits32) & capMask,
	}, nil
}

// Names returns the risk level name followed by all capability names.
// This is the []string flags shape reported to callers.
func (fs FlagSet) Names() []string {
	return append([]string{fs.Risk.String()}, fs.Caps.Names()...)
}

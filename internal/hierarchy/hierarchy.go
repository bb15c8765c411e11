// Package hierarchy implements the parent+delta compressed encoding for
// command families. A family of N standalone 24-byte descriptors becomes one
// 16-byte parent plus one 6-8-byte delta per member.
//
// The split is lossless for every security-relevant field: reconstructing a
// member from parent+delta reproduces its exact risk level and capability
// set. Only the performance estimates are lossily quantized (two 4-bit log2
// buckets per member).
package hierarchy

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"

	"github.com/riskfield/cmdsafe/internal/catalog"
	"github.com/riskfield/cmdsafe/internal/descriptor"
)

const (
	// ParentMagic tags the first byte of a hierarchical parent descriptor.
	ParentMagic = 0xD6
	// ParentSize is the encoded size of a ParentDescriptor.
	ParentSize = 16
	// DeltaBaseSize is the encoded size of a delta without extended metadata.
	DeltaBaseSize = 6
	// DeltaExtSize is the encoded size of a delta carrying extended metadata.
	DeltaExtSize = 8
)

// Family property bits in the parent's common-flags word, above the
// capability bits. Each bit is a "true for this family" test.
const (
	FamilyAllRootRequired uint32 = 1 << (16 + iota)
	FamilyHasDestructive
	FamilyHasSafeMember
	FamilyLarge // more than 10 members
)

const familyPropMask = FamilyAllRootRequired | FamilyHasDestructive | FamilyHasSafeMember | FamilyLarge

// ParentDescriptor holds everything common to a family.
type ParentDescriptor struct {
	Version     uint8
	FamilyHash  uint32
	CommonFlags uint32 // common capability bits | family property bits
	MemberCount uint8
	RiskFloor   descriptor.RiskLevel
	FamilyType  catalog.FamilyType
}

// CommonCaps returns the capability bits shared by every family member.
func (p ParentDescriptor) CommonCaps() descriptor.Capability {
	return descriptor.Capability(p.CommonFlags) & descriptor.AllCaps
}

// Encode packs the parent into its 16-byte wire form.
func (p ParentDescriptor) Encode() [ParentSize]byte {
	var buf [ParentSize]byte
	buf[0] = ParentMagic
	buf[1] = p.Version
	binary.BigEndian.PutUint32(buf[2:6], p.FamilyHash)
	binary.BigEndian.PutUint32(buf[6:10], p.CommonFlags)
	buf[10] = p.MemberCount
	buf[11] = uint8(p.RiskFloor)
	buf[12] = uint8(p.FamilyType)
	buf[13] = 0
	binary.BigEndian.PutUint16(buf[14:16], descriptor.Checksum(buf[:14]))
	return buf
}

// DecodeParent unpacks and validates a 16-byte parent record.
func DecodeParent(data []byte) (ParentDescriptor, error) {
	if len(data) != ParentSize {
		return ParentDescriptor{}, fmt.Errorf("parent descriptor: expected %d bytes, got %d", ParentSize, len(data))
	}
	if data[0] != ParentMagic {
		return ParentDescriptor{}, fmt.Errorf("parent descriptor: bad magic %#02x", data[0])
	}
	if got, want := binary.BigEndian.Uint16(data[14:16]), descriptor.Checksum(data[:14]); got != want {
		return ParentDescriptor{}, fmt.Errorf("%w: got %#04x, want %#04x", descriptor.ErrChecksum, got, want)
	}
	floor := descriptor.RiskLevel(data[11])
	if !floor.Valid() {
		return ParentDescriptor{}, fmt.Errorf("parent descriptor: invalid risk floor %d", data[11])
	}
	return ParentDescriptor{
		Version:     data[1],
		FamilyHash:  binary.BigEndian.Uint32(data[2:6]),
		CommonFlags: binary.BigEndian.Uint32(data[6:10]),
		MemberCount: data[10],
		RiskFloor:   floor,
		FamilyType:  catalog.FamilyType(data[12]),
	}, nil
}

// DeltaDescriptor holds what distinguishes one member from its parent.
type DeltaDescriptor struct {
	SubHash       uint8
	RiskDelta     uint8 // member risk minus parent floor, never negative
	SpecificFlags uint8 // member caps XOR common caps, shifted into one byte
	PerfByte      uint8 // clamp4(log2(execMs/100))<<4 | clamp4(log2(memMB/10))
	NameLen       uint8
	Extended      bool
	ExtExecBucket uint8 // unclamped log2 bucket, present when Extended
	ExtMemBucket  uint8
}

// Size returns the encoded size of the delta in bytes.
func (d DeltaDescriptor) Size() int {
	if d.Extended {
		return DeltaExtSize
	}
	return DeltaBaseSize
}

const deltaExtBit = 0x80

// Encode packs the delta into 6 or 8 bytes.
func (d DeltaDescriptor) Encode() []byte {
	buf := make([]byte, d.Size())
	buf[0] = d.SubHash
	buf[1] = d.RiskDelta
	buf[2] = d.SpecificFlags
	buf[3] = d.PerfByte
	buf[4] = d.NameLen
	if d.Extended {
		buf[5] = deltaExtBit
		buf[6] = d.ExtExecBucket
		buf[7] = d.ExtMemBucket
	}
	return buf
}

// DecodeDelta unpacks a 6- or 8-byte delta record.
func DecodeDelta(data []byte) (DeltaDescriptor, error) {
	if len(data) != DeltaBaseSize && len(data) != DeltaExtSize {
		return DeltaDescriptor{}, fmt.Errorf("delta descriptor: expected %d or %d bytes, got %d", DeltaBaseSize, DeltaExtSize, len(data))
	}
	d := DeltaDescriptor{
		SubHash:       data[0],
		RiskDelta:     data[1],
		SpecificFlags: data[2],
		PerfByte:      data[3],
		NameLen:       data[4],
	}
	if data[5]&deltaExtBit != 0 {
		if len(data) != DeltaExtSize {
			return DeltaDescriptor{}, fmt.Errorf("delta descriptor: extended bit set in %d-byte record", len(data))
		}
		d.Extended = true
		d.ExtExecBucket = data[6]
		d.ExtMemBucket = data[7]
	}
	return d, nil
}

// ReconstructMember rebuilds a member's security classification from its
// parent and delta. Risk level and capability set are exact; this is the
// correctness contract of the whole encoding.
func ReconstructMember(p ParentDescriptor, d DeltaDescriptor) (descriptor.FlagSet, error) {
	risk := descriptor.RiskLevel(uint8(p.RiskFloor) + d.RiskDelta)
	if !risk.Valid() {
		return descriptor.FlagSet{}, fmt.Errorf("reconstructed risk %d out of range (floor %s, delta %d)", risk, p.RiskFloor, d.RiskDelta)
	}
	caps := p.CommonCaps() ^ (descriptor.Capability(d.SpecificFlags) << 8)
	return descriptor.FlagSet{Risk: risk, Caps: caps}, nil
}

// SubHash computes the one-byte rolling hash of a member name's trailing
// token.
func SubHash(member string) uint8 {
	fields := strings.Fields(member)
	token := member
	if len(fields) > 0 {
		token = fields[len(fields)-1]
	}
	var h uint8
	for i := 0; i < len(token); i++ {
		h = h*31 + token[i]
	}
	return h
}

// perfBucket returns floor(log2(v/base)), the quantized performance bucket.
func perfBucket(v uint32, base uint32) uint8 {
	if base == 0 || v < base {
		return 0
	}
	return uint8(bits.Len32(v/base) - 1)
}

func clamp4(b uint8) uint8 {
	if b > 15 {
		return 15
	}
	return b
}

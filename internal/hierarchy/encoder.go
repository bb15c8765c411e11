package hierarchy

import (
	"errors"
	"sync"

	"github.com/riskfield/cmdsafe/internal/catalog"
	"github.com/riskfield/cmdsafe/internal/descriptor"
)

// ErrNoMembers is returned when a family analysis is requested with an empty
// member set.
var ErrNoMembers = errors.New("family has no members")

// FamilyEncoding is the compressed form of one family.
type FamilyEncoding struct {
	FamilyName string
	Parent     ParentDescriptor
	Deltas     map[string]DeltaDescriptor
	Ratio      float64
	RawBytes   int // N standalone descriptors
	Encoded    int // parent + deltas
}

// Encoder computes and caches family encodings. Results are cached per family
// name with the same idempotent-overwrite discipline as the descriptor cache:
// encoding is a pure function of the member set, so a redundant concurrent
// computation is just wasted work.
type Encoder struct {
	cache sync.Map // family name -> *FamilyEncoding
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// AnalyzeFamily encodes a family from its members' standalone descriptors.
// Families of one or zero members skip hierarchical encoding: the result has
// ratio 1.0 and an empty delta map.
func (e *Encoder) AnalyzeFamily(name string, famType catalog.FamilyType, members map[string]descriptor.CommandDescriptor) (*FamilyEncoding, error) {
	if cached, ok := e.cache.Load(name); ok {
		return cached.(*FamilyEncoding), nil
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	enc := encode(name, famType, members)
	e.cache.Store(name, enc)
	return enc, nil
}

// Invalidate drops the cached encoding for a family whose definition changed.
func (e *Encoder) Invalidate(name string) {
	e.cache.Delete(name)
}

// CachedFamilies returns how many family encodings are cached.
func (e *Encoder) CachedFamilies() int {
	n := 0
	e.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func encode(name string, famType catalog.FamilyType, members map[string]descriptor.CommandDescriptor) *FamilyEncoding {
	parent := buildParent(name, famType, members)

	enc := &FamilyEncoding{
		FamilyName: name,
		Parent:     parent,
		Deltas:     map[string]DeltaDescriptor{},
		RawBytes:   len(members) * descriptor.Size,
	}

	if len(members) <= 1 {
		enc.Ratio = 1.0
		enc.Encoded = enc.RawBytes
		return enc
	}

	deltaBytes := 0
	for sub, d := range members {
		delta := buildDelta(sub, d, parent)
		enc.Deltas[sub] = delta
		deltaBytes += delta.Size()
	}
	enc.Encoded = ParentSize + deltaBytes
	enc.Ratio = float64(enc.RawBytes) / float64(enc.Encoded)
	return enc
}

func buildParent(name string, famType catalog.FamilyType, members map[string]descriptor.CommandDescriptor) ParentDescriptor {
	floor := descriptor.RiskCritical
	commonCaps := descriptor.AllCaps
	allRoot := true
	hasDestructive := false
	hasSafe := false

	for _, d := range members {
		floor = descriptor.MinRisk(floor, d.Flags.Risk)
		commonCaps &= d.Flags.Caps
		if !d.Flags.Caps.Has(descriptor.CapRootRequired) {
			allRoot = false
		}
		if d.Flags.Caps.Has(descriptor.CapDestructive) {
			hasDestructive = true
		}
		if d.Flags.Risk == descriptor.RiskSafe {
			hasSafe = true
		}
	}

	common := uint32(commonCaps)
	if allRoot {
		common |= FamilyAllRootRequired
	}
	if hasDestructive {
		common |= FamilyHasDestructive
	}
	if hasSafe {
		common |= FamilyHasSafeMember
	}
	if len(members) > 10 {
		common |= FamilyLarge
	}

	count := len(members)
	if count > 255 {
		count = 255
	}

	return ParentDescriptor{
		Version:     descriptor.Version,
		FamilyHash:  descriptor.NameHash32(name),
		CommonFlags: common,
		MemberCount: uint8(count),
		RiskFloor:   floor,
		FamilyType:  famType,
	}
}

func buildDelta(sub string, d descriptor.CommandDescriptor, parent ParentDescriptor) DeltaDescriptor {
	execBucket := perfBucket(d.ExecMs, 100)
	memBucket := perfBucket(uint32(d.MemoryMB), 10)

	nameLen := len(sub)
	if nameLen > 255 {
		nameLen = 255
	}

	delta := DeltaDescriptor{
		SubHash: SubHash(sub),
		// Floor is the minimum over all members, so this never underflows.
		RiskDelta:     uint8(d.Flags.Risk) - uint8(parent.RiskFloor),
		SpecificFlags: uint8((d.Flags.Caps ^ parent.CommonCaps()) >> 8),
		PerfByte:      clamp4(execBucket)<<4 | clamp4(memBucket),
		NameLen:       uint8(nameLen),
	}
	if execBucket > 15 || memBucket > 15 {
		delta.Extended = true
		delta.ExtExecBucket = execBucket
		delta.ExtMemBucket = memBucket
	}
	return delta
}

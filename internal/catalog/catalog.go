// Package catalog holds the process-wide immutable lookup tables the engine
// classifies against: command risk categories, performance tiers, family
// definitions, family types, and the safe-alternative rewrite table.
//
// Tables are constructed once (built-in defaults, optionally overlaid with a
// YAML pack) and never mutated afterwards.
package catalog

import "github.com/riskfield/cmdsafe/internal/descriptor"

// RiskCategory classifies a single program name.
type RiskCategory struct {
	Risk descriptor.RiskLevel
	Caps descriptor.Capability
}

// PerfTier is a command's static performance estimate.
type PerfTier struct {
	ExecMs   uint32
	MemoryMB uint16
	OutputKB uint32
}

// Family groups a base program with its subcommands and their risk levels.
type Family struct {
	Base    string
	Type    FamilyType
	Members map[string]descriptor.RiskLevel
}

// FamilyType is the one-byte family category stored in the parent descriptor.
type FamilyType uint8

const (
	FamilyUnknown FamilyType = iota
	FamilyVCS
	FamilyPackaging
	FamilyContainer
	FamilyNetwork
	FamilyFilesystem
	FamilySystem
)

func (t FamilyType) String() string {
	switch t {
	case FamilyVCS:
		return "vcs"
	case FamilyPackaging:
		return "packaging"
	case FamilyContainer:
		return "container"
	case FamilyNetwork:
		return "network"
	case FamilyFilesystem:
		return "filesystem"
	case FamilySystem:
		return "system"
	default:
		return "unknown"
	}
}

// Alternative maps a dangerous command pattern to a safer rewrite.
// Patterns are matched as prefixes against the raw command, in table order;
// every match is reported, not just the first.
type Alternative struct {
	Pattern string
	Rewrite string
	Reason  string
}

// Catalog is the assembled read-only table set.
type Catalog struct {
	risks        map[string]RiskCategory
	perf         map[string]PerfTier
	families     map[string]Family
	alternatives []Alternative

	unknownRisk RiskCategory
	unknownPerf PerfTier
}

// Command returns the risk category for a program name. Unknown programs
// never error; they get the conservative default category (fails closed).
func (c *Catalog) Command(name string) RiskCategory {
	if rc, ok := c.risks[name]; ok {
		return rc
	}
	return c.unknownRisk
}

// Known reports whether a program name appears in the risk table.
func (c *Catalog) Known(name string) bool {
	_, ok := c.risks[name]
	return ok
}

// Perf returns the performance tier for a program name, falling back to the
// conservative cheap default for unknown programs.
func (c *Catalog) Perf(name string) PerfTier {
	if pt, ok := c.perf[name]; ok {
		return pt
	}
	return c.unknownPerf
}

// Family returns the named family definition, if one exists.
func (c *Catalog) Family(name string) (Family, bool) {
	f, ok := c.families[name]
	return f, ok
}

// FamilyNames returns the names of all defined families.
func (c *Catalog) FamilyNames() []string {
	names := make([]string, 0, len(c.families))
	for name := range c.families {
		names = append(names, name)
	}
	return names
}

// Alternatives returns the ordered rewrite table.
func (c *Catalog) Alternatives() []Alternative {
	return c.alternatives
}

// CommandNames returns every program name in the risk table.
func (c *Catalog) CommandNames() []string {
	names := make([]string, 0, len(c.risks))
	for name := range c.risks {
		names = append(names, name)
	}
	return names
}

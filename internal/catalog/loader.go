package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/riskfield/cmdsafe/internal/descriptor"
)

// catalogFile is the YAML overlay format. Every section is optional; entries
// merge over the built-in defaults, replacing same-named ones.
type catalogFile struct {
	Version  string                 `yaml:"version"`
	Commands map[string]commandSpec `yaml:"commands"`
	Families map[string]familySpec  `yaml:"families"`
}

type commandSpec struct {
	Risk         string   `yaml:"risk"`
	Capabilities []string `yaml:"capabilities,omitempty"`
	ExecMs       uint32   `yaml:"exec_ms,omitempty"`
	MemoryMB     uint16   `yaml:"memory_mb,omitempty"`
	OutputKB     uint32   `yaml:"output_kb,omitempty"`
}

type familySpec struct {
	Type    string            `yaml:"type,omitempty"`
	Members map[string]string `yaml:"members"`
}

// Load returns the built-in catalog overlaid with the YAML pack at path.
// A missing file is not an error; the defaults are used as-is.
func Load(path string) (*Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cat, nil
		}
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	for name, spec := range file.Commands {
		risk, err := descriptor.ParseRiskLevel(spec.Risk)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: command %q: %w", path, name, err)
		}
		caps, err := parseCapabilities(spec.Capabilities)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: command %q: %w", path, name, err)
		}
		cat.risks[name] = RiskCategory{Risk: risk, Caps: caps}
		if spec.ExecMs > 0 || spec.MemoryMB > 0 || spec.OutputKB > 0 {
			cat.perf[name] = PerfTier{ExecMs: spec.ExecMs, MemoryMB: spec.MemoryMB, OutputKB: spec.OutputKB}
		}
	}

	for name, spec := range file.Families {
		members := make(map[string]descriptor.RiskLevel, len(spec.Members))
		for sub, level := range spec.Members {
			risk, err := descriptor.ParseRiskLevel(level)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: family %q member %q: %w", path, name, sub, err)
			}
			members[sub] = risk
		}
		cat.families[name] = Family{
			Base:    name,
			Type:    parseFamilyType(spec.Type),
			Members: members,
		}
	}

	return cat, nil
}

func parseCapabilities(names []string) (descriptor.Capability, error) {
	var caps descriptor.Capability
	for _, n := range names {
		switch n {
		case "root-required":
			caps |= descriptor.CapRootRequired
		case "destructive":
			caps |= descriptor.CapDestructive
		case "network":
			caps |= descriptor.CapNetwork
		case "file-mod":
			caps |= descriptor.CapFileMod
		case "system-mod":
			caps |= descriptor.CapSystemMod
		default:
			return 0, fmt.Errorf("unknown capability %q", n)
		}
	}
	return caps, nil
}

func parseFamilyType(s string) FamilyType {
	switch s {
	case "vcs":
		return FamilyVCS
	case "packaging":
		return FamilyPackaging
	case "container":
		return FamilyContainer
	case "network":
		return FamilyNetwork
	case "filesystem":
		return FamilyFilesystem
	case "system":
		return FamilySystem
	default:
		return FamilyUnknown
	}
}

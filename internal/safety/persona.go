package safety

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/riskfield/cmdsafe/internal/descriptor"
)

// PersonaSafetyProfile is a named policy overlay: a risk-tolerance ceiling
// plus capability allow/require/deny sets. Profiles are immutable after
// construction; one exists per known agent identity.
type PersonaSafetyProfile struct {
	AgentID         string
	Tolerance       descriptor.RiskLevel
	Allowed         descriptor.Capability // capabilities the persona may exercise freely
	RequireApproval descriptor.Capability // capabilities that always need sign-off
	AutoReject      descriptor.Capability // capabilities the persona may never touch
}

// DefaultPersonas returns the built-in profile table.
func DefaultPersonas() map[string]PersonaSafetyProfile {
	return map[string]PersonaSafetyProfile{
		"guardian": {
			AgentID:         "guardian",
			Tolerance:       descriptor.RiskSafe,
			Allowed:         0,
			RequireApproval: descriptor.CapFileMod | descriptor.CapNetwork,
			AutoReject:      descriptor.CapDestructive | descriptor.CapSystemMod | descriptor.CapRootRequired,
		},
		"architect": {
			AgentID:         "architect",
			Tolerance:       descriptor.RiskLow,
			Allowed:         descriptor.CapFileMod,
			RequireApproval: descriptor.CapSystemMod | descriptor.CapRootRequired,
			AutoReject:      descriptor.CapDestructive,
		},
		"pragmatist": {
			AgentID:         "pragmatist",
			Tolerance:       descriptor.RiskMedium,
			Allowed:         descriptor.CapFileMod | descriptor.CapNetwork,
			RequireApproval: descriptor.CapDestructive | descriptor.CapRootRequired,
		},
		"operator": {
			AgentID:   "operator",
			Tolerance: descriptor.RiskHigh,
			Allowed:   descriptor.CapFileMod | descriptor.CapNetwork | descriptor.CapSystemMod,
		},
	}
}

// personaFile is the YAML overlay format for persona packs.
type personaFile struct {
	Personas map[string]personaSpec `yaml:"personas"`
}

type personaSpec struct {
	Tolerance       string   `yaml:"tolerance"`
	Allowed         []string `yaml:"allowed,omitempty"`
	RequireApproval []string `yaml:"require_approval,omitempty"`
	AutoReject      []string `yaml:"auto_reject,omitempty"`
}

// LoadPersonas returns the built-in personas overlaid with the YAML pack at
// path. A missing file is not an error.
func LoadPersonas(path string) (map[string]PersonaSafetyProfile, error) {
	personas := DefaultPersonas()
	if path == "" {
		return personas, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return personas, nil
		}
		return nil, err
	}

	var file personaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("personas %s: %w", path, err)
	}

	for id, spec := range file.Personas {
		tolerance, err := descriptor.ParseRiskLevel(spec.Tolerance)
		if err != nil {
			return nil, fmt.Errorf("personas %s: %q: %w", path, id, err)
		}
		allowed, err := capSet(spec.Allowed)
		if err != nil {
			return nil, fmt.Errorf("personas %s: %q: %w", path, id, err)
		}
		require, err := capSet(spec.RequireApproval)
		if err != nil {
			return nil, fmt.Errorf("personas %s: %q: %w", path, id, err)
		}
		reject, err := capSet(spec.AutoReject)
		if err != nil {
			return nil, fmt.Errorf("personas %s: %q: %w", path, id, err)
		}
		personas[id] = PersonaSafetyProfile{
			AgentID:         id,
			Tolerance:       tolerance,
			Allowed:         allowed,
			RequireApproval: require,
			AutoReject:      reject,
		}
	}
	return personas, nil
}

func capSet(names []string) (descriptor.Capability, error) {
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

// applyPersona composes the base analysis with a persona profile. The
// override is deterministic and ordered:
//
//  1. auto-reject capability present, or CRITICAL risk  -> REJECT
//  2. required-approval capability present, or risk above
//     tolerance                                         -> REQUIRE_APPROVAL
//  3. risk within tolerance                             -> APPROVED
//  4. anything else                                     -> CAUTION_MODE
func applyPersona(p PersonaSafetyProfile, risk descriptor.RiskLevel, caps descriptor.Capability) (descriptor.Decision, string) {
	switch {
	case caps&p.AutoReject != 0:
		return descriptor.DecisionReject,
			fmt.Sprintf("persona %q auto-rejects capabilities: %s", p.AgentID, caps&p.AutoReject)
	case risk >= descriptor.RiskCritical:
		return descriptor.DecisionReject,
			fmt.Sprintf("persona %q rejects CRITICAL risk outright", p.AgentID)
	case caps&p.RequireApproval != 0:
		return descriptor.DecisionRequireApproval,
			fmt.Sprintf("persona %q requires approval for capabilities: %s", p.AgentID, caps&p.RequireApproval)
	case risk > p.Tolerance:
		return descriptor.DecisionRequireApproval,
			fmt.Sprintf("risk %s exceeds persona %q tolerance %s", risk, p.AgentID, p.Tolerance)
	case risk <= p.Tolerance:
		return descriptor.DecisionApproved,
			fmt.Sprintf("risk %s within persona %q tolerance", risk, p.AgentID)
	default:
		return descriptor.DecisionCautionMode,
			fmt.Sprintf("persona %q fallback: caution", p.AgentID)
	}
}

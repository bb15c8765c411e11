package descriptor

import "fmt"

// RiskLevel is the ordered risk classification assigned to a command.
// Levels are totally ordered (Safe < Low < Medium < High < Critical) and
// support max-aggregation when merging results from multiple sources.
type RiskLevel uint8

const (
	RiskSafe RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

// NumRiskLevels is the size of the risk vocabulary. Delta encoding relies on
// risk deltas fitting in a byte, which this guarantees.
const NumRiskLevels = 5

func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "SAFE"
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("RISK(%d)", uint8(r))
	}
}

// Valid reports whether r is one of the five defined levels.
func (r RiskLevel) Valid() bool {
	return r < NumRiskLevels
}

// MaxRisk returns the higher of two risk levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if a > b {
		return a
	}
	return b
}

// MinRisk returns the lower of two risk levels.
func MinRisk(a, b RiskLevel) RiskLevel {
	if a < b {
		return a
	}
	return b
}

// ParseRiskLevel converts a level name (as produced by String) back to a
// RiskLevel. Used by the YAML catalog loader.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch s {
	case "SAFE":
		return RiskSafe, nil
	case "LOW":
		return RiskLow, nil
	case "MEDIUM":
		return RiskMedium, nil
	case "HIGH":
		return RiskHigh, nil
	case "CRITICAL":
		return RiskCritical, nil
	}
	return 0, fmt.Errorf("unknown risk level %q", s)
}

// Decision is the policy outcome for a command. It is always derived from a
// risk level plus (optionally) a persona profile, never stored.
type Decision string

const (
	DecisionApproved        Decision = "APPROVED"
	DecisionCautionMode     Decision = "CAUTION_MODE"
	DecisionRequireApproval Decision = "REQUIRE_APPROVAL"
	DecisionReject          Decision = "REJECT"
)

// DefaultDecision maps a risk level to the decision used when no persona
// profile is in play: CRITICAL rejects, HIGH requires approval, MEDIUM runs
// in caution mode, everything else is approved.
func DefaultDecision(r RiskLevel) Decision {
	switch {
	case r >= RiskCritical:
		return DecisionReject
	case r == RiskHigh:
		return DecisionRequireApproval
	case r == RiskMedium:
		return DecisionCautionMode
	default:
		return DecisionApproved
	}
}

// decisionSeverity returns a numeric severity for priority comparison.
// Higher number = more restrictive decision.
func decisionSeverity(d Decision) int {
	switch d {
	case DecisionReject:
		return 4
	case DecisionRequireApproval:
		return 3
	case DecisionCautionMode:
		return 2
	case DecisionApproved:
		return 1
	default:
		return 0
	}
}

// MostRestrictive returns the more restrictive of two decisions.
// Used when merging descriptor analysis with pattern-rule results; the merged
// outcome is never less restrictive than either input.
func MostRestrictive(a, b Decision) Decision {
	if decisionSeverity(b) > decisionSeverity(a) {
		return b
	}
	return a
}

// Package rules is the text-pattern rule set for dangerous operations. It is
// independent of the descriptor database: rules match free text (debate
// conclusions, proposed plans) rather than single parsed commands, and add
// multi-agent "dangerous consensus" detection on top.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/riskfield/cmdsafe/internal/descriptor"
)

// SafetyRule is one entry in the static rule table. Rules are evaluated in
// order and every match contributes to the result.
type SafetyRule struct {
	ID              string
	Pattern         *regexp.Regexp
	Risk            descriptor.RiskLevel
	BlocksConsensus bool   // matching this rule also counts as a consensus trigger
	Rewrite         string // safer form substituted by SafeAlternatives
	Rationale       string
}

// Table returns the static ordered rule set. Constructed once at package
// init; callers must not mutate it.
func Table() []SafetyRule {
	return ruleTable
}

var ruleTable = []SafetyRule{
	{
		ID:              "irreversible-data-destruction",
		Pattern:         regexp.MustCompile(`rm\s+(-[a-zA-Z]*r[a-zA-Z]*f|-[a-zA-Z]*f[a-zA-Z]*r)\s+/(\s|$|[a-z])`),
		Risk:            descriptor.RiskCritical,
		BlocksConsensus: true,
		Rewrite:         "mkdir -p ~/.quarantine && mv <target> ~/.quarantine/",
		Rationale:       "recursive force-delete of a root-anchored path is unrecoverable",
	},
	{
		ID:              "filesystem-overwrite",
		Pattern:         regexp.MustCompile(`(mkfs(\.\w+)?\s|dd\s+[^|]*of=/dev/|wipefs\s|shred\s+[^|]*/dev/)`),
		Risk:            descriptor.RiskCritical,
		BlocksConsensus: true,
		Rewrite:         "write to a file image under /tmp and verify before touching devices",
		Rationale:       "direct device writes destroy filesystems without confirmation",
	},
	{
		ID:        "remote-content-into-shell",
		Pattern:   regexp.MustCompile(`(curl|wget)\s[^|;]*\|\s*(sudo\s+)?(ba|z|fi|da)?sh`),
		Risk:      descriptor.RiskHigh,
		Rewrite:   "download to a file, inspect it, then run it explicitly",
		Rationale: "piping remote content into a shell executes unreviewed code",
	},
	{
		ID:        "privilege-escalation",
		Pattern:   regexp.MustCompile(`\b(sudo\s+(su|bash|sh|-i)|su\s+-\s*$|sudo\s+chmod\s+[0-7]*7[0-7]*7)`),
		Risk:      descriptor.RiskHigh,
		Rewrite:   "run the specific privileged command, not an elevated shell",
		Rationale: "open-ended privilege escalation defeats all downstream policy",
	},
	{
		ID:        "destructive-history-rewrite",
		Pattern:   regexp.MustCompile(`git\s+(push\s+[^|;]*--force(\s|$)|reset\s+--hard|filter-branch|reflog\s+expire\s+--expire=now)`),
		Risk:      descriptor.RiskHigh,
		Rewrite:   "git push --force-with-lease / git stash before reset",
		Rationale: "force pushes and hard resets discard history other agents may depend on",
	},
	{
		ID:        "over-privileged-container",
		Pattern:   regexp.MustCompile(`(docker|podman)\s+run\s[^|;]*(--privileged|-v\s+/:/|--pid[= ]host|--cap-add[= ]?SYS_ADMIN)`),
		Risk:      descriptor.RiskHigh,
		Rewrite:   "grant only the specific capability or mount the container needs",
		Rationale: "a privileged container is equivalent to root on the host",
	},
}

// consensusTriggers are patterns so severe that their mere presence in a
// multi-agent conclusion warrants a consensus warning, regardless of how
// many agents contributed.
var consensusTriggers = []*regexp.Regexp{
	regexp.MustCompile(`sudo\s+rm\s+-[a-zA-Z]*r[a-zA-Z]*f?\s+/`),
	regexp.MustCompile(`rm\s+-rf\s+/\s*(--no-preserve-root)?\s*$`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\}\s*;:`),
	regexp.MustCompile(`dd\s+if=/dev/(zero|urandom)\s+of=/dev/[a-z]`),
}

// PersonaContext is one debating agent's stance as seen by consensus
// detection.
type PersonaContext struct {
	AgentID     string
	Tolerance   descriptor.RiskLevel
	Contributed bool // agent contributed to the risky conclusion
}

// ValidationResult is the outcome of validating a conclusion against the
// rule table.
type ValidationResult struct {
	Valid            bool
	Risk             descriptor.RiskLevel
	BlockedReasons   []string
	MatchedRules     []string
	ConsensusWarning string
}

// ValidateConclusion runs every rule over the text. Any match invalidates
// the conclusion; risk is the max over matched rules. Consensus detection is
// an annotation layered on top: it can add a warning but never reduces the
// rule-derived severity.
func ValidateConclusion(text string, contexts []PersonaContext) ValidationResult {
	result := ValidationResult{Valid: true}

	for _, rule := range ruleTable {
		if rule.Pattern.MatchString(text) {
			result.Valid = false
			result.Risk = descriptor.MaxRisk(result.Risk, rule.Risk)
			result.MatchedRules = append(result.MatchedRules, rule.ID)
			result.BlockedReasons = append(result.BlockedReasons, fmt.Sprintf("%s: %s", rule.ID, rule.Rationale))
		}
	}

	result.ConsensusWarning = detectConsensus(text, contexts, result)
	return result
}

// detectConsensus flags "dangerous consensus": several risk-tolerant agents
// converging on a risky conclusion, or the text matching an
// especially-severe trigger pattern.
func detectConsensus(text string, contexts []PersonaContext, result ValidationResult) string {
	for _, trigger := range consensusTriggers {
		if trigger.MatchString(text) {
			return "conclusion matches a severe consensus-trigger pattern; independent review required"
		}
	}

	if result.Valid {
		return ""
	}
	tolerant := 0
	for _, pc := range contexts {
		if pc.Tolerance >= descriptor.RiskHigh && pc.Contributed {
			tolerant++
		}
	}
	if tolerant >= 3 {
		return fmt.Sprintf("%d risk-tolerant agents converged on a dangerous conclusion; this is groupthink, not safety", tolerant)
	}
	return ""
}

// destructiveVerbs are command prefixes that get the generic quarantine
// treatment when no specific rewrite rule covers them.
var destructiveVerbs = []string{"rm ", "rmdir ", "shred ", "dd ", "mkfs", "wipefs ", "truncate ", "unlink "}

// SafeAlternatives returns the rewrite for every rule the command matches
// (in table order, not just the first), plus a generic quarantine fallback
// for destructive-verb prefixes not otherwise covered.
func SafeAlternatives(command string) []string {
	var alts []string
	matched := false
	for _, rule := range ruleTable {
		if rule.Pattern.MatchString(command) && rule.Rewrite != "" {
			alts = append(alts, rule.Rewrite)
			matched = true
		}
	}
	if !matched {
		trimmed := strings.TrimSpace(command)
		for _, verb := range destructiveVerbs {
			if strings.HasPrefix(trimmed, verb) || trimmed == strings.TrimSpace(verb) {
				alts = append(alts, QuarantineRewrite(command))
				break
			}
		}
	}
	return alts
}

// QuarantineRewrite wraps an unmapped destructive command in an inert stub
// that records the original intent without executing it.
func QuarantineRewrite(command string) string {
	return fmt.Sprintf("echo %q >> ~/.cmdsafe/quarantine.log # original command recorded, not executed", strings.TrimSpace(command))
}

package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// OutputFilter rewrites persona output before it is surfaced to other
// agents. Filtering is idempotent: filtering already-filtered output changes
// nothing further.
type OutputFilter interface {
	Persona() string
	// Filter returns the rewritten text and one warning per substitution.
	Filter(text string) (string, []string)
}

// outputFilters indexes the shipped filters by persona.
var outputFilters = []OutputFilter{ConservativeFilter{}, ArchitectureFilter{}}

// FilterFor returns the output filter registered for a persona, if any.
func FilterFor(persona string) (OutputFilter, bool) {
	for _, f := range outputFilters {
		if f.Persona() == persona {
			return f, true
		}
	}
	return nil, false
}

// filterMarker prefixes every line a filter has neutralized. Its presence is
// what makes filtering idempotent.
const filterMarker = "# [cmdsafe:filtered]"

// reviewMarker annotates lines flagged for human review without removal.
const reviewMarker = "# [cmdsafe:review]"

// destructiveLine matches lines containing destructive or
// privilege-escalation verbs.
var destructiveLine = regexp.MustCompile(`(^|\s|\$\s*)(rm|rmdir|shred|dd|mkfs(\.\w+)?|wipefs|truncate|sudo|su)\s`)

// ConservativeFilter is the maximally conservative persona: it strips every
// destructive and privilege-escalation verb, commenting the line out and
// emitting one warning per substitution.
type ConservativeFilter struct{}

func (ConservativeFilter) Persona() string { return "guardian" }

func (f ConservativeFilter) Filter(text string) (string, []string) {
	lines := strings.Split(text, "\n")
	var warnings []string

	for i, line := range lines {
		if strings.Contains(line, filterMarker) {
			continue // already neutralized
		}
		if destructiveLine.MatchString(line) {
			lines[i] = fmt.Sprintf("%s %s", filterMarker, line)
			warnings = append(warnings, fmt.Sprintf("line %d: destructive or privileged operation commented out", i+1))
		}
	}
	return strings.Join(lines, "\n"), warnings
}

// permissivePerms matches world-writable permission grants.
var permissivePerms = regexp.MustCompile(`chmod\s+(-R\s+)?(0?777|a\+rwx|o\+w)\b`)

// serviceChange matches service- and mount-level system changes.
var serviceChange = regexp.MustCompile(`(^|\s)(systemctl|service|mount|umount)\s`)

// ArchitectureFilter is the architecture-reviewer persona: everything the
// conservative filter does, plus tightening world-writable permission grants
// and flagging service/mount-level changes for review.
type ArchitectureFilter struct{}

func (ArchitectureFilter) Persona() string { return "architect" }

func (f ArchitectureFilter) Filter(text string) (string, []string) {
	filtered, warnings := ConservativeFilter{}.Filter(text)
	lines := strings.Split(filtered, "\n")

	for i, line := range lines {
		if strings.Contains(line, filterMarker) {
			continue
		}
		if permissivePerms.MatchString(line) {
			lines[i] = permissivePerms.ReplaceAllString(line, "chmod ${1}750")
			warnings = append(warnings, fmt.Sprintf("line %d: world-writable permission grant tightened to 750", i+1))
			continue
		}
		if serviceChange.MatchString(line) && !strings.Contains(line, reviewMarker) {
			lines[i] = line + " " + reviewMarker
			warnings = append(warnings, fmt.Sprintf("line %d: service or mount-level change flagged for review", i+1))
		}
	}
	return strings.Join(lines, "\n"), warnings
}

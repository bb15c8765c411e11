package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskfield/cmdsafe/internal/descriptor"
)

// Analysis is the result of a single-command safety check.
type Analysis struct {
	Risk        descriptor.RiskLevel
	Decision    descriptor.Decision
	Alternative string // safer rewrite, when the alternative table has one
	Reasoning   string
	Latency     time.Duration
	Flags       []string
}

// AnalyzeCommandSafety classifies a command and maps its risk level to the
// default decision. The whole path is static-table lookups over the cached
// descriptor; no I/O happens here.
func (db *Database) AnalyzeCommandSafety(command string) (Analysis, error) {
	start := time.Now()

	d, err := db.Descriptor(command)
	if err != nil {
		return Analysis{}, err
	}

	a := Analysis{
		Risk:     d.Flags.Risk,
		Decision: descriptor.DefaultDecision(d.Flags.Risk),
		Flags:    d.Flags.Names(),
	}

	for _, alt := range db.catalog.Alternatives() {
		if strings.Contains(command, alt.Pattern) {
			a.Alternative = alt.Rewrite
			break
		}
	}

	a.Reasoning = db.reasoning(command, d)
	a.Latency = time.Since(start)
	return a, nil
}

func (db *Database) reasoning(command string, d descriptor.CommandDescriptor) string {
	name := Program(command)
	var sb strings.Builder
	if db.catalog.Known(name) {
		fmt.Fprintf(&sb, "%q classified %s by the command risk table", name, d.Flags.Risk)
	} else {
		fmt.Fprintf(&sb, "%q is not in the command risk table; conservative default %s applied", name, d.Flags.Risk)
	}
	if caps := d.Flags.Caps.Names(); len(caps) > 0 {
		fmt.Fprintf(&sb, " (capabilities: %s)", strings.Join(caps, ", "))
	}
	return sb.String()
}

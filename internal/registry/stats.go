package registry

import "github.com/riskfield/cmdsafe/internal/descriptor"

// AssumedDocBytes is the assumed per-command documentation cost the
// compression-ratio statistic compares against. Reporting heuristic only.
const AssumedDocBytes = 512

// Statistics aggregates the cached descriptor population.
type Statistics struct {
	CommandCount     int
	RiskDistribution map[string]int
	Capabilities     []string
	CompressionRatio float64
}

// Statistics walks the descriptor cache and reports per-risk counts, the
// union of observed capabilities, and the documentation-size compression
// heuristic.
func (db *Database) Statistics() Statistics {
	stats := Statistics{RiskDistribution: map[string]int{}}

	var caps descriptor.Capability
	db.cache.Range(func(_, v any) bool {
		d := v.(descriptor.CommandDescriptor)
		stats.CommandCount++
		stats.RiskDistribution[d.Flags.Risk.String()]++
		caps |= d.Flags.Caps
		return true
	})

	stats.Capabilities = caps.Names()
	if stats.CommandCount > 0 {
		stats.CompressionRatio = float64(AssumedDocBytes) / float64(descriptor.Size)
	}
	return stats
}

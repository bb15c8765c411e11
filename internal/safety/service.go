// Package safety composes descriptor analysis with per-agent policy: it is
// the surface the orchestration layer calls. Every operation here is a
// synchronous computation over static tables plus read-mostly caches; the
// hot path does no I/O.
package safety

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/riskfield/cmdsafe/internal/catalog"
	"github.com/riskfield/cmdsafe/internal/descriptor"
	"github.com/riskfield/cmdsafe/internal/hierarchy"
	"github.com/riskfield/cmdsafe/internal/registry"
	"github.com/riskfield/cmdsafe/internal/rules"
	"github.com/riskfield/cmdsafe/internal/unicode"
)

// ErrUnknownFamily distinguishes "no such family" from a defect: callers can
// treat it as "nothing to compress".
var ErrUnknownFamily = errors.New("unknown command family")

// Assessment is the merged decision returned to the orchestration layer.
type Assessment struct {
	Approved         bool
	Risk             descriptor.RiskLevel
	Decision         descriptor.Decision
	Alternative      string
	Reasoning        string
	LatencyMicros    int64
	Flags            []string
	BlockedReasons   []string
	ConsensusWarning string
}

// Service wires the descriptor database, the hierarchical encoder, the
// pattern rules, and the persona profiles behind one API.
type Service struct {
	db       *registry.Database
	encoder  *hierarchy.Encoder
	catalog  *catalog.Catalog
	personas map[string]PersonaSafetyProfile

	// assessments is an L1 result cache keyed by persona+command. Entries
	// may be evicted at any time; recomputation is pure, so a miss is just
	// wasted work.
	assessments *ristretto.Cache[string, Assessment]
}

// Options configures optional service dependencies.
type Options struct {
	Catalog      *catalog.Catalog
	Personas     map[string]PersonaSafetyProfile
	CacheEntries int64 // max cached assessments; 0 uses a default
}

// New builds a service. Zero-value options give built-in tables and a small
// default cache.
func New(opts Options) (*Service, error) {
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	personas := opts.Personas
	if personas == nil {
		personas = DefaultPersonas()
	}
	entries := opts.CacheEntries
	if entries <= 0 {
		entries = 4096
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, Assessment]{
		NumCounters: entries * 10,
		MaxCost:     entries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("assessment cache: %w", err)
	}

	return &Service{
		db:          registry.New(cat),
		encoder:     hierarchy.NewEncoder(),
		catalog:     cat,
		personas:    personas,
		assessments: cache,
	}, nil
}

// Close releases the assessment cache.
func (s *Service) Close() {
	s.assessments.Close()
}

// Database exposes the underlying descriptor database (for the CLI and
// tests).
func (s *Service) Database() *registry.Database { return s.db }

// AnalyzeCommandSafety classifies a command and applies the persona override
// when a persona id is supplied. The (command, persona) pair always yields
// the same decision.
func (s *Service) AnalyzeCommandSafety(command, persona string) (Assessment, error) {
	key := persona + "\x00" + command
	if cached, ok := s.assessments.Get(key); ok {
		return cached, nil
	}

	start := time.Now()
	base, err := s.db.AnalyzeCommandSafety(command)
	if err != nil {
		return Assessment{}, err
	}

	a := Assessment{
		Risk:        base.Risk,
		Decision:    base.Decision,
		Alternative: base.Alternative,
		Reasoning:   base.Reasoning,
		Flags:       base.Flags,
	}

	if persona != "" {
		a = s.applyPersonaOverride(a, command, persona)
	}

	a.Approved = a.Decision == descriptor.DecisionApproved
	a.LatencyMicros = time.Since(start).Microseconds()
	s.assessments.Set(key, a, 1)
	return a, nil
}

// applyPersonaOverride composes the persona profile over the base analysis.
// Composition fails closed: an unknown persona or an out-of-range descriptor
// yields REQUIRE_APPROVAL, never silent approval.
func (s *Service) applyPersonaOverride(a Assessment, command, persona string) Assessment {
	profile, ok := s.personas[persona]
	if !ok {
		a.Decision = descriptor.DecisionRequireApproval
		a.Reasoning = fmt.Sprintf("%s; persona %q is not configured, failing closed", a.Reasoning, persona)
		return a
	}

	d, err := s.db.Descriptor(command)
	if err != nil {
		a.Decision = descriptor.DecisionRequireApproval
		a.Reasoning = fmt.Sprintf("%s; persona override failed (%v), failing closed", a.Reasoning, err)
		return a
	}

	decision, why := applyPersona(profile, d.Flags.Risk, d.Flags.Caps)
	a.Decision = decision
	a.Reasoning = a.Reasoning + "; " + why
	return a
}

// SafeAlternatives returns every safer rewrite known for the command: the
// catalog's ordered pattern table first, then the rule table's rewrites and
// quarantine fallback.
func (s *Service) SafeAlternatives(command string) []string {
	var alts []string
	seen := map[string]bool{}
	add := func(alt string) {
		if alt != "" && !seen[alt] {
			seen[alt] = true
			alts = append(alts, alt)
		}
	}

	for _, alt := range s.catalog.Alternatives() {
		if strings.Contains(command, alt.Pattern) {
			add(alt.Rewrite)
		}
	}
	for _, alt := range rules.SafeAlternatives(command) {
		add(alt)
	}
	return alts
}

// ValidateDebateConclusion scans free text for command candidates, analyzes
// each, runs the pattern rules and the unicode smuggling scan, and merges
// everything into one assessment. The result is never less restrictive than
// the most restrictive single-command analysis found in the text.
func (s *Service) ValidateDebateConclusion(text string, personas []string) (Assessment, error) {
	start := time.Now()

	findings, sanitized := unicode.Scan(text)

	a := Assessment{
		Risk:     descriptor.RiskSafe,
		Decision: descriptor.DecisionApproved,
	}

	// Highest-risk candidate wins; ties break toward the latest occurrence.
	var selected *registry.Analysis
	selectedOffset := -1
	for _, cand := range ExtractCommands(sanitized, s.catalog.Known) {
		analysis, err := s.db.AnalyzeCommandSafety(cand.Text)
		if err != nil {
			continue
		}
		if selected == nil || analysis.Risk > selected.Risk ||
			(analysis.Risk == selected.Risk && cand.Offset >= selectedOffset) {
			c := analysis
			selected = &c
			selectedOffset = cand.Offset
		}
	}

	if selected != nil {
		a.Risk = selected.Risk
		a.Decision = selected.Decision
		a.Alternative = selected.Alternative
		a.Flags = selected.Flags
		a.Reasoning = selected.Reasoning
		// Escalation policy for unreviewed text: HIGH or above never passes
		// without a human, whatever the per-command decision said.
		if selected.Risk >= descriptor.RiskHigh {
			a.Decision = descriptor.MostRestrictive(a.Decision, descriptor.DecisionRequireApproval)
		}
	} else {
		a.Reasoning = "no command candidates found in conclusion"
	}

	// Pattern rules over the sanitized text.
	contexts := s.personaContexts(personas)
	ruleResult := rules.ValidateConclusion(sanitized, contexts)
	if !ruleResult.Valid {
		a.Risk = descriptor.MaxRisk(a.Risk, ruleResult.Risk)
		a.Decision = descriptor.MostRestrictive(a.Decision, descriptor.DefaultDecision(ruleResult.Risk))
		a.BlockedReasons = append(a.BlockedReasons, ruleResult.BlockedReasons...)
	}
	a.ConsensusWarning = ruleResult.ConsensusWarning

	// Unicode findings escalate; they never lower a computed severity.
	for _, f := range findings {
		a.BlockedReasons = append(a.BlockedReasons, fmt.Sprintf("unicode %s at byte %d: %s", f.Kind, f.Offset, f.Detail))
	}
	if unicode.Blocking(findings) {
		a.Risk = descriptor.MaxRisk(a.Risk, descriptor.RiskHigh)
		a.Decision = descriptor.DecisionReject
	} else if len(findings) > 0 {
		a.Decision = descriptor.MostRestrictive(a.Decision, descriptor.DecisionRequireApproval)
	}

	a.Approved = a.Decision == descriptor.DecisionApproved
	a.LatencyMicros = time.Since(start).Microseconds()
	return a, nil
}

func (s *Service) personaContexts(ids []string) []rules.PersonaContext {
	var contexts []rules.PersonaContext
	for _, id := range ids {
		pc := rules.PersonaContext{AgentID: id, Contributed: true}
		if profile, ok := s.personas[id]; ok {
			pc.Tolerance = profile.Tolerance
		}
		contexts = append(contexts, pc)
	}
	return contexts
}

// FilterOutput rewrites text through the persona's registered output filter.
// Personas without a filter pass text through untouched.
func (s *Service) FilterOutput(persona, text string) (string, []string) {
	f, ok := rules.FilterFor(persona)
	if !ok {
		return text, nil
	}
	return f.Filter(text)
}

// CompressDebateKnowledge compresses a critique set with the reversible
// phrase dictionary.
func (s *Service) CompressDebateKnowledge(topic string, critiques map[string]string) *Knowledge {
	return CompressKnowledge(topic, critiques)
}

// AnalyzeFamily encodes a catalog-defined family hierarchically. Unknown
// family names return ErrUnknownFamily so callers can tell "nothing to
// compress" from a defect.
func (s *Service) AnalyzeFamily(name string) (*hierarchy.FamilyEncoding, error) {
	fam, ok := s.catalog.Family(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}

	members := make(map[string]descriptor.CommandDescriptor, len(fam.Members))
	for sub := range fam.Members {
		d, err := s.db.MemberDescriptor(fam.Base, sub)
		if err != nil {
			return nil, err
		}
		members[sub] = d
	}
	return s.encoder.AnalyzeFamily(name, fam.Type, members)
}

// Statistics merges descriptor-database statistics with the encoder's
// family count.
type Statistics struct {
	registry.Statistics
	Families int
}

// Statistics reports the system-wide aggregate view.
func (s *Service) Statistics() Statistics {
	return Statistics{
		Statistics: s.db.Statistics(),
		Families:   s.encoder.CachedFamilies(),
	}
}

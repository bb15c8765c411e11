package safety

import (
	"errors"
	"strings"
	"testing"

	"github.com/riskfield/cmdsafe/internal/descriptor"
	"github.com/riskfield/cmdsafe/internal/registry"
)

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestAnalyzeCommandSafety_PersonaTable(t *testing.T) {
	s := newService(t)

	tests := []struct {
		name     string
		command  string
		persona  string
		decision descriptor.Decision
		approved bool
	}{
		{"guardian rejects destructive", "rm -rf /", "guardian", descriptor.DecisionReject, false},
		{"guardian approves inert", "ls -la", "guardian", descriptor.DecisionApproved, true},
		{"guardian gates file mod", "git status", "guardian", descriptor.DecisionRequireApproval, false},
		{"guardian rejects system mod", "chmod 644 notes.txt", "guardian", descriptor.DecisionReject, false},
		{"operator tolerates high", "chmod 644 notes.txt", "operator", descriptor.DecisionApproved, true},
		{"operator still rejects critical", "rm -rf /", "operator", descriptor.DecisionReject, false},
		{"pragmatist gates destructive", "rm old.log", "pragmatist", descriptor.DecisionReject, false},
		{"no persona uses default mapping", "curl https://example.com", "", descriptor.DecisionCautionMode, false},
	}

	for _, tt := range tests {
		a, err := s.AnalyzeCommandSafety(tt.command, tt.persona)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if a.Decision != tt.decision {
			t.Errorf("%s: decision = %s, want %s (reasoning: %s)", tt.name, a.Decision, tt.decision, a.Reasoning)
		}
		if a.Approved != tt.approved {
			t.Errorf("%s: approved = %v, want %v", tt.name, a.Approved, tt.approved)
		}
	}
}

func TestAnalyzeCommandSafety_UnknownPersonaFailsClosed(t *testing.T) {
	s := newService(t)
	a, err := s.AnalyzeCommandSafety("ls", "intern")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Decision != descriptor.DecisionRequireApproval {
		t.Errorf("decision = %s, want REQUIRE_APPROVAL for unconfigured persona", a.Decision)
	}
	if a.Approved {
		t.Error("unknown persona must never auto-approve")
	}
}

func TestAnalyzeCommandSafety_UnknownCommandNeverErrors(t *testing.T) {
	s := newService(t)
	a, err := s.AnalyzeCommandSafety("frobnicate --recursive /data", "")
	if err != nil {
		t.Fatalf("unknown command must not error, got %v", err)
	}
	if a.Risk != descriptor.RiskHigh {
		t.Errorf("risk = %s, want the conservative HIGH default", a.Risk)
	}
	if a.Decision != descriptor.DecisionRequireApproval {
		t.Errorf("decision = %s, want REQUIRE_APPROVAL", a.Decision)
	}
}

func TestAnalyzeCommandSafety_EmptyInput(t *testing.T) {
	s := newService(t)
	if _, err := s.AnalyzeCommandSafety("   ", "guardian"); !errors.Is(err, registry.ErrEmptyCommand) {
		t.Errorf("err = %v, want ErrEmptyCommand", err)
	}
}

func TestAnalyzeCommandSafety_Deterministic(t *testing.T) {
	s := newService(t)
	first, err := s.AnalyzeCommandSafety("git push --force", "architect")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := s.AnalyzeCommandSafety("git push --force", "architect")
		if err != nil {
			t.Fatal(err)
		}
		if again.Decision != first.Decision || again.Risk != first.Risk {
			t.Fatalf("run %d: decision %s/%s differs from first %s/%s",
				i, again.Decision, again.Risk, first.Decision, first.Risk)
		}
	}
}

func TestSafeAlternatives(t *testing.T) {
	s := newService(t)

	alts := s.SafeAlternatives("rm -rf /var/www")
	if len(alts) == 0 {
		t.Fatal("expected alternatives for a recursive force delete")
	}
	joined := strings.Join(alts, "\n")
	if !strings.Contains(joined, "quarantine") {
		t.Errorf("alternatives %v should include the quarantine rewrite", alts)
	}

	if alts := s.SafeAlternatives("ls -la"); len(alts) != 0 {
		t.Errorf("ls should have no alternatives, got %v", alts)
	}
}

func TestValidateDebateConclusion_DangerousConsensus(t *testing.T) {
	s := newService(t)
	text := "All three of us agree. Let's just run sudo rm -rf /var/lib/docker to reclaim space."
	a, err := s.ValidateDebateConclusion(text, []string{"operator", "pragmatist", "architect"})
	if err != nil {
		t.Fatal(err)
	}

	if a.Decision != descriptor.DecisionReject && a.Decision != descriptor.DecisionRequireApproval {
		t.Errorf("decision = %s, want REJECT or REQUIRE_APPROVAL", a.Decision)
	}
	if a.Approved {
		t.Error("a destructive conclusion must not be approved")
	}
	if len(a.BlockedReasons) == 0 {
		t.Error("expected blocked reasons for the matched rules")
	}
	if a.ConsensusWarning == "" {
		t.Error("expected a consensus warning for a severe trigger pattern")
	}
	if a.Risk < descriptor.RiskHigh {
		t.Errorf("risk = %s, want at least HIGH", a.Risk)
	}
}

func TestValidateDebateConclusion_CleanTextApproved(t *testing.T) {
	s := newService(t)
	a, err := s.ValidateDebateConclusion("The proposal needs another review cycle before we decide.", []string{"guardian"})
	if err != nil {
		t.Fatal(err)
	}
	if !a.Approved || a.Decision != descriptor.DecisionApproved {
		t.Errorf("clean text: approved=%v decision=%s", a.Approved, a.Decision)
	}
	if a.Risk != descriptor.RiskSafe {
		t.Errorf("risk = %s, want SAFE", a.Risk)
	}
	if a.ConsensusWarning != "" {
		t.Errorf("unexpected consensus warning %q", a.ConsensusWarning)
	}
}

func TestValidateDebateConclusion_HighRiskCommandEscalates(t *testing.T) {
	s := newService(t)
	a, err := s.ValidateDebateConclusion("Quick fix: run `chmod 777 /srv/app` on the host.", nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Risk != descriptor.RiskHigh {
		t.Errorf("risk = %s, want HIGH from the embedded command", a.Risk)
	}
	// Unreviewed HIGH text always goes to a human, even though the default
	// mapping for HIGH already says so.
	if a.Decision != descriptor.DecisionRequireApproval {
		t.Errorf("decision = %s, want REQUIRE_APPROVAL", a.Decision)
	}
}

func TestValidateDebateConclusion_ApprovedSafeCommand(t *testing.T) {
	s := newService(t)
	a, err := s.ValidateDebateConclusion("Consensus: run `ls /srv/releases` and report back.", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Approved {
		t.Errorf("safe embedded command should stay approved, got %s (%s)", a.Decision, a.Reasoning)
	}
}

func TestValidateDebateConclusion_HomoglyphNeedsReview(t *testing.T) {
	s := newService(t)
	// Cyrillic е in "еcho" makes the token look safe while naming a
	// different program.
	a, err := s.ValidateDebateConclusion("Finally just еcho the summary", nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Decision != descriptor.DecisionRequireApproval {
		t.Errorf("decision = %s, want REQUIRE_APPROVAL for homoglyph text", a.Decision)
	}
	if len(a.BlockedReasons) == 0 {
		t.Error("expected the homoglyph finding to be reported")
	}
}

func TestValidateDebateConclusion_InvisibleCharacterRejects(t *testing.T) {
	s := newService(t)
	a, err := s.ValidateDebateConclusion("approved​ by everyone", nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Decision != descriptor.DecisionReject {
		t.Errorf("decision = %s, want REJECT for invisible characters", a.Decision)
	}
	if a.Risk < descriptor.RiskHigh {
		t.Errorf("risk = %s, want at least HIGH", a.Risk)
	}
}

func TestValidateDebateConclusion_MonotonicEscalation(t *testing.T) {
	s := newService(t)
	// The merged decision is never less restrictive than the worst
	// embedded command analyzed on its own.
	commands := []string{"ls /tmp", "curl https://example.com", "chmod 777 /etc", "rm -rf /data"}
	for _, cmd := range commands {
		solo, err := s.AnalyzeCommandSafety(cmd, "")
		if err != nil {
			t.Fatal(err)
		}
		merged, err := s.ValidateDebateConclusion("Proposal: run `"+cmd+"` tonight.", nil)
		if err != nil {
			t.Fatal(err)
		}
		if merged.Risk < solo.Risk {
			t.Errorf("%q: merged risk %s below solo risk %s", cmd, merged.Risk, solo.Risk)
		}
		if descriptor.MostRestrictive(merged.Decision, solo.Decision) != merged.Decision {
			t.Errorf("%q: merged decision %s less restrictive than solo %s", cmd, merged.Decision, solo.Decision)
		}
	}
}

func TestFilterOutput(t *testing.T) {
	s := newService(t)

	filtered, warnings := s.FilterOutput("guardian", "echo ok\nrm -rf /tmp/build")
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one", warnings)
	}
	if !strings.Contains(filtered, "# [cmdsafe:filtered]") {
		t.Errorf("destructive line not neutralized: %q", filtered)
	}

	text, warnings := s.FilterOutput("operator", "rm -rf /tmp/build")
	if text != "rm -rf /tmp/build" || warnings != nil {
		t.Errorf("personas without a filter must pass text through, got %q %v", text, warnings)
	}
}

func TestCompressDebateKnowledge_RoundTrip(t *testing.T) {
	s := newService(t)
	critiques := map[string]string{
		"guardian":   "the rollout plan is missing a canary stage for the rollout plan",
		"architect":  "the rollout plan ignores schema drift",
		"pragmatist": "the rollout plan is good enough",
		"operator":   "the rollout plan works on staging",
		"reviewer":   "sign off once the rollout plan adds alerts",
	}

	k := s.CompressDebateKnowledge("deploy", critiques)
	if k.CompressedSize >= k.OriginalSize {
		t.Errorf("compressed %d >= original %d", k.CompressedSize, k.OriginalSize)
	}
	got := k.Decompress()
	for agent, want := range critiques {
		if got[agent] != want {
			t.Errorf("agent %s: round trip = %q, want %q", agent, got[agent], want)
		}
	}
}

func TestAnalyzeFamily(t *testing.T) {
	s := newService(t)

	enc, err := s.AnalyzeFamily("git")
	if err != nil {
		t.Fatal(err)
	}
	if enc.Ratio <= 1.0 {
		t.Errorf("ratio = %v, want > 1 for a multi-member family", enc.Ratio)
	}
	if enc.Parent.RiskFloor != descriptor.RiskSafe {
		t.Errorf("risk floor = %s, want SAFE", enc.Parent.RiskFloor)
	}

	if _, err := s.AnalyzeFamily("kubectl"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("err = %v, want ErrUnknownFamily", err)
	}
}

func TestStatistics(t *testing.T) {
	s := newService(t)
	if _, err := s.AnalyzeCommandSafety("ls", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AnalyzeFamily("git"); err != nil {
		t.Fatal(err)
	}

	stats := s.Statistics()
	if stats.CommandCount == 0 {
		t.Error("expected cached descriptors after an analysis")
	}
	if stats.Families != 1 {
		t.Errorf("families = %d, want 1", stats.Families)
	}
	if stats.CompressionRatio <= 1.0 {
		t.Errorf("compression ratio = %v, want > 1", stats.CompressionRatio)
	}
}

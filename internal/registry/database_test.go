package registry

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/riskfield/cmdsafe/internal/catalog"
	"github.com/riskfield/cmdsafe/internal/descriptor"
)

func newDB(t *testing.T) *Database {
	t.Helper()
	return New(catalog.Default())
}

func TestDescriptor_Deterministic(t *testing.T) {
	db := newDB(t)

	first, err := db.Descriptor("rm -rf /tmp/x")
	if err != nil {
		t.Fatal(err)
	}
	firstBytes := first.Encode()

	// Repeated calls, and a second database instance (simulating a process
	// restart), must produce byte-identical descriptors.
	for i := 0; i < 5; i++ {
		d, _ := db.Descriptor("rm -rf /tmp/x")
		if d.Encode() != firstBytes {
			t.Fatal("repeated derivation produced different bytes")
		}
	}
	fresh, _ := newDB(t).Descriptor("rm -rf /tmp/x")
	if fresh.Encode() != firstBytes {
		t.Fatal("fresh database produced different bytes")
	}
}

func TestDescriptor_EmptyInput(t *testing.T) {
	db := newDB(t)
	for _, cmd := range []string{"", "   ", "\t\n"} {
		if _, err := db.Descriptor(cmd); !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("command %q: expected ErrEmptyCommand, got %v", cmd, err)
		}
	}
}

func TestDescriptor_UnknownCommandConservativeDefault(t *testing.T) {
	db := newDB(t)
	d, err := db.Descriptor("frobnicate --all")
	if err != nil {
		t.Fatalf("unknown command must not error: %v", err)
	}
	if d.Flags.Risk != descriptor.RiskHigh {
		t.Errorf("unknown command risk = %s, want HIGH", d.Flags.Risk)
	}
	if d.Flags.Caps != 0 {
		t.Errorf("unknown command caps = %s, want none", d.Flags.Caps)
	}
}

func TestDescriptor_ConcurrentDerivation(t *testing.T) {
	db := newDB(t)
	var wg sync.WaitGroup
	results := make([][24]byte, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := db.Descriptor("docker run --privileged")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = d.Encode()
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent derivations disagree")
		}
	}
}

func TestMemberDescriptor_FamilyRiskOverridesBase(t *testing.T) {
	db := newDB(t)

	status, err := db.MemberDescriptor("git", "status")
	if err != nil {
		t.Fatal(err)
	}
	if status.Flags.Risk != descriptor.RiskSafe {
		t.Errorf("git status risk = %s, want SAFE", status.Flags.Risk)
	}

	reset, err := db.MemberDescriptor("git", "reset --hard")
	if err != nil {
		t.Fatal(err)
	}
	if reset.Flags.Risk != descriptor.RiskCritical {
		t.Errorf("git reset --hard risk = %s, want CRITICAL", reset.Flags.Risk)
	}

	// Capability bits come from the base program.
	if reset.Flags.Caps != status.Flags.Caps {
		t.Errorf("member caps diverge: %s vs %s", reset.Flags.Caps, status.Flags.Caps)
	}
}

func TestAnalyzeCommandSafety_Scenarios(t *testing.T) {
	db := newDB(t)

	tests := []struct {
		command      string
		wantRisk     descriptor.RiskLevel
		wantDecision descriptor.Decision
		wantAlt      bool
	}{
		{"rm -rf /", descriptor.RiskCritical, descriptor.DecisionReject, true},
		{"git status", descriptor.RiskSafe, descriptor.DecisionApproved, false},
		{"chmod 777 /etc", descriptor.RiskHigh, descriptor.DecisionRequireApproval, true},
		{"curl https://example.com", descriptor.RiskMedium, descriptor.DecisionCautionMode, true},
		{"ls -la", descriptor.RiskSafe, descriptor.DecisionApproved, false},
	}

	for _, tt := range tests {
		a, err := db.AnalyzeCommandSafety(tt.command)
		if err != nil {
			t.Errorf("command %q: %v", tt.command, err)
			continue
		}
		if a.Risk != tt.wantRisk {
			t.Errorf("command %q: risk = %s, want %s", tt.command, a.Risk, tt.wantRisk)
		}
		if a.Decision != tt.wantDecision {
			t.Errorf("command %q: decision = %s, want %s", tt.command, a.Decision, tt.wantDecision)
		}
		if (a.Alternative != "") != tt.wantAlt {
			t.Errorf("command %q: alternative = %q, want present=%v", tt.command, a.Alternative, tt.wantAlt)
		}
		if a.Reasoning == "" {
			t.Errorf("command %q: empty reasoning", tt.command)
		}
		if len(a.Flags) == 0 {
			t.Errorf("command %q: empty flags", tt.command)
		}
	}
}

func TestAnalyzeCommandSafety_QuarantineAlternativeForRmRoot(t *testing.T) {
	db := newDB(t)
	a, err := db.AnalyzeCommandSafety("rm -rf /")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(a.Alternative, "quarantine") && !strings.Contains(a.Alternative, "mv ") {
		t.Errorf("rm -rf / alternative = %q, want a quarantine/move rewrite", a.Alternative)
	}
}

func TestVerify_CorruptDescriptorRederived(t *testing.T) {
	db := newDB(t)
	want, _ := db.Descriptor("rm")
	buf := want.Encode()
	buf[7] ^= 0x01 // flip a flag bit, invalidating the checksum

	got, err := db.Verify("rm", buf[:])
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("corrupt record not re-derived: got %+v", got)
	}
}

func TestStatistics(t *testing.T) {
	db := newDB(t)
	for _, cmd := range []string{"ls", "rm -rf /", "curl https://x", "sudo reboot"} {
		if _, err := db.AnalyzeCommandSafety(cmd); err != nil {
			t.Fatal(err)
		}
	}

	stats := db.Statistics()
	if stats.CommandCount != 4 {
		t.Errorf("command count = %d, want 4", stats.CommandCount)
	}
	if stats.RiskDistribution["CRITICAL"] != 1 {
		t.Errorf("critical count = %d, want 1", stats.RiskDistribution["CRITICAL"])
	}
	if stats.RiskDistribution["SAFE"] != 1 {
		t.Errorf("safe count = %d, want 1", stats.RiskDistribution["SAFE"])
	}
	if len(stats.Capabilities) == 0 {
		t.Error("expected non-empty capability union")
	}
	if stats.CompressionRatio <= 1 {
		t.Errorf("compression ratio = %f, want > 1", stats.CompressionRatio)
	}
}

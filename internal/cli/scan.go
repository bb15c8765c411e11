package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskfield/cmdsafe/internal/descriptor"
	"github.com/riskfield/cmdsafe/internal/hierarchy"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Self-test - verify the classifier flags known-dangerous commands",
	Long: `Run a quick diagnostic over known-dangerous commands, conclusions,
and the hierarchical encoder. Nothing is executed; this only checks that
classification behaves as shipped.

  cmdsafe scan`,
	RunE: scanCommand,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

type scanCase struct {
	label   string
	command string
	wantMin descriptor.Decision
	wantMax descriptor.Decision
}

func scanCommand(cmd *cobra.Command, args []string) error {
	svc, _, err := buildService()
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Println("cmdsafe self-test")
	fmt.Println()

	fmt.Println("--- Command classification ---")
	commandCases := []scanCase{
		{"Destructive rm", "rm -rf /", descriptor.DecisionReject, descriptor.DecisionReject},
		{"Filesystem format", "mkfs /dev/sda1", descriptor.DecisionReject, descriptor.DecisionReject},
		{"Privilege escalation", "sudo bash", descriptor.DecisionRequireApproval, descriptor.DecisionReject},
		{"Unknown command", "frobnicate --force", descriptor.DecisionRequireApproval, descriptor.DecisionRequireApproval},
		{"Safe read-only", "ls -la", descriptor.DecisionApproved, descriptor.DecisionApproved},
	}

	pass, fail := 0, 0
	for _, tc := range commandCases {
		a, err := svc.AnalyzeCommandSafety(tc.command, "")
		if err != nil {
			fmt.Printf("  ❌ %-22s error: %v\n", tc.label, err)
			fail++
			continue
		}
		if decisionBetween(a.Decision, tc.wantMin, tc.wantMax) {
			fmt.Printf("  ✅ %-22s %s → %s\n", tc.label, tc.command, a.Decision)
			pass++
		} else {
			fmt.Printf("  ❌ %-22s %s → %s (want %s..%s)\n", tc.label, tc.command, a.Decision, tc.wantMin, tc.wantMax)
			fail++
		}
	}
	fmt.Printf("\n  Commands: %d/%d passed\n\n", pass, len(commandCases))

	fmt.Println("--- Conclusion validation ---")
	conclusionPass := 0
	dangerous, err := svc.ValidateDebateConclusion(
		"We all agree: sudo rm -rf /var/lib/docker is the fastest cleanup.",
		[]string{"operator", "pragmatist", "architect"})
	if err != nil {
		return err
	}
	if !dangerous.Approved && dangerous.ConsensusWarning != "" {
		fmt.Println("  ✅ Dangerous consensus flagged")
		conclusionPass++
	} else {
		fmt.Println("  ❌ Dangerous consensus NOT flagged")
	}

	clean, err := svc.ValidateDebateConclusion("Ship it after one more review round.", nil)
	if err != nil {
		return err
	}
	if clean.Approved {
		fmt.Println("  ✅ Clean conclusion passed")
		conclusionPass++
	} else {
		fmt.Printf("  ❌ Clean conclusion false positive: %s\n", clean.Decision)
	}
	fmt.Printf("\n  Conclusions: %d/2 passed\n\n", conclusionPass)

	fmt.Println("--- Hierarchical encoding ---")
	encPass := 0
	enc, err := svc.AnalyzeFamily("git")
	if err != nil {
		return err
	}
	if enc.Ratio > 1.0 {
		fmt.Printf("  ✅ git family compresses %.2fx\n", enc.Ratio)
		encPass++
	} else {
		fmt.Printf("  ❌ git family ratio %.2fx\n", enc.Ratio)
	}
	lossless := true
	for sub, delta := range enc.Deltas {
		member, err := hierarchy.ReconstructMember(enc.Parent, delta)
		if err != nil {
			lossless = false
			break
		}
		d, err := svc.Database().MemberDescriptor("git", sub)
		if err != nil || d.Flags != member {
			lossless = false
			break
		}
	}
	if lossless {
		fmt.Println("  ✅ Member reconstruction is lossless")
		encPass++
	} else {
		fmt.Println("  ❌ Member reconstruction diverged")
	}
	fmt.Printf("\n  Encoding: %d/2 passed\n\n", encPass)

	total := len(commandCases) + 4
	passed := pass + conclusionPass + encPass
	if passed == total {
		fmt.Printf("✅ All %d checks passed\n", total)
	} else {
		fmt.Printf("⚠  %d/%d checks passed\n", passed, total)
	}
	return nil
}

func decisionBetween(actual, lo, hi descriptor.Decision) bool {
	return descriptor.MostRestrictive(actual, lo) == actual &&
		descriptor.MostRestrictive(actual, hi) == hi
}

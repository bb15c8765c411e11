package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskfield/cmdsafe/internal/approval"
	"github.com/riskfield/cmdsafe/internal/audit"
	"github.com/riskfield/cmdsafe/internal/descriptor"
)

var checkPersona string

var checkCmd = &cobra.Command{
	Use:   "check [flags] -- <command> [args...]",
	Short: "Classify a command and report the safety decision",
	Long: `Classify a command against the descriptor database and print the
risk level, the decision, and any safer alternative. The command is never
executed.

Example:
  cmdsafe check -- rm -rf /tmp/build
  cmdsafe check --persona guardian -- git push --force`,
	RunE: checkCommand,
}

func init() {
	checkCmd.Flags().StringVar(&checkPersona, "persona", "", "Apply a persona safety profile (guardian, architect, pragmatist, operator)")
	rootCmd.AddCommand(checkCmd)
}

func checkCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided. Usage: cmdsafe check -- <command> [args...]")
	}

	svc, cfg, err := buildService()
	if err != nil {
		return err
	}
	defer svc.Close()

	auditLog := openAudit(cfg)
	if auditLog != nil {
		defer auditLog.Close()
	}

	command := strings.Join(args, " ")
	a, err := svc.AnalyzeCommandSafety(command, checkPersona)
	if err != nil {
		return err
	}

	fmt.Printf("Command:  %s\n", command)
	fmt.Printf("Risk:     %s\n", a.Risk)
	fmt.Printf("Decision: %s\n", a.Decision)
	fmt.Printf("Reason:   %s\n", a.Reasoning)
	if len(a.Flags) > 0 {
		fmt.Printf("Flags:    %s\n", strings.Join(a.Flags, ", "))
	}
	if a.Alternative != "" {
		fmt.Printf("Safer:    %s\n", a.Alternative)
	}

	event := audit.Event{
		Kind:          "command",
		Command:       command,
		Persona:       checkPersona,
		Risk:          a.Risk.String(),
		Decision:      string(a.Decision),
		Reasoning:     a.Reasoning,
		LatencyMicros: a.LatencyMicros,
	}

	switch a.Decision {
	case descriptor.DecisionReject:
		logEvent(auditLog, event)
		fmt.Fprintln(os.Stderr, "\n❌ REJECTED")
		os.Exit(1)

	case descriptor.DecisionRequireApproval:
		result := approval.Ask(approval.Prompt{
			Command:     command,
			Risk:        a.Risk.String(),
			Reasons:     []string{a.Reasoning},
			Alternative: a.Alternative,
		})
		event.UserAction = result.UserAction
		logEvent(auditLog, event)
		if !result.Approved {
			fmt.Fprintln(os.Stderr, "\n❌ Denied")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "\n✅ Approved by user")

	default:
		logEvent(auditLog, event)
	}
	return nil
}

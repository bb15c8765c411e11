package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskfield/cmdsafe/internal/audit"
)

var (
	validatePersonas string
	validateFilter   string
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags] [file]",
	Short: "Validate a debate conclusion for dangerous content",
	Long: `Scan free text for embedded commands, dangerous-operation patterns,
and unicode smuggling, then print the merged decision. Reads from the given
file, or stdin when no file (or -) is given.

Example:
  cmdsafe validate conclusion.txt
  echo "run rm -rf /" | cmdsafe validate --debaters operator,pragmatist,architect`,
	Args: cobra.MaximumNArgs(1),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringVar(&validatePersonas, "debaters", "", "Comma-separated persona ids that produced the conclusion")
	validateCmd.Flags().StringVar(&validateFilter, "filter", "", "Rewrite the text through this persona's output filter and print it")
	rootCmd.AddCommand(validateCmd)
}

func validateCommand(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		text = string(data)
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		text = string(data)
	}

	var debaters []string
	if validatePersonas != "" {
		for _, id := range strings.Split(validatePersonas, ",") {
			debaters = append(debaters, strings.TrimSpace(id))
		}
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

	a, err := svc.ValidateDebateConclusion(text, debaters)
	if err != nil {
		return err
	}

	fmt.Printf("Risk:     %s\n", a.Risk)
	fmt.Printf("Decision: %s\n", a.Decision)
	if a.Reasoning != "" {
		fmt.Printf("Reason:   %s\n", a.Reasoning)
	}
	for _, reason := range a.BlockedReasons {
		fmt.Printf("  blocked: %s\n", reason)
	}
	if a.ConsensusWarning != "" {
		fmt.Printf("⚠  %s\n", a.ConsensusWarning)
	}

	logEvent(auditLog, audit.Event{
		Kind:             "conclusion",
		Persona:          validatePersonas,
		Risk:             a.Risk.String(),
		Decision:         string(a.Decision),
		Reasoning:        a.Reasoning,
		BlockedReasons:   a.BlockedReasons,
		ConsensusWarning: a.ConsensusWarning,
		LatencyMicros:    a.LatencyMicros,
	})

	if validateFilter != "" {
		filtered, warnings := svc.FilterOutput(validateFilter, text)
		for _, w := range warnings {
			fmt.Printf("  filter: %s\n", w)
		}
		fmt.Println("---")
		fmt.Print(filtered)
	}

	if !a.Approved {
		os.Exit(1)
	}
	return nil
}

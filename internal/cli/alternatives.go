package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var alternativesCmd = &cobra.Command{
	Use:   "alternatives -- <command> [args...]",
	Short: "List safer rewrites for a command",
	Long: `Print every safer alternative known for the command, from the
specific rewrite tables down to the generic quarantine fallback.

Example:
  cmdsafe alternatives -- rm -rf /var/www`,
	RunE: alternativesCommand,
}

func init() {
	rootCmd.AddCommand(alternativesCmd)
}

func alternativesCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided. Usage: cmdsafe alternatives -- <command> [args...]")
	}

	svc, _, err := buildService()
	if err != nil {
		return err
	}
	defer svc.Close()

	command := strings.Join(args, " ")
	alts := svc.SafeAlternatives(command)
	if len(alts) == 0 {
		fmt.Printf("No safer alternatives recorded for: %s\n", command)
		return nil
	}

	fmt.Printf("Safer alternatives for: %s\n", command)
	for _, alt := range alts {
		fmt.Printf("  - %s\n", alt)
	}
	return nil
}

// Package approval is the interactive human gate for REQUIRE_APPROVAL
// decisions. Non-interactive invocations always deny: an unattended pipeline
// must never satisfy a human-approval requirement on its own.
package approval

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Result records the human's choice for the audit trail.
type Result struct {
	Approved   bool
	UserAction string
}

// Prompt carries everything the human needs to decide.
type Prompt struct {
	Command     string
	Risk        string
	Reasons     []string
	Alternative string
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Ask presents the prompt on stderr and reads an approve/deny choice.
func Ask(p Prompt) Result {
	if !IsInteractive() {
		return Result{Approved: false, UserAction: "auto_deny_non_interactive"}
	}

	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "=== APPROVAL REQUIRED ===")
	fmt.Fprintf(os.Stderr, "Command: %s\n", p.Command)
	if p.Risk != "" {
		fmt.Fprintf(os.Stderr, "Risk:    %s\n", p.Risk)
	}
	for _, reason := range p.Reasons {
		fmt.Fprintf(os.Stderr, "  - %s\n", reason)
	}
	if p.Alternative != "" {
		fmt.Fprintf(os.Stderr, "Safer:   %s\n", p.Alternative)
	}
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "  [a] approve once")
	fmt.Fprintln(os.Stderr, "  [d] deny")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "Choice [a/d]: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return Result{Approved: false, UserAction: "error_reading_input"}
		}
		switch strings.TrimSpace(strings.ToLower(input)) {
		case "a", "approve", "y", "yes":
			return Result{Approved: true, UserAction: "approve_once"}
		case "d", "deny", "n", "no":
			return Result{Approved: false, UserAction: "deny"}
		default:
			fmt.Fprintln(os.Stderr, "Enter 'a' to approve or 'd' to deny.")
		}
	}
}

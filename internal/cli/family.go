package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/riskfield/cmdsafe/internal/hierarchy"
)

var familyCmd = &cobra.Command{
	Use:   "family <name>",
	Short: "Show the hierarchical encoding of a command family",
	Long: `Encode a command family as one parent descriptor plus per-member
deltas and print the layout, the reconstruction table, and the achieved
compression ratio.

Example:
  cmdsafe family git`,
	Args: cobra.ExactArgs(1),
	RunE: familyCommand,
}

func init() {
	rootCmd.AddCommand(familyCmd)
}

func familyCommand(cmd *cobra.Command, args []string) error {
	svc, _, err := buildService()
	if err != nil {
		return err
	}
	defer svc.Close()

	enc, err := svc.AnalyzeFamily(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Family:      %s (%s)\n", enc.FamilyName, enc.Parent.FamilyType)
	fmt.Printf("Members:     %d\n", enc.Parent.MemberCount)
	fmt.Printf("Risk floor:  %s\n", enc.Parent.RiskFloor)
	if caps := enc.Parent.CommonCaps().Names(); len(caps) > 0 {
		fmt.Printf("Common caps: %v\n", caps)
	}
	fmt.Printf("Raw size:    %d bytes\n", enc.RawBytes)
	fmt.Printf("Encoded:     %d bytes\n", enc.Encoded)
	fmt.Printf("Ratio:       %.2fx\n", enc.Ratio)

	subs := make([]string, 0, len(enc.Deltas))
	for sub := range enc.Deltas {
		subs = append(subs, sub)
	}
	sort.Strings(subs)

	if len(subs) > 0 {
		fmt.Println("\nMember deltas:")
	}
	for _, sub := range subs {
		delta := enc.Deltas[sub]
		member, err := hierarchy.ReconstructMember(enc.Parent, delta)
		if err != nil {
			return err
		}
		fmt.Printf("  %-16s %d bytes  risk=%s caps=%v\n", sub, delta.Size(), member.Risk, member.Caps.Names())
	}
	return nil
}

package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics after warming the full catalog",
	RunE:  statsCommand,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsCommand(cmd *cobra.Command, args []string) error {
	svc, _, err := buildService()
	if err != nil {
		return err
	}
	defer svc.Close()

	// Warm every cataloged command and family so the numbers reflect the
	// whole table, not just what this process happened to touch.
	db := svc.Database()
	for _, name := range db.Catalog().CommandNames() {
		if _, err := db.Descriptor(name); err != nil {
			return err
		}
	}
	for _, name := range db.Catalog().FamilyNames() {
		if _, err := svc.AnalyzeFamily(name); err != nil {
			return err
		}
	}

	stats := svc.Statistics()
	fmt.Printf("Descriptors:       %d (24 bytes each)\n", stats.CommandCount)
	fmt.Printf("Families encoded:  %d\n", stats.Families)
	fmt.Printf("Compression ratio: %.1fx vs prose docs\n", stats.CompressionRatio)

	levels := make([]string, 0, len(stats.RiskDistribution))
	for level := range stats.RiskDistribution {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	fmt.Println("Risk distribution:")
	for _, level := range levels {
		fmt.Printf("  %-9s %d\n", level, stats.RiskDistribution[level])
	}
	if len(stats.Capabilities) > 0 {
		fmt.Printf("Capabilities seen: %s\n", strings.Join(stats.Capabilities, ", "))
	}
	return nil
}

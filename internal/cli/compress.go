package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var compressVerify bool

var compressCmd = &cobra.Command{
	Use:   "compress <topic> [file]",
	Short: "Compress a set of per-agent critiques",
	Long: `Read a YAML map of agent id to critique text, compress it with the
shared phrase dictionary, and print the achieved sizes. Reads from the given
file, or stdin when no file (or -) is given.

Example:
  cmdsafe compress deploy-debate critiques.yaml
  cmdsafe compress deploy-debate --verify < critiques.yaml`,
	Args: cobra.RangeArgs(1, 2),
	RunE: compressCommand,
}

func init() {
	compressCmd.Flags().BoolVar(&compressVerify, "verify", false, "Round-trip the compressed form and check it matches the input")
	rootCmd.AddCommand(compressCmd)
}

func compressCommand(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 2 && args[1] != "-" {
		data, err = os.ReadFile(args[1])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return err
	}

	var critiques map[string]string
	if err := yaml.Unmarshal(data, &critiques); err != nil {
		return fmt.Errorf("critiques must be a YAML map of agent to text: %w", err)
	}

	svc, _, err := buildService()
	if err != nil {
		return err
	}
	defer svc.Close()

	k := svc.CompressDebateKnowledge(args[0], critiques)

	fmt.Printf("Topic:      %s\n", k.Topic)
	fmt.Printf("Agents:     %d\n", len(k.Critiques))
	fmt.Printf("Dictionary: %d phrases\n", len(k.Dictionary))
	fmt.Printf("Original:   %d bytes\n", k.OriginalSize)
	fmt.Printf("Compressed: %d bytes\n", k.CompressedSize)
	fmt.Printf("Saved:      %d bytes (%.2fx)\n", k.BytesSaved, k.Ratio)

	if compressVerify {
		restored := k.Decompress()
		for agent, want := range critiques {
			if restored[agent] != want {
				return fmt.Errorf("round trip mismatch for agent %q", agent)
			}
		}
		fmt.Println("Round trip: ok")
	}
	return nil
}

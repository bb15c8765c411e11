package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskfield/cmdsafe/internal/audit"
	"github.com/riskfield/cmdsafe/internal/catalog"
	"github.com/riskfield/cmdsafe/internal/config"
	"github.com/riskfield/cmdsafe/internal/safety"
)

var (
	catalogPath  string
	personasPath string
	auditPath    string
)

var rootCmd = &cobra.Command{
	Use:   "cmdsafe",
	Short: "cmdsafe - compact command-safety descriptors for multi-agent systems",
	Long: `cmdsafe classifies shell commands into fixed-size binary safety
descriptors, compresses whole command families hierarchically, and applies
per-agent persona policies. Analysis is pure in-memory table work; nothing
is ever executed.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to catalog overlay YAML (default: ~/.cmdsafe/catalog.yaml)")
	rootCmd.PersistentFlags().StringVar(&personasPath, "personas", "", "Path to persona pack YAML (default: ~/.cmdsafe/personas.yaml)")
	rootCmd.PersistentFlags().StringVar(&auditPath, "audit", "", "Path to audit trail (default: ~/.cmdsafe/audit.jsonl)")
}

func Execute() error {
	return rootCmd.Execute()
}

// buildService resolves config and constructs the safety service with any
// on-disk overlays applied.
func buildService() (*safety.Service, *config.Config, error) {
	cfg, err := config.Load(catalogPath, personasPath, auditPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	personas, err := safety.LoadPersonas(cfg.PersonasPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load personas: %w", err)
	}

	svc, err := safety.New(safety.Options{Catalog: cat, Personas: personas})
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

// openAudit opens the audit trail; a nil logger with a warning is returned
// on failure so that decisions still print.
func openAudit(cfg *config.Config) *audit.Logger {
	lg, err := audit.Open(cfg.AuditPath)
	if err != nil {
		fmt.Printf("warning: audit trail unavailable: %v\n", err)
		return nil
	}
	return lg
}

func logEvent(lg *audit.Logger, event audit.Event) {
	if lg == nil {
		return
	}
	if err := lg.Log(event); err != nil {
		fmt.Printf("warning: failed to write audit trail: %v\n", err)
	}
}

// Package config resolves the on-disk layout: a per-user directory holding
// the catalog overlay, the persona pack, and the audit trail.
package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultConfigDir    = ".cmdsafe"
	DefaultCatalogFile  = "catalog.yaml"
	DefaultPersonasFile = "personas.yaml"
	DefaultAuditFile    = "audit.jsonl"
)

// Config holds the resolved paths. Overlay files are optional; missing files
// leave the built-in tables in effect.
type Config struct {
	ConfigDir    string
	CatalogPath  string
	PersonasPath string
	AuditPath    string
}

// Load resolves paths, creating the config directory if needed. Explicit
// non-empty arguments win over the defaults under the config directory.
func Load(catalogPath, personasPath, auditPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, DefaultConfigDir)
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigDir:    dir,
		CatalogPath:  catalogPath,
		PersonasPath: personasPath,
		AuditPath:    auditPath,
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = filepath.Join(dir, DefaultCatalogFile)
	}
	if cfg.PersonasPath == "" {
		cfg.PersonasPath = filepath.Join(dir, DefaultPersonasFile)
	}
	if cfg.AuditPath == "" {
		cfg.AuditPath = filepath.Join(dir, DefaultAuditFile)
	}
	return cfg, nil
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}

// Package registry is the descriptor database: it lazily derives one
// CommandDescriptor per command name, caches it for the process lifetime, and
// answers single-command safety analyses entirely from in-memory tables.
package registry

import (
	"errors"
	"strings"
	"sync"

	"github.com/riskfield/cmdsafe/internal/catalog"
	"github.com/riskfield/cmdsafe/internal/descriptor"
)

// ErrEmptyCommand is returned for null/empty input. No descriptor is derived
// for it.
var ErrEmptyCommand = errors.New("empty command")

// Database derives and caches command descriptors.
//
// Derivation is a pure function of the command name, so concurrent first-time
// derivation of the same command needs no locking discipline beyond the map
// itself: redundant computation is wasted work, not a correctness hazard, and
// last-writer-wins into the cache is fine.
type Database struct {
	catalog *catalog.Catalog
	cache   sync.Map // program name -> descriptor.CommandDescriptor
}

// New creates a database over the given catalog tables.
func New(cat *catalog.Catalog) *Database {
	return &Database{catalog: cat}
}

// Catalog returns the underlying risk tables.
func (db *Database) Catalog() *catalog.Catalog {
	return db.catalog
}

// Program extracts the leading program token from a command string.
func Program(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Descriptor returns the descriptor for the command's leading program token,
// deriving and caching it on first use. Identical command names always yield
// byte-identical descriptors.
func (db *Database) Descriptor(command string) (descriptor.CommandDescriptor, error) {
	name := Program(command)
	if name == "" {
		return descriptor.CommandDescriptor{}, ErrEmptyCommand
	}

	if cached, ok := db.cache.Load(name); ok {
		return cached.(descriptor.CommandDescriptor), nil
	}

	d := db.derive(name)
	db.cache.Store(name, d)
	return d, nil
}

// MemberDescriptor returns the descriptor for a family member (base program +
// subcommand), using the family table's per-member risk level instead of the
// base program's. Capability bits still come from the base program's category.
func (db *Database) MemberDescriptor(base, sub string) (descriptor.CommandDescriptor, error) {
	if base == "" || sub == "" {
		return descriptor.CommandDescriptor{}, ErrEmptyCommand
	}

	name := base + " " + sub
	if cached, ok := db.cache.Load(name); ok {
		return cached.(descriptor.CommandDescriptor), nil
	}

	d := db.derive(base)
	if fam, ok := db.catalog.Family(base); ok {
		if risk, ok := fam.Members[sub]; ok {
			d.Flags.Risk = risk
		}
	}
	d.NameHash = descriptor.NameHash32(name)
	d.NameLen = truncLen(name)
	db.cache.Store(name, d)
	return d, nil
}

// derive builds a descriptor from the static tables. Pure: no I/O, no clock,
// no randomness.
func (db *Database) derive(name string) descriptor.CommandDescriptor {
	rc := db.catalog.Command(name)
	perf := db.catalog.Perf(name)
	return descriptor.CommandDescriptor{
		Version:  descriptor.Version,
		NameHash: descriptor.NameHash32(name),
		Flags:    descriptor.FlagSet{Risk: rc.Risk, Caps: rc.Caps},
		ExecMs:   perf.ExecMs,
		MemoryMB: perf.MemoryMB,
		OutputKB: perf.OutputKB,
		NameLen:  truncLen(name),
	}
}

// Verify checks an externally supplied descriptor record. On checksum or
// layout failure it re-derives the descriptor locally for the given command
// instead of trusting the bytes.
func (db *Database) Verify(command string, data []byte) (descriptor.CommandDescriptor, error) {
	if d, err := descriptor.Decode(data); err == nil {
		return d, nil
	}
	return db.Descriptor(command)
}

// CachedCount returns how many descriptors have been derived so far.
func (db *Database) CachedCount() int {
	n := 0
	db.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func truncLen(name string) uint16 {
	if len(name) > 0xFFFF {
		return 0xFFFF
	}
	return uint16(len(name))
}

package catalog

import "github.com/riskfield/cmdsafe/internal/descriptor"

// Default builds the built-in catalog. The tables below are the engine's
// classification heuristic: coarse, table-driven, and deliberately
// conservative for anything it has never seen.
func Default() *Catalog {
	return &Catalog{
		risks:        defaultRisks(),
		perf:         defaultPerf(),
		families:     defaultFamilies(),
		alternatives: defaultAlternatives(),

		// Unknown commands fail closed: HIGH risk, no claimed capabilities,
		// cheapest conservative performance tier.
		unknownRisk: RiskCategory{Risk: descriptor.RiskHigh},
		unknownPerf: PerfTier{ExecMs: 1000, MemoryMB: 10, OutputKB: 10},
	}
}

func defaultRisks() map[string]RiskCategory {
	const (
		root = descriptor.CapRootRequired
		dest = descriptor.CapDestructive
		net  = descriptor.CapNetwork
		file = descriptor.CapFileMod
		sys  = descriptor.CapSystemMod
	)
	return map[string]RiskCategory{
		// Read-only / informational
		"ls":     {Risk: descriptor.RiskSafe},
		"pwd":    {Risk: descriptor.RiskSafe},
		"whoami": {Risk: descriptor.RiskSafe},
		"echo":   {Risk: descriptor.RiskSafe},
		"cat":    {Risk: descriptor.RiskSafe},
		"head":   {Risk: descriptor.RiskSafe},
		"tail":   {Risk: descriptor.RiskSafe},
		"grep":   {Risk: descriptor.RiskSafe},
		"find":   {Risk: descriptor.RiskLow},
		"which":  {Risk: descriptor.RiskSafe},
		"env":    {Risk: descriptor.RiskLow},
		"ps":     {Risk: descriptor.RiskSafe},
		"df":     {Risk: descriptor.RiskSafe},
		"du":     {Risk: descriptor.RiskSafe},
		"git":    {Risk: descriptor.RiskSafe, Caps: file},

		// File modification
		"touch": {Risk: descriptor.RiskLow, Caps: file},
		"mkdir": {Risk: descriptor.RiskLow, Caps: file},
		"cp":    {Risk: descriptor.RiskLow, Caps: file},
		"mv":    {Risk: descriptor.RiskMedium, Caps: file},
		"sed":   {Risk: descriptor.RiskMedium, Caps: file},
		"tee":   {Risk: descriptor.RiskMedium, Caps: file},
		"ln":    {Risk: descriptor.RiskMedium, Caps: file},
		"tar":   {Risk: descriptor.RiskLow, Caps: file},

		// Permissions and ownership
		"chmod": {Risk: descriptor.RiskHigh, Caps: file | sys},
		"chown": {Risk: descriptor.RiskHigh, Caps: root | file | sys},

		// Destructive
		"rm":       {Risk: descriptor.RiskCritical, Caps: dest | file},
		"rmdir":    {Risk: descriptor.RiskMedium, Caps: dest | file},
		"shred":    {Risk: descriptor.RiskCritical, Caps: dest | file},
		"dd":       {Risk: descriptor.RiskCritical, Caps: dest | file | sys},
		"mkfs":     {Risk: descriptor.RiskCritical, Caps: root | dest | sys},
		"fdisk":    {Risk: descriptor.RiskCritical, Caps: root | dest | sys},
		"truncate": {Risk: descriptor.RiskHigh, Caps: dest | file},

		// Privilege escalation
		"sudo": {Risk: descriptor.RiskHigh, Caps: root | sys},
		"su":   {Risk: descriptor.RiskHigh, Caps: root | sys},

		// Network
		"curl": {Risk: descriptor.RiskMedium, Caps: net},
		"wget": {Risk: descriptor.RiskMedium, Caps: net},
		"ssh":  {Risk: descriptor.RiskMedium, Caps: net},
		"scp":  {Risk: descriptor.RiskMedium, Caps: net | file},
		"nc":   {Risk: descriptor.RiskHigh, Caps: net},
		"ping": {Risk: descriptor.RiskSafe, Caps: net},

		// Package managers
		"npm":  {Risk: descriptor.RiskMedium, Caps: net | file},
		"pip":  {Risk: descriptor.RiskMedium, Caps: net | file},
		"brew": {Risk: descriptor.RiskMedium, Caps: net | file},
		"apt":  {Risk: descriptor.RiskHigh, Caps: root | net | sys},
		"yum":  {Risk: descriptor.RiskHigh, Caps: root | net | sys},
		"gem":  {Risk: descriptor.RiskMedium, Caps: net | file},
		"go":   {Risk: descriptor.RiskLow, Caps: net | file},

		// System management
		"systemctl": {Risk: descriptor.RiskHigh, Caps: root | sys},
		"service":   {Risk: descriptor.RiskHigh, Caps: root | sys},
		"mount":     {Risk: descriptor.RiskHigh, Caps: root | sys},
		"umount":    {Risk: descriptor.RiskHigh, Caps: root | sys},
		"kill":      {Risk: descriptor.RiskMedium, Caps: sys},
		"reboot":    {Risk: descriptor.RiskCritical, Caps: root | sys},
		"shutdown":  {Risk: descriptor.RiskCritical, Caps: root | sys},
		"crontab":   {Risk: descriptor.RiskHigh, Caps: sys},
		"iptables":  {Risk: descriptor.RiskHigh, Caps: root | net | sys},

		// Containers
		"docker":  {Risk: descriptor.RiskMedium, Caps: net | sys},
		"podman":  {Risk: descriptor.RiskMedium, Caps: net | sys},
		"kubectl": {Risk: descriptor.RiskMedium, Caps: net | sys},

		// Interpreters (indirect execution)
		"bash":   {Risk: descriptor.RiskMedium, Caps: sys},
		"sh":     {Risk: descriptor.RiskMedium, Caps: sys},
		"zsh":    {Risk: descriptor.RiskMedium, Caps: sys},
		"python": {Risk: descriptor.RiskMedium, Caps: sys},
		"perl":   {Risk: descriptor.RiskMedium, Caps: sys},
		"eval":   {Risk: descriptor.RiskHigh, Caps: sys},
	}
}

func defaultPerf() map[string]PerfTier {
	fast := PerfTier{ExecMs: 50, MemoryMB: 5, OutputKB: 10}
	medium := PerfTier{ExecMs: 500, MemoryMB: 50, OutputKB: 100}
	slow := PerfTier{ExecMs: 5000, MemoryMB: 200, OutputKB: 1000}
	heavy := PerfTier{ExecMs: 60000, MemoryMB: 1000, OutputKB: 10000}

	tiers := map[string]PerfTier{}
	assign := func(tier PerfTier, names ...string) {
		for _, n := range names {
			tiers[n] = tier
		}
	}
	assign(fast, "ls", "pwd", "whoami", "echo", "cat", "head", "tail", "which",
		"env", "ps", "df", "touch", "mkdir", "rm", "rmdir", "mv", "cp", "ln",
		"chmod", "chown", "kill", "sudo", "su", "eval")
	assign(medium, "grep", "find", "sed", "tee", "git", "du", "tar", "curl",
		"wget", "ssh", "scp", "nc", "ping", "systemctl", "service", "mount",
		"umount", "crontab", "iptables", "bash", "sh", "zsh", "truncate")
	assign(slow, "npm", "pip", "brew", "gem", "go", "apt", "yum", "python",
		"perl", "docker", "podman", "kubectl", "shred", "fdisk", "mkfs",
		"reboot", "shutdown")
	assign(heavy, "dd")
	return tiers
}

func defaultFamilies() map[string]Family {
	return map[string]Family{
		"git": {
			Base: "git",
			Type: FamilyVCS,
			Members: map[string]descriptor.RiskLevel{
				"status":        descriptor.RiskSafe,
				"log":           descriptor.RiskSafe,
				"diff":          descriptor.RiskSafe,
				"branch":        descriptor.RiskSafe,
				"add":           descriptor.RiskLow,
				"commit":        descriptor.RiskMedium,
				"checkout":      descriptor.RiskMedium,
				"merge":         descriptor.RiskMedium,
				"rebase":        descriptor.RiskHigh,
				"push --force":  descriptor.RiskHigh,
				"clean -fd":     descriptor.RiskHigh,
				"reset --hard":  descriptor.RiskCritical,
				"filter-branch": descriptor.RiskCritical,
			},
		},
		"docker": {
			Base: "docker",
			Type: FamilyContainer,
			Members: map[string]descriptor.RiskLevel{
				"ps":           descriptor.RiskSafe,
				"images":       descriptor.RiskSafe,
				"logs":         descriptor.RiskSafe,
				"build":        descriptor.RiskMedium,
				"run":          descriptor.RiskMedium,
				"exec":         descriptor.RiskMedium,
				"rm":           descriptor.RiskHigh,
				"rmi":          descriptor.RiskHigh,
				"system prune": descriptor.RiskCritical,
			},
		},
		"npm": {
			Base: "npm",
			Type: FamilyPackaging,
			Members: map[string]descriptor.RiskLevel{
				"ls":        descriptor.RiskSafe,
				"view":      descriptor.RiskSafe,
				"install":   descriptor.RiskMedium,
				"update":    descriptor.RiskMedium,
				"uninstall": descriptor.RiskMedium,
				"publish":   descriptor.RiskHigh,
				"audit fix": descriptor.RiskMedium,
			},
		},
		"systemctl": {
			Base: "systemctl",
			Type: FamilySystem,
			Members: map[string]descriptor.RiskLevel{
				"status":  descriptor.RiskSafe,
				"list":    descriptor.RiskSafe,
				"start":   descriptor.RiskHigh,
				"stop":    descriptor.RiskHigh,
				"restart": descriptor.RiskHigh,
				"enable":  descriptor.RiskHigh,
				"disable": descriptor.RiskHigh,
				"mask":    descriptor.RiskCritical,
			},
		},
	}
}

func defaultAlternatives() []Alternative {
	return []Alternative{
		{
			Pattern: "rm -rf /",
			Rewrite: "mkdir -p ~/.quarantine && mv <target> ~/.quarantine/",
			Reason:  "move to quarantine instead of irreversible deletion",
		},
		{
			Pattern: "rm -rf",
			Rewrite: "mkdir -p ~/.quarantine && mv <target> ~/.quarantine/",
			Reason:  "move to quarantine instead of recursive deletion",
		},
		{
			Pattern: "rm ",
			Rewrite: "mv <target> ~/.trash/",
			Reason:  "move to trash instead of deleting",
		},
		{
			Pattern: "dd if=",
			Rewrite: "dd if=<source> of=<file-image> (write to a file image, not a device)",
			Reason:  "target a file image rather than a raw device",
		},
		{
			Pattern: "chmod 777",
			Rewrite: "chmod 750",
			Reason:  "grant group access without world-writable permissions",
		},
		{
			Pattern: "git reset --hard",
			Rewrite: "git stash (recoverable) or git reset --soft",
			Reason:  "preserve working-tree changes",
		},
		{
			Pattern: "git push --force",
			Rewrite: "git push --force-with-lease",
			Reason:  "refuse to clobber unseen remote commits",
		},
		{
			Pattern: "curl",
			Rewrite: "curl -o /tmp/download && review before executing",
			Reason:  "download to a file for inspection instead of piping",
		},
	}
}

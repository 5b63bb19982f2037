package watcher

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultSettleDelay is used when Options.SettleDelay is zero.
const DefaultSettleDelay = 100 * time.Millisecond

// scratchSuffixes mark files that exports, browsers and SQLite write next
// to a catalog source while it is being produced.
var scratchSuffixes = []string{
	".tmp", ".partial", ".crdownload", ".swp",
	"-journal", "-wal", "-shm",
}

// Options configures which changes the watcher reports.
type Options struct {
	// SettleDelay is how long a file's size and mtime must stay unchanged
	// before a change is reported.
	SettleDelay time.Duration

	// Extensions limits the files reported from a watched directory.
	// Files watched by name are reported whatever their extension.
	// Defaults to .csv, .db and .sqlite.
	Extensions []string

	// IncludeHidden reports dotfiles found in watched directories.
	IncludeHidden bool
}

func (o *Options) setDefaults() {
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if len(o.Extensions) == 0 {
		o.Extensions = []string{".csv", ".db", ".sqlite"}
	}
}

// isScratch reports whether path is a lock, journal or partial download.
func isScratch(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return true
	}
	for _, suffix := range scratchSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// acceptsInDir reports whether a file found in a watched directory is a
// catalog source worth reporting.
func (o *Options) acceptsInDir(path string) bool {
	base := filepath.Base(path)
	if !o.IncludeHidden && strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(o.Extensions, strings.ToLower(filepath.Ext(base)))
}

package autoload

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/IvanBrykalov/autoload/fsprobe"
	"github.com/IvanBrykalov/autoload/lru"
)

// Result is the outcome of a Control.Load call.
type Result int

const (
	// NotFound — nothing was sourced this call: the search variable is
	// unset, the command has no definition, or the cached definition is
	// already current. Builtins also report NotFound because they execute
	// without entering the cache.
	NotFound Result = iota
	// Cycle — the command is already being loaded; its definition script
	// directly or indirectly tried to autoload it again.
	Cycle
	// Loaded — a definition was sourced this call, or a fresh cached entry
	// confirmed the command accessible.
	Loaded
)

func (r Result) String() string {
	switch r {
	case Cycle:
		return "cycle"
	case Loaded:
		return "loaded"
	default:
		return "not found"
	}
}

// Metrics exposes loader-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	// Probe is incremented once per filesystem check during a scan.
	Probe()
	// Exec is incremented once per directive handed to the Runner.
	Exec()
	Evict(reason lru.EvictReason)
	Size(entries int)
}

// Clock provides the current time; useful for deterministic tests.
type Clock interface{ Now() time.Time }

// Runner executes definition source text. The loader does not inspect the
// returned error beyond a debug trace; a failing definition is not a load
// failure.
type Runner interface {
	Run(ctx context.Context, source string) error
}

// Options configures the loader. Zero values are safe where noted;
// sane defaults are applied in New():
//   - Capacity == 0          => 1024
//   - StalenessInterval == 0 => 1 second
//   - nil Environ            => OSEnviron{}
//   - nil SplitPath          => filepath.SplitList
//   - nil Escape             => subshell.Quote
//   - nil Runner             => &subshell.Runner{}
//   - nil Probe              => fsprobe.Probe
//   - nil Metrics            => NoopMetrics
//   - nil Clock              => time.Now()
//   - nil Logger             => stderr logger with prefix "autoload"
//
// PathVar and Suffix have no usable default; New panics when either is
// empty.
type Options struct {
	// PathVar names the environment variable holding the search path,
	// e.g. "fish_function_path".
	PathVar string

	// Suffix is appended to the command name to form candidate filenames;
	// candidates are <dir>/<command><Suffix>, e.g. ".fish".
	Suffix string

	// Capacity is the entry count limit of the cache, placeholders
	// included. Must not be negative.
	Capacity int

	// StalenessInterval bounds how often a cached result is re-checked
	// against the filesystem. It never evicts: entries leave the cache
	// only through Unload, UnloadAll, a search-path change, or capacity
	// overflow.
	StalenessInterval time.Duration

	// Environ is the live environment consulted by Control.Load.
	// CanLoad callers supply their own snapshot instead.
	Environ Environ

	// SplitPath tokenizes the search variable's value into an ordered
	// directory list.
	SplitPath func(value string) []string

	// Escape renders a path safe for embedding in a source directive.
	Escape func(path string) string

	// Runner receives the execution directives: builtin source text, or
	// ". <escaped path>" for files.
	Runner Runner

	// Builtins supplies inline definitions that take precedence over the
	// directory scan. Must be sorted ascending by Name, no duplicates.
	Builtins []BuiltinScript

	// Probe performs the filesystem check for one candidate path.
	Probe func(path string, mode fsprobe.Mode) fsprobe.Attempt

	// OnCommandRemoved is told each time a previously loaded command
	// leaves the cache, whatever the reason. It is invoked after the
	// loader's mutex is released, so it may call back into the loader.
	// nil disables notifications.
	OnCommandRemoved func(cmd string)

	// Observability
	Metrics Metrics
	Logger  *log.Logger

	// Clock allows overriding the time source (tests). Nil => time.Now().
	// Staleness compares Clock.Now() against the Checked stamps that Probe
	// produces, so the two must share a time source: the default
	// fsprobe.Probe stamps wall-clock time, and overriding Clock without
	// overriding Probe to match breaks the comparison.
	Clock Clock
}

// Package autoload resolves command definitions on demand for an
// interactive interpreter: given a command name it finds the definition
// (an inline builtin table or a directory search path read from an
// environment variable), sources it through a runner, and caches the
// outcome so the filesystem is not re-checked more often than a
// staleness interval.
//
// Design
//
//   - Storage: one bounded lru.Cache keyed by command name holds loaded
//     entries and "not found" placeholders alike. Every lookup promotes,
//     so the capacity bound sheds the least recently referenced commands
//     first.
//
//   - Staleness: a cached result is reused for StalenessInterval before
//     the filesystem is consulted again. Staleness never evicts; it only
//     bounds re-probe frequency.
//
//   - Placeholders: a command found nowhere is cached as a placeholder,
//     so repeated lookups of a missing command cost one scan per
//     staleness interval instead of one scan per call.
//
//   - Invalidation: Load compares the search variable's current value
//     against the last one it saw; any change drops the whole cache,
//     because every cached result was resolved against the old list.
//
//   - Recursion: Load keeps an in-progress set. A definition script that
//     (transitively) autoloads the command being defined gets a warning
//     and the Cycle result instead of a deadlock.
//
//   - Ownership: New returns (*Autoload, *Control). The Control handle
//     owns Load, Unload and UnloadAll and belongs to one goroutine; the
//     Autoload side (CanLoad, Len) is safe everywhere.
//
//   - Notifications: evictions are recorded under the internal mutex and
//     delivered to OnCommandRemoved after it is released, so the
//     callback may call back into the loader without deadlocking.
//
// Basic usage
//
//	ctx := context.Background()
//	a, ctl := autoload.New(autoload.Options{
//	    PathVar: "fish_function_path",
//	    Suffix:  ".fish",
//	})
//	ctl.Load(ctx, "fish_prompt", false)      // sources fish_prompt.fish if found
//	ok := a.CanLoad(ctx, "fish_prompt", nil) // probe only, from any goroutine
//
// With a command table and removal tracking
//
//	a, ctl := autoload.New(autoload.Options{
//	    PathVar: "fish_complete_path",
//	    Suffix:  ".fish",
//	    Builtins: []autoload.BuiltinScript{
//	        {Name: "cd", Source: "complete -c cd -a '(__fish_complete_directories)'"},
//	    },
//	    OnCommandRemoved: func(cmd string) { completions.Forget(cmd) },
//	})
//	_ = a
//	_ = ctl
//
// Probing against a snapshot
//
//	snap := autoload.Capture(autoload.OSEnviron{}, "fish_function_path")
//	go func() {
//	    if a.CanLoad(ctx, "grep", snap) {
//	        // highlight the command as valid
//	    }
//	}()
//
// Thread-safety
//
// One internal mutex serializes the search-path value, the in-progress
// set and all cache access. Filesystem probes and script execution run
// outside the lock, so CanLoad callers interleave with a running Load;
// the cache state observed at probe time may be overwritten by the time
// a result is written back, and the loader accepts last-writer-wins
// there. CanLoad uses the non-evicting insert path, keeping eviction and
// its notifications on the Control owner's context.
package autoload

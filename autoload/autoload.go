package autoload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/IvanBrykalov/autoload/fsprobe"
	"github.com/IvanBrykalov/autoload/internal/singleflight"
	"github.com/IvanBrykalov/autoload/lru"
	"github.com/IvanBrykalov/autoload/subshell"
)

const (
	defaultCapacity  = 1024
	defaultStaleness = time.Second
)

// Autoload is the probe surface of the loader: the methods safe to call
// from any goroutine. The mutating surface lives on the Control handle
// returned by New.
type Autoload struct {
	opt Options

	mu         sync.Mutex
	path       string              // last-seen value of the search variable
	inProgress map[string]struct{} // commands currently being loaded
	cache      *lru.Cache[string, *entry]

	// pending accumulates removal facts recorded while mu is held. Every
	// critical section that can append here drains it before unlocking
	// and delivers the batch afterwards.
	pending []removal

	// sf coalesces concurrent CanLoad scans for the same command and
	// directory list.
	sf singleflight.Group[probeKey, bool]
}

// removal is an eviction fact copied out under the lock and handed to
// OnCommandRemoved once the lock is released.
type removal struct {
	cmd    string
	loaded bool
}

// probeKey identifies one coalescable scan: same command, same directories.
type probeKey struct {
	cmd  string
	dirs string // tokenized directories joined with NUL
}

// New constructs a loader with the provided Options and returns it
// together with its single Control handle. Defaults are documented on
// Options; New panics on an empty PathVar or Suffix, a negative
// Capacity, or an unsorted Builtins table.
func New(opt Options) (*Autoload, *Control) {
	if opt.PathVar == "" {
		panic("PathVar must be set")
	}
	if opt.Suffix == "" {
		panic("Suffix must be set")
	}
	if opt.Capacity < 0 {
		panic("Capacity must not be negative")
	}
	validateBuiltins(opt.Builtins)

	if opt.Capacity == 0 {
		opt.Capacity = defaultCapacity
	}
	if opt.StalenessInterval == 0 {
		opt.StalenessInterval = defaultStaleness
	}
	if opt.Environ == nil {
		opt.Environ = OSEnviron{}
	}
	if opt.SplitPath == nil {
		opt.SplitPath = filepath.SplitList
	}
	if opt.Escape == nil {
		opt.Escape = subshell.Quote
	}
	if opt.Runner == nil {
		opt.Runner = &subshell.Runner{}
	}
	if opt.Probe == nil {
		opt.Probe = fsprobe.Probe
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "autoload"})
	}

	a := &Autoload{
		opt:        opt,
		inProgress: make(map[string]struct{}),
	}
	a.cache = lru.New[string, *entry](opt.Capacity, a.recordEviction)
	return a, &Control{a: a}
}

// CanLoad reports whether cmd could be resolved right now: a fresh cached
// entry, a builtin, or a readable candidate file somewhere in env's
// search path. It never executes scripts, never touches the recursion
// set, and never evicts, so it is safe to call from any goroutine while
// the Control owner keeps loading. A nil env falls back to the live
// environment from Options.
//
// Concurrent callers probing the same command over the same directory
// list share a single scan.
func (a *Autoload) CanLoad(ctx context.Context, cmd string, env Environ) bool {
	if env == nil {
		env = a.opt.Environ
	}
	val, ok := env.Get(a.opt.PathVar)
	if !ok || val == "" {
		return false
	}

	// Fast path outside the flight: a fresh cached entry answers directly.
	// A miss here stays unrecorded; the scan that follows settles the
	// lookup's accounting exactly once.
	if hit, accessible := a.reuseCached(cmd, false, false); hit {
		a.opt.Metrics.Hit()
		return accessible
	}

	dirs := a.opt.SplitPath(val)
	key := probeKey{cmd: cmd, dirs: strings.Join(dirs, "\x00")}
	found, err := a.sf.Do(ctx, key, func() (bool, error) {
		return a.locate(ctx, cmd, dirs, false, false), nil
	})
	if err != nil {
		// Cancelled while waiting on another caller's scan.
		return false
	}
	return found
}

// Len reports the number of cached entries, placeholders included.
func (a *Autoload) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache.Len()
}

// ---- core search ----

// locate is the central search routine. It runs unlocked during
// filesystem work and takes the mutex for every cache access. With
// reallyLoad it sources the definition and reports whether a (re)load
// happened this call; without it, it reports whether the command exists.
// A reusable cached entry short-circuits both modes with its recorded
// accessibility.
func (a *Autoload) locate(ctx context.Context, cmd string, dirs []string, reallyLoad, reload bool) bool {
	if hit, accessible := a.reuseCached(cmd, reallyLoad, reload); hit {
		a.opt.Metrics.Hit()
		return accessible
	}
	a.opt.Metrics.Miss()

	var (
		source    string
		hasSource bool
		foundFile bool
		reloaded  bool
	)

	// Builtins win over the search path and skip the filesystem entirely.
	if b, ok := findBuiltin(a.opt.Builtins, cmd); ok {
		source = b.Source
		hasSource = true
	}

	if !hasSource {
		for _, dir := range dirs {
			if ctx.Err() != nil {
				return false
			}
			path := filepath.Join(dir, cmd+a.opt.Suffix)
			att := a.opt.Probe(path, fsprobe.ModeRead)
			a.opt.Metrics.Probe()
			if !att.Accessible {
				continue
			}

			// First accessible candidate wins; the rest are not scanned.
			foundFile = true
			if directive, load := a.writeBack(cmd, path, att, reallyLoad); load {
				source = directive
				hasSource = true
				reloaded = true
			}
			break
		}

		if !foundFile && !hasSource {
			a.refreshPlaceholder(cmd, reallyLoad)
		}
	}

	if reallyLoad && hasSource {
		a.opt.Metrics.Exec()
		if err := a.opt.Runner.Run(ctx, source); err != nil {
			a.opt.Logger.Debug("definition script failed", "cmd", cmd, "err", err)
		}
	}

	if reallyLoad {
		return reloaded
	}
	return foundFile || hasSource
}

// reuseCached consults the cache under the lock and reports whether a
// cached entry satisfies the request without touching the filesystem,
// and if so whether the command is accessible. The lookup promotes.
// Hit/miss accounting is left to the callers: a cold CanLoad runs this
// twice, once before joining a shared scan and again inside it, and
// must count the lookup once.
func (a *Autoload) reuseCached(cmd string, reallyLoad, reload bool) (hit, accessible bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.cache.Get(cmd)
	switch {
	case !ok:
		// Nothing cached.
	case reload:
		// An explicit reload always goes back to the filesystem.
	case a.now().Sub(e.access.Checked) > a.opt.StalenessInterval:
		// Too old to trust.
	case reallyLoad && !e.loaded && !e.placeholder:
		// Loading needs a loaded definition or a fresh "not found" marker.
	default:
		return true, e.access.Accessible
	}
	return false, false
}

// writeBack records a successful probe in the cache and decides whether
// the definition must be (re)sourced: no entry yet, never loaded, or the
// file's modification time changed since it was. When it must, the
// returned directive sources the file and the old definition's removal is
// queued for notification.
func (a *Autoload) writeBack(cmd, path string, att fsprobe.Attempt, reallyLoad bool) (directive string, load bool) {
	a.mu.Lock()

	e, _ := a.cache.Peek(cmd)
	load = reallyLoad && (e == nil || !e.loaded || !e.access.ModTime.Equal(att.ModTime))
	if load {
		directive = ". " + a.opt.Escape(path)
		if e != nil && e.loaded {
			a.pending = append(a.pending, removal{cmd: cmd, loaded: true})
			e.placeholder = false
		}
	}
	if e == nil {
		e = &entry{}
		// Probe-only callers must not trigger eviction from their context.
		if reallyLoad {
			a.cache.Add(cmd, e)
		} else {
			a.cache.AddWithoutEviction(cmd, e)
		}
		a.opt.Metrics.Size(a.cache.Len())
	}
	if load {
		// Sourcing happens right after we return; call it loaded already.
		e.loaded = true
	}
	e.access = att

	batch := a.drain()
	a.mu.Unlock()
	a.flush(batch)
	return directive, load
}

// refreshPlaceholder installs or refreshes the "not found" marker for
// cmd. The stamped check time is what keeps missing commands from being
// searched over and over again.
func (a *Autoload) refreshPlaceholder(cmd string, reallyLoad bool) {
	a.mu.Lock()

	e, ok := a.cache.Get(cmd)
	if !ok {
		e = &entry{placeholder: true}
		if reallyLoad {
			a.cache.Add(cmd, e)
		} else {
			a.cache.AddWithoutEviction(cmd, e)
		}
		a.opt.Metrics.Size(a.cache.Len())
	}
	e.access.Checked = a.now()

	batch := a.drain()
	a.mu.Unlock()
	a.flush(batch)
}

// ---- eviction notifications ----

// recordEviction is the cache's eviction callback. It runs with mu held,
// so it only copies the fact out; delivery happens after the mutating
// call releases the lock.
func (a *Autoload) recordEviction(cmd string, e *entry, reason lru.EvictReason) {
	a.opt.Metrics.Evict(reason)
	a.pending = append(a.pending, removal{cmd: cmd, loaded: e.loaded})
}

// drain empties the pending list. Call while holding mu; hand the batch
// to flush after unlocking.
func (a *Autoload) drain() []removal {
	batch := a.pending
	a.pending = nil
	return batch
}

// flush delivers removal notifications for previously loaded commands.
// Placeholders and never-loaded entries generate none. Call without mu.
func (a *Autoload) flush(batch []removal) {
	if a.opt.OnCommandRemoved == nil {
		return
	}
	for _, r := range batch {
		if r.loaded {
			a.opt.OnCommandRemoved(r.cmd)
		}
	}
}

// now returns the configured clock's time (tests) or the wall clock.
func (a *Autoload) now() time.Time {
	if a.opt.Clock != nil {
		return a.opt.Clock.Now()
	}
	return time.Now()
}

package autoload

import "context"

// Control is the single-owner mutating surface of the loader. New returns
// exactly one Control; confine it to one goroutine or otherwise serialize
// its use. Control methods must not run concurrently with each other,
// while the Autoload methods stay safe from any goroutine.
type Control struct {
	a *Autoload
}

// Load resolves cmd and, when its definition is missing or out of date,
// sources it through the configured Runner. With reload the cached result
// is bypassed and the filesystem consulted again.
//
// The result is Loaded when this call sourced a definition file or a
// fresh cache entry confirmed the command accessible, Cycle when cmd is
// already being loaded (a circular autoload), and NotFound otherwise.
// Builtins execute without entering the cache and report NotFound.
func (c *Control) Load(ctx context.Context, cmd string, reload bool) Result {
	a := c.a

	a.mu.Lock()
	val, ok := a.opt.Environ.Get(a.opt.PathVar)
	if !ok || val == "" {
		// Nowhere to look.
		a.mu.Unlock()
		return NotFound
	}

	// A changed search path invalidates every cached result; the entries
	// were resolved against the old directory list.
	if val != a.path {
		a.path = val
		a.cache.RemoveAll()
		a.opt.Metrics.Size(0)
	}

	if _, busy := a.inProgress[cmd]; busy {
		batch := a.drain()
		a.mu.Unlock()
		a.flush(batch)
		a.opt.Logger.Warn(
			"could not autoload command: it is already being autoloaded, which means its definition scripts form a circular dependency",
			"cmd", cmd)
		return Cycle
	}
	a.inProgress[cmd] = struct{}{}

	// Keep the recursion set consistent on every exit path, including a
	// removal callback below panicking out of the flush.
	defer func() {
		a.mu.Lock()
		delete(a.inProgress, cmd)
		a.mu.Unlock()
	}()

	batch := a.drain()
	a.mu.Unlock()
	a.flush(batch)

	if a.locate(ctx, cmd, a.opt.SplitPath(val), true, reload) {
		return Loaded
	}
	return NotFound
}

// Unload evicts cmd's cache entry and reports whether one was resident.
// A previously loaded command triggers the removal notification.
func (c *Control) Unload(cmd string) bool {
	a := c.a

	a.mu.Lock()
	removed := a.cache.Remove(cmd)
	if removed {
		a.opt.Metrics.Size(a.cache.Len())
	}
	batch := a.drain()
	a.mu.Unlock()
	a.flush(batch)
	return removed
}

// UnloadAll evicts every cache entry, notifying for each previously
// loaded command.
func (c *Control) UnloadAll() {
	a := c.a

	a.mu.Lock()
	a.cache.RemoveAll()
	a.opt.Metrics.Size(0)
	batch := a.drain()
	a.mu.Unlock()
	a.flush(batch)
}

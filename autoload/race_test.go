package autoload

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// One goroutine owns the Control handle and loads, unloads and
// invalidates; many others probe with CanLoad and read Len. Should pass
// under `-race` without detector reports.
func TestRace_ProbesDuringLoads(t *testing.T) {
	disk := &fakeFS{files: map[string]time.Time{
		"/funcs/alpha.fish": time.Unix(100, 0),
		"/funcs/beta.fish":  time.Unix(100, 0),
		"/funcs/gamma.fish": time.Unix(100, 0),
		"/funcs/delta.fish": time.Unix(100, 0),
	}}
	var evictions atomic.Int64
	a, ctl := New(Options{
		PathVar:          "test_function_path",
		Suffix:           ".fish",
		Capacity:         3, // small, so loads keep evicting
		Environ:          Snapshot{"test_function_path": "/funcs"},
		Probe:            disk.probe,
		Runner:           &fakeRunner{},
		Logger:           quietLogger(),
		OnCommandRemoved: func(string) { evictions.Add(1) },
	})
	ctx := context.Background()
	snap := Snapshot{"test_function_path": "/funcs"}
	cmds := []string{"alpha", "beta", "gamma", "delta", "missing"}

	deadline := time.Now().Add(1 * time.Second)
	var wg sync.WaitGroup

	// The single Control owner.
	wg.Add(1)
	go func() {
		defer wg.Done()
		r := rand.New(rand.NewSource(1))
		for time.Now().Before(deadline) {
			cmd := cmds[r.Intn(len(cmds))]
			switch r.Intn(20) {
			case 0:
				ctl.Unload(cmd)
			case 1:
				ctl.UnloadAll()
			default:
				ctl.Load(ctx, cmd, r.Intn(4) == 0)
			}
		}
	}()

	// Probe-only readers.
	readers := 2 * runtime.GOMAXPROCS(0)
	wg.Add(readers)
	for w := 0; w < readers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(id) * 7919))
			for time.Now().Before(deadline) {
				cmd := cmds[r.Intn(len(cmds))]
				a.CanLoad(ctx, cmd, snap)
				a.Len()
			}
		}(w)
	}

	wg.Wait()
}

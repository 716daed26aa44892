package autoload

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// benchLoader builds a loader over an in-memory filesystem with n
// resolvable commands, staleness effectively disabled so the cached fast
// path stays hot for the whole run.
func benchLoader(b *testing.B, n int) (*Autoload, *Control, []string) {
	files := make(map[string]time.Time, n)
	cmds := make([]string, n)
	for i := 0; i < n; i++ {
		cmds[i] = "cmd" + strconv.Itoa(i)
		files["/funcs/"+cmds[i]+".fish"] = time.Unix(100, 0)
	}
	disk := &fakeFS{files: files}
	a, ctl := New(Options{
		PathVar:           "test_function_path",
		Suffix:            ".fish",
		Capacity:          2 * n,
		StalenessInterval: time.Hour,
		Environ:           Snapshot{"test_function_path": "/funcs"},
		Probe:             disk.probe,
		Runner:            &fakeRunner{},
		Logger:            quietLogger(),
	})
	b.Cleanup(ctl.UnloadAll)
	return a, ctl, cmds
}

// Cached probes from many goroutines: one map lookup, one promotion and
// a staleness comparison under the shared mutex.
func BenchmarkCanLoad_Hit(b *testing.B) {
	a, ctl, cmds := benchLoader(b, 1024)
	ctx := context.Background()
	snap := Snapshot{"test_function_path": "/funcs"}
	for _, cmd := range cmds {
		ctl.Load(ctx, cmd, false) // warm the cache
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64
	b.RunParallel(func(pb *testing.PB) {
		// Independent starting offset for each worker.
		i := int(atomic.AddInt64(&seed, 31))
		for pb.Next() {
			a.CanLoad(ctx, cmds[i%len(cmds)], snap)
			i++
		}
	})
}

// Cached loads on the single Control owner.
func BenchmarkLoad_Hit(b *testing.B) {
	_, ctl, cmds := benchLoader(b, 1024)
	ctx := context.Background()
	for _, cmd := range cmds {
		ctl.Load(ctx, cmd, false)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ctl.Load(ctx, cmds[i%len(cmds)], false)
	}
}

// Placeholder hits: repeated lookups of commands that exist nowhere.
func BenchmarkLoad_PlaceholderHit(b *testing.B) {
	_, ctl, _ := benchLoader(b, 16)
	ctx := context.Background()
	missing := make([]string, 64)
	for i := range missing {
		missing[i] = "missing" + strconv.Itoa(i)
		ctl.Load(ctx, missing[i], false) // install the placeholder
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ctl.Load(ctx, missing[i%len(missing)], false)
	}
}

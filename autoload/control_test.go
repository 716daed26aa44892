package autoload

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// Unloading a loaded command notifies exactly once; unloading it again
// reports nothing resident.
func TestUnload_NotifiesLoadedExactlyOnce(t *testing.T) {
	t.Parallel()

	disk := &fakeFS{files: map[string]time.Time{"/funcs/greet.fish": time.Unix(100, 0)}}
	var removed []string
	_, ctl := New(Options{
		PathVar:          "test_function_path",
		Suffix:           ".fish",
		Environ:          Snapshot{"test_function_path": "/funcs"},
		Probe:            disk.probe,
		Runner:           &fakeRunner{},
		Logger:           quietLogger(),
		OnCommandRemoved: func(cmd string) { removed = append(removed, cmd) },
	})
	ctx := context.Background()

	ctl.Load(ctx, "greet", false)
	if !ctl.Unload("greet") {
		t.Fatal("Unload of a resident command must report true")
	}
	if ctl.Unload("greet") {
		t.Fatal("second Unload must report false")
	}
	if diff := cmp.Diff([]string{"greet"}, removed); diff != "" {
		t.Fatalf("removal notifications (-want +got):\n%s", diff)
	}
}

// Placeholders leave the cache silently.
func TestUnload_PlaceholderSilent(t *testing.T) {
	t.Parallel()

	disk := &fakeFS{files: map[string]time.Time{}}
	var removed []string
	_, ctl := New(Options{
		PathVar:          "test_function_path",
		Suffix:           ".fish",
		Environ:          Snapshot{"test_function_path": "/funcs"},
		Probe:            disk.probe,
		Runner:           &fakeRunner{},
		Logger:           quietLogger(),
		OnCommandRemoved: func(cmd string) { removed = append(removed, cmd) },
	})
	ctx := context.Background()

	ctl.Load(ctx, "nope", false) // cached as a placeholder
	if !ctl.Unload("nope") {
		t.Fatal("Unload of a placeholder must report true")
	}
	if len(removed) != 0 {
		t.Fatalf("placeholder eviction notified: %v", removed)
	}
}

// UnloadAll notifies for every loaded command in eviction order, least
// recently used first.
func TestUnloadAll_NotifiesInEvictionOrder(t *testing.T) {
	t.Parallel()

	disk := &fakeFS{files: map[string]time.Time{
		"/funcs/alpha.fish": time.Unix(100, 0),
		"/funcs/beta.fish":  time.Unix(100, 0),
		"/funcs/gamma.fish": time.Unix(100, 0),
	}}
	var removed []string
	a, ctl := New(Options{
		PathVar:          "test_function_path",
		Suffix:           ".fish",
		Environ:          Snapshot{"test_function_path": "/funcs"},
		Probe:            disk.probe,
		Runner:           &fakeRunner{},
		Logger:           quietLogger(),
		OnCommandRemoved: func(cmd string) { removed = append(removed, cmd) },
	})
	ctx := context.Background()

	ctl.Load(ctx, "alpha", false)
	ctl.Load(ctx, "beta", false)
	ctl.Load(ctx, "gamma", false)

	ctl.UnloadAll()
	if got := a.Len(); got != 0 {
		t.Fatalf("Len after UnloadAll = %d, want 0", got)
	}
	if diff := cmp.Diff([]string{"alpha", "beta", "gamma"}, removed); diff != "" {
		t.Fatalf("removal order (-want +got):\n%s", diff)
	}
}

// Removal notifications are delivered after the loader's mutex is
// released: the callback may inspect the loader without deadlocking.
func TestEviction_NotificationAfterUnlock(t *testing.T) {
	t.Parallel()

	disk := &fakeFS{files: map[string]time.Time{
		"/funcs/one.fish":   time.Unix(100, 0),
		"/funcs/two.fish":   time.Unix(100, 0),
		"/funcs/three.fish": time.Unix(100, 0),
	}}
	var a *Autoload
	var ctl *Control
	var removed []string
	var lenAt []int
	a, ctl = New(Options{
		PathVar:  "test_function_path",
		Suffix:   ".fish",
		Capacity: 2,
		Environ:  Snapshot{"test_function_path": "/funcs"},
		Probe:    disk.probe,
		Runner:   &fakeRunner{},
		Logger:   quietLogger(),
		OnCommandRemoved: func(cmd string) {
			removed = append(removed, cmd)
			lenAt = append(lenAt, a.Len()) // would deadlock if delivered under the lock
		},
	})
	ctx := context.Background()

	ctl.Load(ctx, "one", false)
	ctl.Load(ctx, "two", false)
	ctl.Load(ctx, "three", false) // overflows, evicting "one"

	if diff := cmp.Diff([]string{"one"}, removed); diff != "" {
		t.Fatalf("removal notifications (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, lenAt); diff != "" {
		t.Fatalf("Len observed inside the callback (-want +got):\n%s", diff)
	}
}

// The callback may even call back into the Control handle.
func TestEviction_ReentrantCallback(t *testing.T) {
	t.Parallel()

	disk := &fakeFS{files: map[string]time.Time{
		"/funcs/one.fish": time.Unix(100, 0),
		"/funcs/two.fish": time.Unix(100, 0),
	}}
	var ctl *Control
	var removed []string
	_, ctl = New(Options{
		PathVar: "test_function_path",
		Suffix:  ".fish",
		Environ: Snapshot{"test_function_path": "/funcs"},
		Probe:   disk.probe,
		Runner:  &fakeRunner{},
		Logger:  quietLogger(),
		OnCommandRemoved: func(cmd string) {
			removed = append(removed, cmd)
			if cmd == "one" {
				ctl.Unload("two")
			}
		},
	})
	ctx := context.Background()

	ctl.Load(ctx, "one", false)
	ctl.Load(ctx, "two", false)

	ctl.Unload("one")
	if diff := cmp.Diff([]string{"one", "two"}, removed); diff != "" {
		t.Fatalf("chained removals (-want +got):\n%s", diff)
	}
}

// A callback that panics mid-Load must not leave the command marked as
// in progress, or every later load of it would report a cycle.
func TestLoad_PanickingCallbackKeepsRecursionSetClean(t *testing.T) {
	t.Parallel()

	disk := &fakeFS{files: map[string]time.Time{
		"/old/greet.fish": time.Unix(100, 0),
		"/new/greet.fish": time.Unix(100, 0),
	}}
	env := Snapshot{"test_function_path": "/old"}
	panicking := false
	_, ctl := New(Options{
		PathVar: "test_function_path",
		Suffix:  ".fish",
		Environ: env,
		Probe:   disk.probe,
		Runner:  &fakeRunner{},
		Logger:  quietLogger(),
		OnCommandRemoved: func(string) {
			if panicking {
				panic("notifier blew up")
			}
		},
	})
	ctx := context.Background()

	ctl.Load(ctx, "greet", false)

	// The next Load invalidates on the path change and delivers the
	// removal mid-call; the callback panic unwinds out of Load.
	env["test_function_path"] = "/new"
	panicking = true
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("the callback panic must propagate out of Load")
			}
		}()
		ctl.Load(ctx, "greet", false)
	}()

	panicking = false
	if got := ctl.Load(ctx, "greet", false); got != Loaded {
		t.Fatalf("Load after the panic = %v, want %v", got, Loaded)
	}
}

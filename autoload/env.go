package autoload

import "os"

// Environ resolves environment variables. Implementations shared across
// goroutines must be safe for concurrent use.
type Environ interface {
	// Get returns the variable's value and whether it is set.
	Get(name string) (string, bool)
}

// OSEnviron reads from the process environment.
type OSEnviron struct{}

func (OSEnviron) Get(name string) (string, bool) { return os.LookupEnv(name) }

// Snapshot is a point-in-time capture of selected variables. Being a
// plain map value it is trivially safe to hand to CanLoad from any
// goroutine, regardless of what the live environment does meanwhile.
type Snapshot map[string]string

func (s Snapshot) Get(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// Capture snapshots the named variables from env. Variables that are not
// set are simply absent from the result.
func Capture(env Environ, names ...string) Snapshot {
	s := make(Snapshot, len(names))
	for _, name := range names {
		if v, ok := env.Get(name); ok {
			s[name] = v
		}
	}
	return s
}

// Ensure both implementations satisfy Environ at compile time.
var (
	_ Environ = OSEnviron{}
	_ Environ = Snapshot(nil)
)

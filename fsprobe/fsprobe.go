// Package fsprobe answers "can this path be used right now?" with a single
// stat-plus-access-check probe, packaged as a value the caller can cache.
//
// Absence and inaccessibility are normal outcomes here, not failures: the
// platform error is captured on the Attempt instead of being returned, so
// callers branch on Accessible and only consult Err for diagnostics.
package fsprobe

import (
	"os"
	"time"
)

// Mode selects which access right the probe verifies, mirroring the
// access(2) mask values.
type Mode uint32

const (
	// ModeExists checks bare existence (F_OK).
	ModeExists Mode = 0
	// ModeExec checks execute/search permission (X_OK).
	ModeExec Mode = 1
	// ModeWrite checks write permission (W_OK).
	ModeWrite Mode = 2
	// ModeRead checks read permission (R_OK).
	ModeRead Mode = 4
)

// Attempt records the outcome of one probe.
type Attempt struct {
	// Accessible reports whether the path exists and satisfies the
	// requested access mode.
	Accessible bool

	// Err holds the platform error behind a failed probe. Meaningful only
	// when Accessible is false.
	Err error

	// ModTime is the file's modification time. Meaningful only when
	// Accessible is true.
	ModTime time.Time

	// Checked is when this probe completed. It is stamped strictly after
	// the filesystem calls return: on a slow filesystem the latency sits
	// in the calls themselves and must count against this check, not
	// against the staleness of the result.
	Checked time.Time

	// Stale is recorded for cache bookkeeping but is not consulted by any
	// current code path.
	Stale bool
}

// Probe stats path and verifies the requested access mode.
func Probe(path string, mode Mode) Attempt {
	var a Attempt
	st, err := os.Stat(path)
	if err != nil {
		a.Err = err
	} else {
		a.ModTime = st.ModTime()
		if err := checkAccess(path, mode); err != nil {
			a.Err = err
		} else {
			a.Accessible = true
		}
	}
	a.Checked = time.Now()
	return a
}

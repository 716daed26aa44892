//go:build unix

package fsprobe

import "golang.org/x/sys/unix"

// checkAccess verifies the requested mode with access(2), which honors
// the real uid/gid the way a shell user expects.
func checkAccess(path string, mode Mode) error {
	return unix.Access(path, uint32(mode))
}

//go:build !unix

package fsprobe

import "os"

// checkAccess approximates access(2) on platforms without it by opening
// the file with the matching flag. Execute permission has no portable
// equivalent here; existence was already established by the stat.
func checkAccess(path string, mode Mode) error {
	flag := -1
	switch {
	case mode&ModeRead != 0:
		flag = os.O_RDONLY
	case mode&ModeWrite != 0:
		flag = os.O_WRONLY
	}
	if flag < 0 {
		return nil
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return err
	}
	return f.Close()
}

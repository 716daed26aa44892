package autoload

import "github.com/IvanBrykalov/autoload/fsprobe"

// entry is the per-command cache value. Its fields are guarded by the
// owning Autoload's mutex; the pointer never escapes the package.
type entry struct {
	// loaded records whether an execution directive for the command has
	// been handed to the Runner. It is set just before the script actually
	// runs.
	loaded bool

	// placeholder marks a confirmed "not found" result, cached to bound
	// the re-scan rate for commands that do not exist.
	placeholder bool

	// access is the latest probe outcome for the command's candidate file.
	// access.Checked drives the staleness fast path.
	access fsprobe.Attempt
}

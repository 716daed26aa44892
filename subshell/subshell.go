// Package subshell executes shell source text in-process with mvdan.cc/sh,
// and provides the quoting needed to splice file paths into that source.
//
// It is the stock script executor for the autoload package: the loader
// hands it either an inline builtin definition or a ". <path>" directive
// and does not look at the outcome. Embedders that keep interpreter state
// across loads (a real shell, for instance) supply their own executor and
// ignore this package.
package subshell

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes POSIX shell source. The zero value runs in the current
// directory with the process environment and discards all output.
//
// Each Run call uses a fresh interpreter, so definitions do not persist
// between calls. Safe for concurrent use by multiple goroutines.
type Runner struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env overrides the environment when non-nil. Nil inherits the
	// process environment.
	Env map[string]string

	// Stdin, Stdout, Stderr wire the script's standard streams. Nil
	// output writers discard.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run parses and executes source. A non-zero script exit carries an
// interp.ExitStatus in the returned error; callers that only care about
// side effects (the autoloader) are free to ignore it.
func (r *Runner) Run(ctx context.Context, source string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(source), "autoload")
	if err != nil {
		return fmt.Errorf("subshell: parse: %w", err)
	}

	opts := []interp.RunnerOption{
		interp.Dir(r.Dir),
		interp.StdIO(r.Stdin, r.Stdout, r.Stderr),
	}
	if r.Env != nil {
		opts = append(opts, interp.Env(expand.ListEnviron(envSlice(r.Env)...)))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("subshell: interpreter: %w", err)
	}
	return runner.Run(ctx, prog)
}

// Quote escapes path for literal use inside shell source, e.g. a
// ". <path>" directive. Input that cannot be represented at all (an
// embedded NUL) is returned unchanged; the execution it feeds is
// fire-and-forget and will fail on its own terms.
func Quote(path string) string {
	quoted, err := syntax.Quote(path, syntax.LangPOSIX)
	if err != nil {
		return path
	}
	return quoted
}

func envSlice(env map[string]string) []string {
	pairs := make([]string, 0, len(env))
	for k, v := range env {
		pairs = append(pairs, k+"="+v)
	}
	return pairs
}

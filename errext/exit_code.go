// Package errext lets errors carry a process exit code as they bubble up to
// main. Values should be between 0 and 125.
package errext

import "errors"

// ExitCode is a process exit code.
type ExitCode uint8

// Exit codes the CLI can terminate with.
const (
	GenericError      ExitCode = 1
	InvalidConfig     ExitCode = 2
	DiscoveryFailed   ExitCode = 3
	SweepFailed       ExitCode = 4
	PersistenceFailed ExitCode = 5
)

// HasExitCode is a wrapper around an error with an attached exit code.
type HasExitCode interface {
	error
	ExitCode() ExitCode
}

// WithExitCodeIfNone attaches an exit code to the given error unless it (or
// anything it wraps) already carries one. A nil error stays nil.
func WithExitCodeIfNone(err error, exitCode ExitCode) error {
	if err == nil {
		return nil
	}
	var ecerr HasExitCode
	if errors.As(err, &ecerr) {
		return err
	}
	return withExitCode{err, exitCode}
}

type withExitCode struct {
	error
	exitCode ExitCode
}

func (wh withExitCode) Unwrap() error {
	return wh.error
}

func (wh withExitCode) ExitCode() ExitCode {
	return wh.exitCode
}

var _ HasExitCode = withExitCode{}

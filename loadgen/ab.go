// Package loadgen wraps the external ApacheBench binary: it builds the
// invocation for one (target, concurrency) pair, runs it with a bounded
// timeout, captures the combined output to a log file and parses the
// human-readable report into structured metrics.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Fixed request headers sent on every test.
const (
	UserAgent    = "GSH-Benchmarker/1.0"
	AcceptHeader = "image/png,*/*"
)

// DefaultTimeout bounds a single ab invocation.
const DefaultTimeout = 300 * time.Second

const defaultBinary = "ab"

// Params describes one load-test invocation.
type Params struct {
	URL           string
	TotalRequests int
	Concurrency   int
	// OutputPrefix is the path prefix for the per-run artifacts: the
	// machine-readable per-request data goes to OutputPrefix+".csv", the
	// captured tool output to OutputPrefix+".log".
	OutputPrefix string
	// Headers are added after the fixed User-Agent/Accept pair.
	Headers map[string]string
}

// Runner runs one load test and parses its report.
type Runner interface {
	Run(ctx context.Context, params Params) (Report, error)
}

// ABRunner is the ApacheBench-backed Runner.
type ABRunner struct {
	fs      afero.Fs
	logger  logrus.FieldLogger
	timeout time.Duration
	binary  string
}

// NewABRunner returns a Runner invoking the ab binary from PATH with the
// default timeout.
func NewABRunner(fs afero.Fs, logger logrus.FieldLogger) *ABRunner {
	return &ABRunner{
		fs:      fs,
		logger:  logger.WithField("component", "loadgen"),
		timeout: DefaultTimeout,
		binary:  defaultBinary,
	}
}

// SetTimeout overrides the per-invocation timeout.
func (r *ABRunner) SetTimeout(d time.Duration) { r.timeout = d }

// Run executes ab for the given parameters. The combined stdout/stderr is
// written to the .log file regardless of outcome, so a failed run still
// leaves its output behind for inspection.
func (r *ABRunner) Run(ctx context.Context, params Params) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := buildArgs(params)
	r.logger.WithFields(logrus.Fields{
		"url":         params.URL,
		"requests":    params.TotalRequests,
		"concurrency": params.Concurrency,
	}).Debug("Invoking ApacheBench")

	cmd := exec.CommandContext(ctx, r.binary, args...)
	out, runErr := cmd.CombinedOutput()

	logPath := params.OutputPrefix + ".log"
	if err := afero.WriteFile(r.fs, logPath, out, 0o644); err != nil {
		r.logger.WithError(err).WithField("path", logPath).Warn("Could not save tool log")
	}

	if ctx.Err() == context.DeadlineExceeded {
		return Report{}, &ToolError{Kind: ErrTimeout, Err: fmt.Errorf("ab timed out after %s", r.timeout)}
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return Report{}, &ToolError{
				Kind: ErrNonZeroExit,
				Err:  fmt.Errorf("ab exited with code %d (log preserved at %s)", exitErr.ExitCode(), logPath),
			}
		}
		return Report{}, &ToolError{Kind: ErrIO, Err: runErr}
	}

	return ParseReport(string(out)), nil
}

// buildArgs assembles the ab command line: request count, concurrency, the
// per-request gnuplot file, headers and finally the target URL. Caller
// headers are sorted so the invocation is deterministic.
func buildArgs(params Params) []string {
	args := []string{
		"-n", fmt.Sprint(params.TotalRequests),
		"-c", fmt.Sprint(params.Concurrency),
		"-g", params.OutputPrefix + ".csv",
		"-H", "User-Agent: " + UserAgent,
		"-H", "Accept: " + AcceptHeader,
	}

	keys := make([]string, 0, len(params.Headers))
	for k := range params.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-H", k+": "+params.Headers[k])
	}

	return append(args, params.URL)
}

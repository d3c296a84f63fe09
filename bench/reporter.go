package bench

import "github.com/kartoza/gsh-benchmarker/lib"

// Reporter receives progress events from a sweep. It exists so orchestration
// has no hidden dependency on any particular console; tests inject their own
// and the CLI wires up the colorized one from the ui package.
type Reporter interface {
	// OnLayerSkipped fires when a target's accessibility probe failed and
	// all of its concurrency levels are being skipped.
	OnLayerSkipped(target string, statusCode int)
	// OnTestCompleted fires after each successfully completed test.
	OnTestCompleted(result lib.BenchmarkResult)
	// OnTestFailed fires when a single test failed; the sweep continues.
	OnTestFailed(target string, concurrency int, err error)
}

// NopReporter discards all events.
type NopReporter struct{}

// OnLayerSkipped implements Reporter.
func (NopReporter) OnLayerSkipped(string, int) {}

// OnTestCompleted implements Reporter.
func (NopReporter) OnTestCompleted(lib.BenchmarkResult) {}

// OnTestFailed implements Reporter.
func (NopReporter) OnTestFailed(string, int, error) {}

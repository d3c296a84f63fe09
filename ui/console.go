// Package ui renders sweep progress and result tables on a terminal.
package ui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kartoza/gsh-benchmarker/bench"
	"github.com/kartoza/gsh-benchmarker/lib"
	"github.com/kartoza/gsh-benchmarker/store"
)

const (
	succMark = "✓"
	failMark = "✗"
)

//nolint:gochecknoglobals
var (
	stdColor   = color.New()
	succColor  = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed)
	grayColor  = color.New(color.Faint)
	valueColor = color.New(color.FgCyan)
)

// ConsoleReporter prints one line per sweep event. It implements
// bench.Reporter.
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter returns a reporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

// OnLayerSkipped implements bench.Reporter.
func (r *ConsoleReporter) OnLayerSkipped(target string, statusCode int) {
	_, _ = failColor.Fprintf(r.w, "%s %s skipped (HTTP %d), all concurrency levels dropped\n",
		failMark, target, statusCode)
}

// OnTestCompleted implements bench.Reporter.
func (r *ConsoleReporter) OnTestCompleted(result lib.BenchmarkResult) {
	_, _ = succColor.Fprintf(r.w, "%s ", succMark)
	_, _ = stdColor.Fprintf(r.w, "%s c=%d: ", result.Target, result.Concurrency)
	_, _ = valueColor.Fprintf(r.w, "%.2f req/s", result.RequestsPerSecond)
	_, _ = grayColor.Fprintf(r.w, " (%.1fms mean, %.1f%% ok)\n",
		result.MeanResponseTimeMs, result.SuccessRatePercent)
}

// OnTestFailed implements bench.Reporter.
func (r *ConsoleReporter) OnTestFailed(target string, concurrency int, err error) {
	_, _ = failColor.Fprintf(r.w, "%s %s c=%d failed: %v\n", failMark, target, concurrency, err)
}

// PrintConnectivity renders the probe outcomes as a table.
func PrintConnectivity(w io.Writer, statuses []bench.ProbeStatus) {
	tw := tabwriter.NewWriter(w, 1, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tTITLE\tSTATUS")
	for _, status := range statuses {
		state := succColor.Sprintf("%s %d", succMark, status.StatusCode)
		if !status.Accessible {
			state = failColor.Sprintf("%s %d", failMark, status.StatusCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", status.Target, status.Title, state)
	}
	_ = tw.Flush()
}

// PrintLayers renders the discovered layer names and titles.
func PrintLayers(w io.Writer, targets []string, title func(string) string) {
	tw := tabwriter.NewWriter(w, 1, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tTITLE")
	for _, target := range targets {
		fmt.Fprintf(tw, "%s\t%s\n", target, title(target))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d layer(s)\n", len(targets))
}

// PrintSummary renders the per-test result table of one finished sweep.
func PrintSummary(w io.Writer, results []lib.BenchmarkResult) {
	if len(results) == 0 {
		_, _ = grayColor.Fprintln(w, "no results")
		return
	}

	tw := tabwriter.NewWriter(w, 1, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tCONCURRENCY\tREQ/S\tMEAN MS\tFAILED\tSUCCESS")
	for _, result := range results {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.1f\t%d\t%.1f%%\n",
			result.Target, result.Concurrency, result.RequestsPerSecond,
			result.MeanResponseTimeMs, result.FailedRequests, result.SuccessRatePercent)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d test(s) completed\n", len(results))
}

// PrintRecentResults renders stored per-test result files, newest first.
func PrintRecentResults(w io.Writer, summaries []store.TestFileSummary) {
	if len(summaries) == 0 {
		_, _ = grayColor.Fprintln(w, "no stored results")
		return
	}

	tw := tabwriter.NewWriter(w, 1, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "TEST\tLAYER\tCONCURRENCY\tREQ/S\tDATE")
	for _, summary := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			summary.TestID, summary.Target, summary.ConcurrencyLevel,
			summary.RequestsPerSecond, summary.TestDate)
	}
	_ = tw.Flush()
}

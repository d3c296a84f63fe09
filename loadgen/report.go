package loadgen

import (
	"fmt"
	"strconv"
	"strings"

	null "gopkg.in/guregu/null.v3"
)

// ToolErrorKind distinguishes the ways an ab invocation can fail.
type ToolErrorKind int

// Tool error kinds.
const (
	ErrNonZeroExit ToolErrorKind = iota + 1
	ErrTimeout
	ErrIO
)

func (k ToolErrorKind) String() string {
	switch k {
	case ErrNonZeroExit:
		return "non-zero exit"
	case ErrTimeout:
		return "timeout"
	case ErrIO:
		return "io"
	default:
		return "unknown"
	}
}

// ToolError is returned by Runner.Run on failure.
type ToolError struct {
	Kind ToolErrorKind
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("load tool failed (%s): %v", e.Kind, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Report holds the metrics parsed from an ab report. Fields are null-able:
// a line missing from the report leaves its metric invalid rather than
// pretending ab measured zero. Callers decide how to default absent values.
type Report struct {
	RequestsPerSecond  null.Float
	MeanResponseTimeMs null.Float
	FailedRequests     null.Int
	TotalTimeSeconds   null.Float
	TransferRateKbps   null.Float
}

// MissingMetrics names the metrics the report did not contain.
func (r Report) MissingMetrics() []string {
	var missing []string
	if !r.RequestsPerSecond.Valid {
		missing = append(missing, "requests_per_second")
	}
	if !r.MeanResponseTimeMs.Valid {
		missing = append(missing, "mean_response_time_ms")
	}
	if !r.FailedRequests.Valid {
		missing = append(missing, "failed_requests")
	}
	if !r.TotalTimeSeconds.Valid {
		missing = append(missing, "total_time_seconds")
	}
	if !r.TransferRateKbps.Valid {
		missing = append(missing, "transfer_rate_kbps")
	}
	return missing
}

// ParseReport extracts the labeled summary lines from ab's fixed-width text
// report. Matching is exact-substring per line; anything unrecognized is
// ignored.
func ParseReport(output string) Report {
	var report Report
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, "Requests per second:"):
			if v, ok := fieldFloat(line, 3); ok {
				report.RequestsPerSecond = null.FloatFrom(v)
			}
		case strings.Contains(line, "Time per request:") && strings.Contains(line, "(mean)"):
			if v, ok := fieldFloat(line, 3); ok {
				report.MeanResponseTimeMs = null.FloatFrom(v)
			}
		case strings.Contains(line, "Failed requests:"):
			if v, ok := fieldInt(line, 2); ok {
				report.FailedRequests = null.IntFrom(v)
			}
		case strings.Contains(line, "Time taken for tests:"):
			if v, ok := fieldFloat(line, 4); ok {
				report.TotalTimeSeconds = null.FloatFrom(v)
			}
		case strings.Contains(line, "Transfer rate:"):
			if v, ok := fieldFloat(line, 2); ok {
				report.TransferRateKbps = null.FloatFrom(v)
			}
		}
	}
	return report
}

func fieldFloat(line string, idx int) (float64, bool) {
	fields := strings.Fields(line)
	if idx >= len(fields) {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func fieldInt(line string, idx int) (int64, bool) {
	fields := strings.Fields(line)
	if idx >= len(fields) {
		return 0, false
	}
	v, err := strconv.ParseInt(fields[idx], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Package lib holds the option and result types shared between the
// capabilities client, the benchmark orchestrator and the result store.
package lib

import (
	"fmt"
	"time"
)

// Session types recorded in a consolidated record's configuration block.
const (
	SessionSingleLayer   = "single_layer"
	SessionComprehensive = "comprehensive"
)

// BenchmarkResult is the outcome of one (target, concurrency) load test.
// It is assembled once by the orchestrator and never mutated afterwards.
type BenchmarkResult struct {
	Target             string
	ServiceType        string
	Concurrency        int
	TotalRequests      int
	RequestsPerSecond  float64
	MeanResponseTimeMs float64
	FailedRequests     int
	TotalTimeSeconds   float64
	TransferRateKbps   float64
	SuccessRatePercent float64
	TestID             string
	Timestamp          string // session timestamp, shared by all results of a sweep
	Metadata           map[string]string
}

// TestConfig describes the configuration of one sweep session. It is
// persisted verbatim in the consolidated record's "configuration" block.
type TestConfig struct {
	TotalRequests     int      `json:"total_requests"`
	ConcurrencyLevels []int    `json:"concurrency_levels"`
	TargetsTested     []string `json:"targets_tested"`
	Server            string   `json:"server"`
	SessionType       string   `json:"session_type"`
}

// NewSessionTimestamp returns a fresh session identifier.
func NewSessionTimestamp() string {
	return FormatSessionTimestamp(time.Now())
}

// FormatSessionTimestamp renders t as a filename-safe session identifier.
// Millisecond resolution keeps test IDs unique even when tests finish within
// the same second.
func FormatSessionTimestamp(t time.Time) string {
	return fmt.Sprintf("%s_%03d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
}

// TestID derives the per-test identifier, unique within a session.
func TestID(target string, concurrency int, sessionTimestamp string) string {
	return fmt.Sprintf("%s_c%d_%s", target, concurrency, sessionTimestamp)
}

// SuccessRate derives the success percentage from the request counts.
func SuccessRate(totalRequests, failedRequests int) float64 {
	if totalRequests == 0 {
		return 0
	}
	return float64(totalRequests-failedRequests) / float64(totalRequests) * 100
}

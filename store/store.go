// Package store persists benchmark artifacts: one JSON metadata file per
// individual test and one consolidated JSON record per session. A session is
// identified by its timestamp; records from different sessions never share a
// file, and consolidating a new session never touches existing records.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/kartoza/gsh-benchmarker/lib"
)

// PersistenceError means a result artifact could not be written. It is fatal
// for the session it belongs to.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("could not persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConsolidatedRecord is the persisted form of one session.
type ConsolidatedRecord struct {
	TestSuite     TestSuite      `json:"test_suite"`
	Configuration lib.TestConfig `json:"configuration"`
	Results       []ResultRecord `json:"results"`
}

// TestSuite is the session metadata block of a consolidated record.
type TestSuite struct {
	Name                 string   `json:"name"`
	ServiceType          string   `json:"service_type"`
	Timestamp            string   `json:"timestamp"`
	Date                 string   `json:"date"`
	TotalRequestsPerTest int      `json:"total_requests_per_test"`
	ConcurrencyLevels    []int    `json:"concurrency_levels"`
	TargetsTested        []string `json:"targets_tested"`
	TotalTests           int      `json:"total_tests"`
}

// ResultRecord is one test inside a consolidated record.
type ResultRecord struct {
	Target           string            `json:"target"`
	ServiceType      string            `json:"service_type"`
	Timestamp        string            `json:"timestamp"`
	TestID           string            `json:"test_id"`
	TotalRequests    int               `json:"total_requests"`
	ConcurrencyLevel int               `json:"concurrency_level"`
	TestDate         string            `json:"test_date"`
	Results          MetricsRecord     `json:"results"`
	Metadata         map[string]string `json:"metadata"`
}

// MetricsRecord carries the formatted metric values of one test.
type MetricsRecord struct {
	RequestsPerSecond  string `json:"requests_per_second"`
	MeanResponseTimeMs string `json:"mean_response_time_ms"`
	FailedRequests     string `json:"failed_requests"`
	TotalTimeSeconds   string `json:"total_time_seconds"`
	TransferRateKbps   string `json:"transfer_rate_kbps"`
	SuccessRate        string `json:"success_rate"`
}

// TestFileSummary is one per-test metadata file, as listed by RecentResults.
type TestFileSummary struct {
	TestID             string
	Target             string
	ConcurrencyLevel   int
	TestDate           string
	RequestsPerSecond  string
	MeanResponseTimeMs string
	FailedRequests     string
	SuccessRate        string
	ModTime            time.Time
}

// Store writes session artifacts below one directory of the given
// filesystem. It assumes it is the directory's only writer.
type Store struct {
	fs          afero.Fs
	dir         string
	serviceType string
	logger      logrus.FieldLogger
	now         func() time.Time
}

// New returns a Store rooted at dir. The directory is created lazily by the
// write operations.
func New(fs afero.Fs, dir, serviceType string, logger logrus.FieldLogger) *Store {
	return &Store{
		fs:          fs,
		dir:         dir,
		serviceType: serviceType,
		logger:      logger.WithField("component", "store"),
		now:         time.Now,
	}
}

// Dir returns the result directory path.
func (s *Store) Dir() string { return s.dir }

// ArtifactPrefix returns the path prefix under which per-run tool artifacts
// for the given test ID should be written.
func (s *Store) ArtifactPrefix(testID string) string {
	return filepath.Join(s.dir, testID)
}

// Clear removes all artifacts from the result directory and recreates it.
// This is destructive; it runs at the start of a sweep so the directory only
// ever holds one session's per-test files.
func (s *Store) Clear() error {
	if err := s.fs.RemoveAll(s.dir); err != nil {
		return &PersistenceError{Path: s.dir, Err: err}
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return &PersistenceError{Path: s.dir, Err: err}
	}
	s.logger.WithField("dir", s.dir).Debug("Cleared result directory")
	return nil
}

// SaveResult writes the per-test metadata file for one result: the common
// result fields plus any service-specific extras (tile address, protocol,
// ...). The file is named after the test ID.
func (s *Store) SaveResult(result lib.BenchmarkResult, testURL string, extra map[string]string) error {
	metadata := map[string]interface{}{
		"target":            result.Target,
		"service_type":      result.ServiceType,
		"timestamp":         result.Timestamp,
		"test_id":           result.TestID,
		"total_requests":    result.TotalRequests,
		"concurrency_level": result.Concurrency,
		"test_url":          testURL,
		"test_date":         s.now().Format(time.RFC3339),
		"results": map[string]string{
			"requests_per_second":   fmt.Sprintf("%.2f", result.RequestsPerSecond),
			"mean_response_time_ms": fmt.Sprintf("%.2f", result.MeanResponseTimeMs),
			"failed_requests":       fmt.Sprint(result.FailedRequests),
			"total_time_seconds":    fmt.Sprintf("%.2f", result.TotalTimeSeconds),
			"transfer_rate_kbps":    fmt.Sprintf("%.2f", result.TransferRateKbps),
			"success_rate":          fmt.Sprintf("%.1f", result.SuccessRatePercent),
		},
	}
	for k, v := range result.Metadata {
		metadata[k] = v
	}
	for k, v := range extra {
		metadata[k] = v
	}

	path := filepath.Join(s.dir, result.TestID+".json")
	if err := s.writeJSON(path, metadata); err != nil {
		return err
	}
	return nil
}

// Consolidate writes one session's results plus its configuration into a
// single timestamped record and returns its path. The targets_tested list
// reflects only the targets actually present in results, in first-seen
// order.
func (s *Store) Consolidate(results []lib.BenchmarkResult, sessionTimestamp string, cfg lib.TestConfig) (string, error) {
	suiteKind := "Comprehensive"
	if cfg.SessionType == lib.SessionSingleLayer {
		suiteKind = "Single Layer"
	}
	record := ConsolidatedRecord{
		TestSuite: TestSuite{
			Name:                 fmt.Sprintf("%s %s Benchmark", strings.Title(s.serviceType), suiteKind), //nolint:staticcheck
			ServiceType:          s.serviceType,
			Timestamp:            sessionTimestamp,
			Date:                 s.now().Format(time.RFC3339),
			TotalRequestsPerTest: cfg.TotalRequests,
			ConcurrencyLevels:    cfg.ConcurrencyLevels,
			TargetsTested:        distinctTargets(results),
			TotalTests:           len(results),
		},
		Configuration: cfg,
		Results:       make([]ResultRecord, 0, len(results)),
	}

	for _, result := range results {
		metadata := result.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		record.Results = append(record.Results, ResultRecord{
			Target:           result.Target,
			ServiceType:      result.ServiceType,
			Timestamp:        result.Timestamp,
			TestID:           result.TestID,
			TotalRequests:    result.TotalRequests,
			ConcurrencyLevel: result.Concurrency,
			TestDate:         s.now().Format(time.RFC3339),
			Results: MetricsRecord{
				RequestsPerSecond:  fmt.Sprintf("%.2f", result.RequestsPerSecond),
				MeanResponseTimeMs: fmt.Sprintf("%.2f", result.MeanResponseTimeMs),
				FailedRequests:     fmt.Sprint(result.FailedRequests),
				TotalTimeSeconds:   fmt.Sprintf("%.2f", result.TotalTimeSeconds),
				TransferRateKbps:   fmt.Sprintf("%.2f", result.TransferRateKbps),
				SuccessRate:        fmt.Sprintf("%.1f%%", result.SuccessRatePercent),
			},
			Metadata: metadata,
		})
	}

	path := filepath.Join(s.dir, fmt.Sprintf("consolidated_%s_results_%s.json", s.serviceType, sessionTimestamp))
	if err := s.writeJSON(path, record); err != nil {
		return "", err
	}
	s.logger.WithField("path", path).Info("Consolidated results saved")
	return path, nil
}

// LoadConsolidated reads back a consolidated record.
func (s *Store) LoadConsolidated(path string) (ConsolidatedRecord, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return ConsolidatedRecord{}, err
	}
	var record ConsolidatedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ConsolidatedRecord{}, fmt.Errorf("malformed consolidated record %s: %w", path, err)
	}
	return record, nil
}

// RecentResults lists up to n per-test metadata files, newest first.
// Consolidated records are skipped; so are files that don't parse.
func (s *Store) RecentResults(n int) ([]TestFileSummary, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}

	var summaries []TestFileSummary
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "consolidated_") {
			continue
		}
		data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var raw struct {
			TestID           string            `json:"test_id"`
			Target           string            `json:"target"`
			ConcurrencyLevel int               `json:"concurrency_level"`
			TestDate         string            `json:"test_date"`
			Results          map[string]string `json:"results"`
		}
		if err := json.Unmarshal(data, &raw); err != nil || raw.Target == "" {
			continue
		}
		summaries = append(summaries, TestFileSummary{
			TestID:             raw.TestID,
			Target:             raw.Target,
			ConcurrencyLevel:   raw.ConcurrencyLevel,
			TestDate:           raw.TestDate,
			RequestsPerSecond:  raw.Results["requests_per_second"],
			MeanResponseTimeMs: raw.Results["mean_response_time_ms"],
			FailedRequests:     raw.Results["failed_requests"],
			SuccessRate:        raw.Results["success_rate"],
			ModTime:            info.ModTime(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ModTime.After(summaries[j].ModTime)
	})
	if len(summaries) > n {
		summaries = summaries[:n]
	}
	return summaries, nil
}

func (s *Store) writeJSON(path string, v interface{}) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return &PersistenceError{Path: s.dir, Err: err}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	if err := afero.WriteFile(s.fs, path, append(data, '\n'), 0o644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}

func distinctTargets(results []lib.BenchmarkResult) []string {
	seen := make(map[string]struct{}, len(results))
	targets := make([]string, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.Target]; ok {
			continue
		}
		seen[r.Target] = struct{}{}
		targets = append(targets, r.Target)
	}
	return targets
}

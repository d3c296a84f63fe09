package store

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/gsh-benchmarker/lib"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func makeResult(target string, concurrency int, ts string) lib.BenchmarkResult {
	return lib.BenchmarkResult{
		Target:             target,
		ServiceType:        "geoserver",
		Concurrency:        concurrency,
		TotalRequests:      1000,
		RequestsPerSecond:  50.0 + float64(concurrency)/10,
		MeanResponseTimeMs: 200.0 - float64(concurrency)/10,
		FailedRequests:     0,
		TotalTimeSeconds:   12.5,
		TransferRateKbps:   1000.0,
		SuccessRatePercent: 100.0,
		TestID:             lib.TestID(target, concurrency, ts),
		Timestamp:          ts,
	}
}

func makeConfig(targets []string, levels []int, sessionType string) lib.TestConfig {
	return lib.TestConfig{
		TotalRequests:     1000,
		ConcurrencyLevels: levels,
		TargetsTested:     targets,
		Server:            "https://test.example.com/geoserver",
		SessionType:       sessionType,
	}
}

func TestConsolidateRoundTrip(t *testing.T) {
	t.Parallel()
	s := New(afero.NewMemMapFs(), "results", "geoserver", testLogger())

	ts := "20250314_092653_589"
	results := []lib.BenchmarkResult{
		makeResult("layer_a", 10, ts),
		makeResult("layer_a", 100, ts),
		makeResult("layer_b", 10, ts),
	}

	path, err := s.Consolidate(results, ts, makeConfig([]string{"layer_a", "layer_b"}, []int{10, 100}, lib.SessionComprehensive))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("results", "consolidated_geoserver_results_20250314_092653_589.json"), path)

	record, err := s.LoadConsolidated(path)
	require.NoError(t, err)

	assert.Len(t, record.Results, len(results))
	assert.Equal(t, len(results), record.TestSuite.TotalTests)
	assert.Equal(t, "Geoserver Comprehensive Benchmark", record.TestSuite.Name)
	assert.Equal(t, "geoserver", record.TestSuite.ServiceType)
	assert.Equal(t, ts, record.TestSuite.Timestamp)
	assert.Equal(t, 1000, record.TestSuite.TotalRequestsPerTest)
	assert.Equal(t, []int{10, 100}, record.TestSuite.ConcurrencyLevels)
	assert.Equal(t, []string{"layer_a", "layer_b"}, record.TestSuite.TargetsTested)
	assert.Equal(t, lib.SessionComprehensive, record.Configuration.SessionType)

	first := record.Results[0]
	assert.Equal(t, "layer_a", first.Target)
	assert.Equal(t, 10, first.ConcurrencyLevel)
	assert.Equal(t, "51.00", first.Results.RequestsPerSecond)
	assert.Equal(t, "100.0%", first.Results.SuccessRate)
	assert.NotNil(t, first.Metadata)
}

func TestConsolidateTargetsReflectResultsOnly(t *testing.T) {
	t.Parallel()
	s := New(afero.NewMemMapFs(), "results", "geoserver", testLogger())

	// The config says two layers were planned, but only one produced results.
	ts := "20250314_100000_000"
	results := []lib.BenchmarkResult{makeResult("layer_a", 10, ts)}
	path, err := s.Consolidate(results, ts, makeConfig([]string{"layer_a", "layer_b"}, []int{10}, lib.SessionComprehensive))
	require.NoError(t, err)

	record, err := s.LoadConsolidated(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"layer_a"}, record.TestSuite.TargetsTested)
}

func TestSessionIsolation(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	s := New(fs, "results", "geoserver", testLogger())

	tsA := "20250314_090000_000"
	pathA, err := s.Consolidate([]lib.BenchmarkResult{
		makeResult("X", 10, tsA),
		makeResult("X", 100, tsA),
	}, tsA, makeConfig([]string{"X"}, []int{10, 100}, lib.SessionSingleLayer))
	require.NoError(t, err)

	beforeB, err := afero.ReadFile(fs, pathA)
	require.NoError(t, err)

	tsB := "20250314_090000_001"
	pathB, err := s.Consolidate([]lib.BenchmarkResult{
		makeResult("Y", 10, tsB),
		makeResult("Y", 50, tsB),
		makeResult("Y", 100, tsB),
	}, tsB, makeConfig([]string{"Y"}, []int{10, 50, 100}, lib.SessionSingleLayer))
	require.NoError(t, err)
	require.NotEqual(t, pathA, pathB)

	recordA, err := s.LoadConsolidated(pathA)
	require.NoError(t, err)
	recordB, err := s.LoadConsolidated(pathB)
	require.NoError(t, err)

	assert.Equal(t, []string{"X"}, recordA.TestSuite.TargetsTested)
	assert.Equal(t, []string{"Y"}, recordB.TestSuite.TargetsTested)
	assert.Equal(t, "Geoserver Single Layer Benchmark", recordA.TestSuite.Name)
	assert.Len(t, recordA.Results, 2)
	assert.Len(t, recordB.Results, 3)

	// Writing session B must leave session A's file byte-identical.
	afterB, err := afero.ReadFile(fs, pathA)
	require.NoError(t, err)
	assert.Equal(t, beforeB, afterB)
}

func TestSaveResultAndRecentResults(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	s := New(fs, "results", "geoserver", testLogger())

	ts := "20250314_110000_000"
	result := makeResult("CAS:roads", 100, ts)
	require.NoError(t, s.SaveResult(result, "https://example.com/tile", map[string]string{
		"protocol":    "WMTS",
		"tile_matrix": "8",
	}))

	data, err := afero.ReadFile(fs, filepath.Join("results", result.TestID+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"protocol": "WMTS"`)
	assert.Contains(t, string(data), `"test_url": "https://example.com/tile"`)

	// A consolidated record in the same directory must not show up.
	_, err = s.Consolidate([]lib.BenchmarkResult{result}, ts, makeConfig([]string{"CAS:roads"}, []int{100}, lib.SessionSingleLayer))
	require.NoError(t, err)

	summaries, err := s.RecentResults(10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "CAS:roads", summaries[0].Target)
	assert.Equal(t, 100, summaries[0].ConcurrencyLevel)
	assert.Equal(t, "60.00", summaries[0].RequestsPerSecond)
}

func TestClear(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	s := New(fs, "results", "geoserver", testLogger())

	ts := "20250314_120000_000"
	require.NoError(t, s.SaveResult(makeResult("stale", 10, ts), "https://example.com", nil))
	require.NoError(t, s.Clear())

	infos, err := afero.ReadDir(fs, "results")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

// Package bench plans and drives load-test sweeps: it validates the
// requested concurrency levels, probes each discovered target, invokes the
// load generator once per (target, concurrency) pair and hands the
// accumulated results to the session store. Execution is strictly
// sequential; running tests concurrently with each other would make their
// measurements mutually interfering. "Concurrency" is a parameter of the
// invoked tool, not of the orchestrator.
package bench

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/kartoza/gsh-benchmarker/capabilities"
	"github.com/kartoza/gsh-benchmarker/lib"
	"github.com/kartoza/gsh-benchmarker/loadgen"
	"github.com/kartoza/gsh-benchmarker/store"
)

// ServiceTypeGeoServer is the registry name of the GeoServer WMTS tester.
const ServiceTypeGeoServer = "geoserver"

//nolint:gochecknoinits
func init() {
	RegisterServiceTester(ServiceTypeGeoServer, func(params Params) (ServiceTester, error) {
		return NewGeoServerTester(params)
	})
}

// GeoServerTester benchmarks WMTS tile delivery of a GeoServer instance.
// It is not safe for concurrent use; one tester owns its result directory.
type GeoServerTester struct {
	logger   logrus.FieldLogger
	client   *capabilities.Client
	runner   loadgen.Runner
	results  *store.Store
	reporter Reporter

	serverURL   string
	layers      map[string]capabilities.LayerInfo
	layerOrder  []string
	serviceInfo capabilities.ServiceInfo
}

// NewGeoServerTester builds a tester from Params, filling in the default
// ApacheBench runner, OS filesystem and nop reporter where none are given.
func NewGeoServerTester(params Params) (*GeoServerTester, error) {
	if params.ServerURL == "" {
		return nil, fmt.Errorf("no server URL configured")
	}

	logger := params.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fs := params.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	runner := params.Runner
	if runner == nil {
		runner = loadgen.NewABRunner(fs, logger)
	}
	reporter := params.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}
	resultsDir := params.ResultsDir
	if resultsDir == "" {
		resultsDir = lib.DefaultResultsDir
	}

	client := capabilities.NewClient(params.ServerURL, logger)
	return &GeoServerTester{
		logger:    logger.WithField("service", ServiceTypeGeoServer),
		client:    client,
		runner:    runner,
		results:   store.New(fs, resultsDir, ServiceTypeGeoServer, logger),
		reporter:  reporter,
		serverURL: client.BaseURL(),
		layers:    map[string]capabilities.LayerInfo{},
	}, nil
}

// Description implements ServiceTester.
func (t *GeoServerTester) Description() string {
	return fmt.Sprintf("GeoServer WMTS tiles (%s)", t.serverURL)
}

// DiscoverTargets fetches the capabilities document and populates the layer
// directory. On any failure it returns false and leaves the directory empty.
func (t *GeoServerTester) DiscoverTargets(ctx context.Context) bool {
	layers, info, err := t.client.Discover(ctx)
	if err != nil {
		t.logger.WithError(err).Error("Layer discovery failed")
		return false
	}

	t.layers = make(map[string]capabilities.LayerInfo, len(layers))
	t.layerOrder = t.layerOrder[:0]
	for _, layer := range layers {
		if _, ok := t.layers[layer.Name]; ok {
			continue
		}
		t.layers[layer.Name] = layer
		t.layerOrder = append(t.layerOrder, layer.Name)
	}
	t.serviceInfo = info

	if len(t.layers) == 0 {
		t.logger.Warn("No layers discovered")
		return false
	}
	t.logger.WithField("layers", len(t.layers)).Info("Discovered layers")
	return true
}

// Targets implements ServiceTester; names come back in discovery order.
func (t *GeoServerTester) Targets() []string {
	return append([]string(nil), t.layerOrder...)
}

// TargetTitle implements ServiceTester.
func (t *GeoServerTester) TargetTitle(target string) string {
	return t.layers[target].Title
}

// Layer returns the parsed info for one discovered layer.
func (t *GeoServerTester) Layer(name string) (capabilities.LayerInfo, bool) {
	layer, ok := t.layers[name]
	return layer, ok
}

// ServiceInfo returns the service metadata from the capabilities document.
func (t *GeoServerTester) ServiceInfo() capabilities.ServiceInfo {
	return t.serviceInfo
}

// ResultsDir returns the directory the tester persists artifacts to.
func (t *GeoServerTester) ResultsDir() string {
	return t.results.Dir()
}

// RecentResults lists recent per-test result files from the result store.
func (t *GeoServerTester) RecentResults(n int) ([]store.TestFileSummary, error) {
	return t.results.RecentResults(n)
}

// CheckConnectivity probes every discovered layer in discovery order.
func (t *GeoServerTester) CheckConnectivity(ctx context.Context) []ProbeStatus {
	statuses := make([]ProbeStatus, 0, len(t.layerOrder))
	for _, name := range t.layerOrder {
		accessible, code := t.client.ProbeLayerAccess(ctx, name)
		statuses = append(statuses, ProbeStatus{
			Target:     name,
			Title:      t.layers[name].Title,
			Accessible: accessible,
			StatusCode: code,
		})
	}
	return statuses
}

// RunSingleTest runs one load test against the layer's tile endpoint and
// assembles the result. The per-test metadata file is written as a side
// effect. A nil result with an error means the test produced nothing usable.
func (t *GeoServerTester) RunSingleTest(
	ctx context.Context, target string, concurrency, totalRequests int, sessionTimestamp string,
) (*lib.BenchmarkResult, error) {
	layer, ok := t.layers[target]
	if !ok {
		return nil, fmt.Errorf("unknown layer %q", target)
	}
	if sessionTimestamp == "" {
		sessionTimestamp = lib.NewSessionTimestamp()
	}

	testID := lib.TestID(target, concurrency, sessionTimestamp)
	tileURL := t.client.TileURL(target, capabilities.DefaultZoomLevel, capabilities.DefaultTileRow, capabilities.DefaultTileCol)

	report, err := t.runner.Run(ctx, loadgen.Params{
		URL:           tileURL,
		TotalRequests: totalRequests,
		Concurrency:   concurrency,
		OutputPrefix:  t.results.ArtifactPrefix(testID),
	})
	if err != nil {
		return nil, err
	}

	if missing := report.MissingMetrics(); len(missing) > 0 {
		// The tool's report didn't contain these lines; zero below means
		// "unreported", not "measured zero".
		t.logger.WithFields(logrus.Fields{
			"test_id": testID,
			"metrics": missing,
		}).Warn("Load tool report is missing metrics, defaulting them to zero")
	}

	failed := int(report.FailedRequests.ValueOrZero())
	result := &lib.BenchmarkResult{
		Target:             target,
		ServiceType:        ServiceTypeGeoServer,
		Concurrency:        concurrency,
		TotalRequests:      totalRequests,
		RequestsPerSecond:  report.RequestsPerSecond.ValueOrZero(),
		MeanResponseTimeMs: report.MeanResponseTimeMs.ValueOrZero(),
		FailedRequests:     failed,
		TotalTimeSeconds:   report.TotalTimeSeconds.ValueOrZero(),
		TransferRateKbps:   report.TransferRateKbps.ValueOrZero(),
		SuccessRatePercent: lib.SuccessRate(totalRequests, failed),
		TestID:             testID,
		Timestamp:          sessionTimestamp,
	}

	if err := t.results.SaveResult(*result, tileURL, map[string]string{
		"description": layer.Title,
		"server":      t.serverURL,
		"protocol":    "WMTS",
		"tile_matrix": strconv.Itoa(capabilities.DefaultZoomLevel),
		"tile_row":    strconv.Itoa(capabilities.DefaultTileRow),
		"tile_col":    strconv.Itoa(capabilities.DefaultTileCol),
		"format":      capabilities.DefaultTileFormat,
	}); err != nil {
		t.logger.WithError(err).WithField("test_id", testID).Error("Could not save test metadata")
	}

	return result, nil
}

// RunComprehensiveSweep tests every discovered layer across the valid
// concurrency levels. Stale per-test artifacts are cleared first, so the
// result directory only ever holds one comprehensive session.
func (t *GeoServerTester) RunComprehensiveSweep(
	ctx context.Context, totalRequests int, requestedConcurrency []int,
) ([]lib.BenchmarkResult, error) {
	if err := t.results.Clear(); err != nil {
		return nil, err
	}
	return t.sweep(ctx, t.layerOrder, totalRequests, requestedConcurrency, lib.SessionComprehensive)
}

// RunTargetSweep runs the concurrency sweep against a single layer. Unlike
// the comprehensive sweep it does not clear the result directory, so records
// of earlier sessions survive.
func (t *GeoServerTester) RunTargetSweep(
	ctx context.Context, target string, totalRequests int, requestedConcurrency []int,
) ([]lib.BenchmarkResult, error) {
	if _, ok := t.layers[target]; !ok {
		return nil, fmt.Errorf("unknown layer %q", target)
	}
	return t.sweep(ctx, []string{target}, totalRequests, requestedConcurrency, lib.SessionSingleLayer)
}

// sweep is the shared engine: plan, probe, test, accumulate, consolidate.
// A failed probe skips that target's levels; a failed test skips that test;
// neither aborts the sweep.
func (t *GeoServerTester) sweep(
	ctx context.Context, targets []string, totalRequests int, requestedConcurrency []int, sessionType string,
) ([]lib.BenchmarkResult, error) {
	levels, dropped := PlanConcurrency(requestedConcurrency, totalRequests)
	if dropped > 0 {
		t.logger.WithFields(logrus.Fields{
			"dropped":        dropped,
			"total_requests": totalRequests,
		}).Warn("Dropped concurrency levels exceeding the request budget")
	}

	sessionTimestamp := lib.NewSessionTimestamp()
	t.logger.WithFields(logrus.Fields{
		"session":     sessionTimestamp,
		"targets":     len(targets),
		"levels":      levels,
		"total_tests": len(targets) * len(levels),
	}).Info("Starting sweep")

	var results []lib.BenchmarkResult
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		accessible, statusCode := t.client.ProbeLayerAccess(ctx, target)
		if !accessible {
			t.logger.WithFields(logrus.Fields{
				"layer":  target,
				"status": statusCode,
			}).Warn("Layer not accessible, skipping its tests")
			t.reporter.OnLayerSkipped(target, statusCode)
			continue
		}

		for _, concurrency := range levels {
			if err := ctx.Err(); err != nil {
				return results, err
			}

			result, err := t.RunSingleTest(ctx, target, concurrency, totalRequests, sessionTimestamp)
			if err != nil {
				t.logger.WithError(err).WithFields(logrus.Fields{
					"layer":       target,
					"concurrency": concurrency,
				}).Warn("Test failed")
				t.reporter.OnTestFailed(target, concurrency, err)
				continue
			}
			results = append(results, *result)
			t.reporter.OnTestCompleted(*result)
		}
	}

	if len(results) > 0 {
		cfg := lib.TestConfig{
			TotalRequests:     totalRequests,
			ConcurrencyLevels: levels,
			TargetsTested:     append([]string(nil), targets...),
			Server:            t.serverURL,
			SessionType:       sessionType,
		}
		if _, err := t.results.Consolidate(results, sessionTimestamp, cfg); err != nil {
			return results, err
		}
	}
	return results, nil
}

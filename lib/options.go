package lib

import (
	"fmt"

	null "gopkg.in/guregu/null.v3"
)

// Default values applied by ConsolidateOptions when nothing else sets a field.
const (
	DefaultTotalRequests  = 5000
	DefaultToolTimeoutSec = 300
	DefaultResultsDir     = "results"
	DefaultServiceType    = "geoserver"
)

// DefaultConcurrencyLevels is the incremental sweep used when the operator
// doesn't request specific levels.
//
//nolint:gochecknoglobals
var DefaultConcurrencyLevels = []int{1, 10, 100, 500, 1000, 2000, 3000, 4000, 5000}

// Options holds everything configurable about a benchmark run. Fields are
// tri-state (unset/set) so that values from a config file, the environment
// and CLI flags can be layered without clobbering each other.
type Options struct {
	// ServerURL is the base URL of the map server under test, e.g.
	// "https://example.com/geoserver".
	ServerURL null.String `json:"serverUrl" yaml:"serverUrl" envconfig:"GSH_SERVER_URL"`

	// ServiceType selects the registered service tester.
	ServiceType null.String `json:"serviceType" yaml:"serviceType" envconfig:"GSH_SERVICE_TYPE"`

	// TotalRequests is the number of requests the load tool issues per test.
	TotalRequests null.Int `json:"totalRequests" yaml:"totalRequests" envconfig:"GSH_TOTAL_REQUESTS"`

	// ConcurrencyLevels is the requested sweep; it is normalized against
	// TotalRequests before use.
	ConcurrencyLevels []int `json:"concurrencyLevels" yaml:"concurrencyLevels" envconfig:"GSH_CONCURRENCY_LEVELS"`

	// ToolTimeoutSec bounds a single load-tool invocation, in seconds.
	ToolTimeoutSec null.Int `json:"toolTimeoutSec" yaml:"toolTimeoutSec" envconfig:"GSH_TOOL_TIMEOUT"`

	// ResultsDir is where per-test and consolidated JSON artifacts are written.
	ResultsDir null.String `json:"resultsDir" yaml:"resultsDir" envconfig:"GSH_RESULTS_DIR"`
}

// Apply overlays the set fields of opts on top of o and returns the result.
func (o Options) Apply(opts Options) Options {
	if opts.ServerURL.Valid {
		o.ServerURL = opts.ServerURL
	}
	if opts.ServiceType.Valid {
		o.ServiceType = opts.ServiceType
	}
	if opts.TotalRequests.Valid {
		o.TotalRequests = opts.TotalRequests
	}
	if opts.ConcurrencyLevels != nil {
		o.ConcurrencyLevels = opts.ConcurrencyLevels
	}
	if opts.ToolTimeoutSec.Valid {
		o.ToolTimeoutSec = opts.ToolTimeoutSec
	}
	if opts.ResultsDir.Valid {
		o.ResultsDir = opts.ResultsDir
	}
	return o
}

// Validate checks option values that have no sane interpretation. Unset
// fields are fine; they get defaults later.
func (o Options) Validate() error {
	if o.TotalRequests.Valid && o.TotalRequests.Int64 < 1 {
		return fmt.Errorf("total requests must be at least 1, got %d", o.TotalRequests.Int64)
	}
	if o.ToolTimeoutSec.Valid && o.ToolTimeoutSec.Int64 < 1 {
		return fmt.Errorf("tool timeout must be at least 1s, got %ds", o.ToolTimeoutSec.Int64)
	}
	return nil
}

// DefaultOptions returns the built-in option values, i.e. the bottom layer
// of the configuration sandwich.
func DefaultOptions() Options {
	return Options{
		ServiceType:       null.StringFrom(DefaultServiceType),
		TotalRequests:     null.IntFrom(DefaultTotalRequests),
		ConcurrencyLevels: append([]int(nil), DefaultConcurrencyLevels...),
		ToolTimeoutSec:    null.IntFrom(DefaultToolTimeoutSec),
		ResultsDir:        null.StringFrom(DefaultResultsDir),
	}
}

package bench

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/kartoza/gsh-benchmarker/lib"
	"github.com/kartoza/gsh-benchmarker/loadgen"
	"github.com/kartoza/gsh-benchmarker/store"
)

// Params contains the constructor parameters a service tester may need.
type Params struct {
	ServerURL  string
	ResultsDir string
	Logger     logrus.FieldLogger
	FS         afero.Fs
	// Runner may be nil, in which case the tester uses the default
	// ApacheBench runner.
	Runner loadgen.Runner
	// Reporter may be nil, in which case events are discarded.
	Reporter Reporter
}

// ProbeStatus is the outcome of one target's accessibility probe.
type ProbeStatus struct {
	Target     string
	Title      string
	Accessible bool
	StatusCode int
}

// A ServiceTester benchmarks one kind of map service. Implementations are
// registered by service-type name so new service types can be added without
// touching orchestration or CLI code.
type ServiceTester interface {
	// Description returns a human-readable description shown before a run.
	Description() string

	// DiscoverTargets populates the tester's target directory. It returns
	// false (with an empty directory) on any discovery failure.
	DiscoverTargets(ctx context.Context) bool

	// Targets returns the discovered target names in discovery order.
	Targets() []string

	// TargetTitle returns the human-readable title of a discovered target,
	// or "" for unknown ones.
	TargetTitle(target string) string

	// CheckConnectivity probes every discovered target.
	CheckConnectivity(ctx context.Context) []ProbeStatus

	// RunSingleTest runs one (target, concurrency) test. A nil result with
	// an error means the test failed; the caller decides whether to skip.
	RunSingleTest(ctx context.Context, target string, concurrency, totalRequests int, sessionTimestamp string) (*lib.BenchmarkResult, error)

	// RunComprehensiveSweep tests every discovered target across the valid
	// concurrency levels and consolidates the session.
	RunComprehensiveSweep(ctx context.Context, totalRequests int, requestedConcurrency []int) ([]lib.BenchmarkResult, error)

	// RunTargetSweep is the single-target variant of RunComprehensiveSweep.
	RunTargetSweep(ctx context.Context, target string, totalRequests int, requestedConcurrency []int) ([]lib.BenchmarkResult, error)

	// RecentResults lists up to n stored per-test results, newest first.
	RecentResults(n int) ([]store.TestFileSummary, error)

	// ResultsDir returns the directory the tester persists artifacts to.
	ResultsDir() string
}

// Constructor builds a ServiceTester from Params.
type Constructor func(Params) (ServiceTester, error)

//nolint:gochecknoglobals
var (
	testers   = make(map[string]Constructor)
	testersMx sync.RWMutex
)

// RegisterServiceTester registers a tester constructor under the given
// service-type name. It panics if the name is already taken.
func RegisterServiceTester(serviceType string, ctor Constructor) {
	testersMx.Lock()
	defer testersMx.Unlock()

	if _, ok := testers[serviceType]; ok {
		panic(fmt.Sprintf("service tester already registered: %s", serviceType))
	}
	testers[serviceType] = ctor
}

// GetServiceTester looks up a registered constructor.
func GetServiceTester(serviceType string) (Constructor, bool) {
	testersMx.RLock()
	defer testersMx.RUnlock()
	ctor, ok := testers[serviceType]
	return ctor, ok
}

// ServiceTypes returns the registered service-type names, sorted.
func ServiceTypes() []string {
	testersMx.RLock()
	defer testersMx.RUnlock()
	types := make([]string, 0, len(testers))
	for name := range testers {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/kartoza/gsh-benchmarker/bench"
	"github.com/kartoza/gsh-benchmarker/errext"
	"github.com/kartoza/gsh-benchmarker/lib"
	"github.com/kartoza/gsh-benchmarker/loadgen"
	"github.com/kartoza/gsh-benchmarker/ui"
)

// newTester builds the configured service tester, wired to the console.
func (c *rootCommand) newTester(opts lib.Options) (bench.ServiceTester, error) {
	if !opts.ServerURL.Valid || opts.ServerURL.String == "" {
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("no server URL given, use --url, the config file or GSH_SERVER_URL"),
			errext.InvalidConfig)
	}

	serviceType := opts.ServiceType.String
	ctor, ok := bench.GetServiceTester(serviceType)
	if !ok {
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("unknown service type %q, available: %s",
				serviceType, strings.Join(bench.ServiceTypes(), ", ")),
			errext.InvalidConfig)
	}

	runner := loadgen.NewABRunner(c.fs, c.logger)
	runner.SetTimeout(time.Duration(opts.ToolTimeoutSec.Int64) * time.Second)

	tester, err := ctor(bench.Params{
		ServerURL:  opts.ServerURL.String,
		ResultsDir: opts.ResultsDir.String,
		Logger:     c.logger,
		FS:         c.fs,
		Runner:     runner,
		Reporter:   ui.NewConsoleReporter(c.stdout),
	})
	if err != nil {
		return nil, errext.WithExitCodeIfNone(err, errext.InvalidConfig)
	}
	return tester, nil
}

// discover runs target discovery and converts failure into an exit-coded
// error shared by all subcommands that need targets.
func (c *rootCommand) discover(tester bench.ServiceTester) error {
	if !tester.DiscoverTargets(c.ctx) {
		return errext.WithExitCodeIfNone(
			fmt.Errorf("could not discover any layers, is the server reachable?"),
			errext.DiscoveryFailed)
	}
	return nil
}

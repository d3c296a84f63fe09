package cmd

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	null "gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"

	"github.com/kartoza/gsh-benchmarker/errext"
	"github.com/kartoza/gsh-benchmarker/lib"
)

// fileConfig is the on-disk shape of a config file. Pointer fields keep the
// absent/present distinction; yaml.v3 parses both YAML and JSON documents.
type fileConfig struct {
	ServerURL         *string `yaml:"serverUrl"`
	ServiceType       *string `yaml:"serviceType"`
	TotalRequests     *int64  `yaml:"totalRequests"`
	ConcurrencyLevels []int   `yaml:"concurrencyLevels"`
	ToolTimeoutSec    *int64  `yaml:"toolTimeoutSec"`
	ResultsDir        *string `yaml:"resultsDir"`
}

func (fc fileConfig) toOptions() lib.Options {
	var opts lib.Options
	if fc.ServerURL != nil {
		opts.ServerURL = null.StringFrom(*fc.ServerURL)
	}
	if fc.ServiceType != nil {
		opts.ServiceType = null.StringFrom(*fc.ServiceType)
	}
	if fc.TotalRequests != nil {
		opts.TotalRequests = null.IntFrom(*fc.TotalRequests)
	}
	if fc.ConcurrencyLevels != nil {
		opts.ConcurrencyLevels = fc.ConcurrencyLevels
	}
	if fc.ToolTimeoutSec != nil {
		opts.ToolTimeoutSec = null.IntFrom(*fc.ToolTimeoutSec)
	}
	if fc.ResultsDir != nil {
		opts.ResultsDir = null.StringFrom(*fc.ResultsDir)
	}
	return opts
}

func readConfigFile(fs afero.Fs, path string) (lib.Options, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return lib.Options{}, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return lib.Options{}, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return fc.toOptions(), nil
}

// consolidateOptions layers the configuration sources: built-in defaults,
// then the config file (if any), then GSH_* environment variables, then the
// CLI flags that were actually set. Later layers win.
func (c *rootCommand) consolidateOptions(flagOpts lib.Options) (lib.Options, error) {
	opts := lib.DefaultOptions()

	if c.configFilePath != "" {
		fileOpts, err := readConfigFile(c.fs, c.configFilePath)
		if err != nil {
			return opts, errext.WithExitCodeIfNone(err, errext.InvalidConfig)
		}
		opts = opts.Apply(fileOpts)
	}

	var envOpts lib.Options
	if err := envconfig.Process("", &envOpts); err != nil {
		return opts, errext.WithExitCodeIfNone(
			fmt.Errorf("could not read environment configuration: %w", err), errext.InvalidConfig)
	}
	opts = opts.Apply(envOpts)

	opts = opts.Apply(flagOpts)
	if err := opts.Validate(); err != nil {
		return opts, errext.WithExitCodeIfNone(err, errext.InvalidConfig)
	}
	return opts, nil
}

// flagOptions picks up only the option flags the user actually changed.
func flagOptions(flags *pflag.FlagSet) (lib.Options, error) {
	var opts lib.Options

	if flags.Changed("url") {
		url, err := flags.GetString("url")
		if err != nil {
			return opts, err
		}
		opts.ServerURL = null.StringFrom(url)
	}
	if flags.Changed("service") {
		service, err := flags.GetString("service")
		if err != nil {
			return opts, err
		}
		opts.ServiceType = null.StringFrom(service)
	}
	if flags.Changed("requests") {
		requests, err := flags.GetInt64("requests")
		if err != nil {
			return opts, err
		}
		opts.TotalRequests = null.IntFrom(requests)
	}
	if flags.Changed("concurrency") {
		levels, err := flags.GetIntSlice("concurrency")
		if err != nil {
			return opts, err
		}
		opts.ConcurrencyLevels = levels
	}
	if flags.Changed("timeout") {
		timeout, err := flags.GetInt64("timeout")
		if err != nil {
			return opts, err
		}
		opts.ToolTimeoutSec = null.IntFrom(timeout)
	}
	if flags.Changed("out-dir") {
		dir, err := flags.GetString("out-dir")
		if err != nil {
			return opts, err
		}
		opts.ResultsDir = null.StringFrom(dir)
	}
	return opts, nil
}

// optionFlagSet declares the flags shared by the subcommands that take a
// full benchmark configuration.
func optionFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.StringP("url", "u", "", "base URL of the map server under test")
	flags.String("service", lib.DefaultServiceType, "service type to test")
	flags.Int64P("requests", "n", lib.DefaultTotalRequests, "requests per individual test")
	flags.IntSlice("concurrency", lib.DefaultConcurrencyLevels, "comma-separated concurrency levels to sweep")
	flags.Int64("timeout", lib.DefaultToolTimeoutSec, "per-test load tool timeout in seconds")
	flags.String("out-dir", lib.DefaultResultsDir, "directory for result artifacts")
	return flags
}

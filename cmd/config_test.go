package cmd

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/gsh-benchmarker/lib"
)

func newTestRootCommand(fs afero.Fs, configPath string) *rootCommand {
	return &rootCommand{fs: fs, configFilePath: configPath}
}

func TestConsolidateOptionsDefaults(t *testing.T) {
	c := newTestRootCommand(afero.NewMemMapFs(), "")

	opts, err := c.consolidateOptions(lib.Options{})
	require.NoError(t, err)

	assert.False(t, opts.ServerURL.Valid)
	assert.Equal(t, lib.DefaultServiceType, opts.ServiceType.String)
	assert.EqualValues(t, lib.DefaultTotalRequests, opts.TotalRequests.Int64)
	assert.Equal(t, lib.DefaultConcurrencyLevels, opts.ConcurrencyLevels)
	assert.EqualValues(t, lib.DefaultToolTimeoutSec, opts.ToolTimeoutSec.Int64)
	assert.Equal(t, lib.DefaultResultsDir, opts.ResultsDir.String)
}

func TestConsolidateOptionsConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte(`
serverUrl: https://maps.example.com/geoserver
totalRequests: 2000
concurrencyLevels: [5, 50]
`), 0o644))

	c := newTestRootCommand(fs, "config.yaml")
	opts, err := c.consolidateOptions(lib.Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://maps.example.com/geoserver", opts.ServerURL.String)
	assert.EqualValues(t, 2000, opts.TotalRequests.Int64)
	assert.Equal(t, []int{5, 50}, opts.ConcurrencyLevels)
	// Untouched fields keep their defaults.
	assert.EqualValues(t, lib.DefaultToolTimeoutSec, opts.ToolTimeoutSec.Int64)
}

func TestConsolidateOptionsJSONConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.json",
		[]byte(`{"serverUrl": "https://maps.example.com/geoserver", "resultsDir": "out"}`), 0o644))

	c := newTestRootCommand(fs, "config.json")
	opts, err := c.consolidateOptions(lib.Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://maps.example.com/geoserver", opts.ServerURL.String)
	assert.Equal(t, "out", opts.ResultsDir.String)
}

func TestConsolidateOptionsMissingConfigFile(t *testing.T) {
	c := newTestRootCommand(afero.NewMemMapFs(), "nope.yaml")
	_, err := c.consolidateOptions(lib.Options{})
	require.Error(t, err)
}

func TestConsolidateOptionsEnvOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte("totalRequests: 2000\n"), 0o644))
	t.Setenv("GSH_TOTAL_REQUESTS", "1234")
	t.Setenv("GSH_SERVER_URL", "https://env.example.com/geoserver")
	t.Setenv("GSH_CONCURRENCY_LEVELS", "1,2,3")

	c := newTestRootCommand(fs, "config.yaml")
	opts, err := c.consolidateOptions(lib.Options{})
	require.NoError(t, err)

	assert.EqualValues(t, 1234, opts.TotalRequests.Int64)
	assert.Equal(t, "https://env.example.com/geoserver", opts.ServerURL.String)
	assert.Equal(t, []int{1, 2, 3}, opts.ConcurrencyLevels)
}

func TestConsolidateOptionsFlagsWinOverEnv(t *testing.T) {
	t.Setenv("GSH_TOTAL_REQUESTS", "1234")

	flags := optionFlagSet()
	require.NoError(t, flags.Parse([]string{"--requests", "99", "--concurrency", "7,70"}))
	flagOpts, err := flagOptions(flags)
	require.NoError(t, err)

	c := newTestRootCommand(afero.NewMemMapFs(), "")
	opts, err := c.consolidateOptions(flagOpts)
	require.NoError(t, err)

	assert.EqualValues(t, 99, opts.TotalRequests.Int64)
	assert.Equal(t, []int{7, 70}, opts.ConcurrencyLevels)
}

func TestFlagOptionsOnlyPicksUpChangedFlags(t *testing.T) {
	flags := optionFlagSet()
	require.NoError(t, flags.Parse([]string{"--url", "https://flags.example.com"}))

	opts, err := flagOptions(flags)
	require.NoError(t, err)

	assert.Equal(t, "https://flags.example.com", opts.ServerURL.String)
	// Unchanged flags must not register as set, or they'd clobber the
	// config file and environment despite holding only default values.
	assert.False(t, opts.TotalRequests.Valid)
	assert.Nil(t, opts.ConcurrencyLevels)
	assert.False(t, opts.ResultsDir.Valid)
}

func TestConsolidateOptionsRejectsInvalidValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte("totalRequests: 0\n"), 0o644))

	c := newTestRootCommand(fs, "config.yaml")
	_, err := c.consolidateOptions(lib.Options{})
	require.Error(t, err)
}

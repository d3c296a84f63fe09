package lib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	null "gopkg.in/guregu/null.v3"
)

func TestFormatSessionTimestamp(t *testing.T) {
	t.Parallel()
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589*int(time.Millisecond), time.UTC)
	assert.Equal(t, "20250314_092653_589", FormatSessionTimestamp(ts))
}

func TestFormatSessionTimestampSubSecondUniqueness(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	a := FormatSessionTimestamp(base)
	b := FormatSessionTimestamp(base.Add(time.Millisecond))
	assert.NotEqual(t, a, b)
}

func TestTestID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "CAS:roads_c100_20250314_092653_589",
		TestID("CAS:roads", 100, "20250314_092653_589"))
}

func TestSuccessRate(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 96.0, SuccessRate(1000, 40), 1e-9)
	assert.InDelta(t, 100.0, SuccessRate(500, 0), 1e-9)
	assert.Zero(t, SuccessRate(0, 0))
}

func TestOptionsApply(t *testing.T) {
	t.Parallel()
	base := DefaultOptions()
	merged := base.Apply(Options{
		ServerURL:         null.StringFrom("https://maps.example.org/geoserver"),
		TotalRequests:     null.IntFrom(1000),
		ConcurrencyLevels: []int{1, 10},
	})

	assert.Equal(t, "https://maps.example.org/geoserver", merged.ServerURL.String)
	assert.Equal(t, int64(1000), merged.TotalRequests.Int64)
	assert.Equal(t, []int{1, 10}, merged.ConcurrencyLevels)
	// untouched fields keep their defaults
	assert.Equal(t, int64(DefaultToolTimeoutSec), merged.ToolTimeoutSec.Int64)
	assert.Equal(t, DefaultResultsDir, merged.ResultsDir.String)
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultOptions().Validate())
	require.NoError(t, Options{}.Validate())

	err := Options{TotalRequests: null.IntFrom(0)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total requests")

	err = Options{ToolTimeoutSec: null.IntFrom(-5)}.Validate()
	require.Error(t, err)
}

package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/storage"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Duration = 1.0
	cfg.Deterministic = true
	cfg.Capacity = 10_000
	return cfg
}

func TestRunCoversDuration(t *testing.T) {
	res, err := New(testConfig(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Driver.Failed())
	assert.InDelta(t, 1.0, res.Driver.Time(), 1e-6)
	assert.Equal(t, 60, res.Frames)
	assert.Less(t, res.Drift.Value(), 1e-6)
	assert.Equal(t, res.Driver.Steps(), res.Steps.Accepted)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.FPS = 0

	_, err := New(cfg, nil).Run(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(testConfig(), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Frames)
}

func TestRecordRoundTripsThroughStore(t *testing.T) {
	cfg := testConfig()
	exp := New(cfg, nil)
	res, err := exp.Run(context.Background())
	require.NoError(t, err)

	st := storage.New(t.TempDir())
	id, err := st.Save(exp.Record(res))
	require.NoError(t, err)

	meta, err := st.Load(id)
	require.NoError(t, err)
	assert.Equal(t, res.Driver.Steps(), meta.Steps)
	assert.Equal(t, "default", meta.Preset)
	assert.Contains(t, meta.Metrics, "energy_drift")

	table, err := st.LoadHistory(id)
	require.NoError(t, err)
	assert.Equal(t, res.Driver.History().Theta1(), table.Theta1())
}

func TestCompare(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = 2.0

	cmp, err := Compare(context.Background(), cfg, 0.01, 0.5)
	require.NoError(t, err)

	require.Len(t, cmp.Adaptive, 4)
	require.Len(t, cmp.Fixed, 4)
	last := len(cmp.Fixed) - 1
	assert.Less(t, cmp.Adaptive[last].V, cmp.Fixed[last].V)
	assert.Greater(t, cmp.Evals, 0)
	assert.Equal(t, 800, cmp.FixedEvals)
}

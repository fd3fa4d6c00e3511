package profile_test

import (
	"testing"

	"github.com/malphas-lang/fble/internal/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNullSinkIsNoOp(t *testing.T) {
	var s profile.Sink = profile.NullSink{}
	s.Block(profile.BlockEnter, "f")
	s.Sample()
}

func TestPrometheusSinkCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := profile.NewPrometheusSink(reg)
	s.Block(profile.BlockEnter, "f")
	s.Block(profile.BlockExit, "f")
	s.Sample()

	metrics, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metrics {
		if mf.GetName() == "fble_interp_samples_total" {
			found = true
			require.Len(t, mf.Metric, 1)
			require.Equal(t, float64(1), mf.Metric[0].GetCounter().GetValue())
		}
	}
	require.True(t, found, "expected fble_interp_samples_total to be registered")
}

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerObservesOperation(t *testing.T) {
	before := testutil.CollectAndCount(OperationDuration)
	NewTimer("metrics_test").ObserveDuration()
	assert.Equal(t, before+1, testutil.CollectAndCount(OperationDuration))
}

func TestCountersAccumulate(t *testing.T) {
	c := RecordsRead.WithLabelValues("metrics_test.struct")
	start := testutil.ToFloat64(c)
	c.Add(3)
	assert.Equal(t, start+3, testutil.ToFloat64(c))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "tabula_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(2)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tabula_test_total 2")
}

package metric_test

import (
	"casal/src-server/metric"
	"casal/src-server/utils"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func gaugeValue(t *testing.T, name string) (float64, bool) {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		metrics := family.GetMetric()
		if len(metrics) == 0 {
			return 0, false
		}
		return metrics[0].GetGauge().GetValue(), true
	}
	return 0, false
}

func waitForGauge(t *testing.T, name string, want float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := gaugeValue(t, name); ok && got == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	got, ok := gaugeValue(t, name)
	t.Fatalf("gauge %s stuck at %v (registered: %v), wanted %v", name, got, ok, want)
}

func TestGaugesDrainMetricChannels(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.invalid")
	as := utils.NewAppState()
	metric.Init(as)
	defer as.GracefulShutdown()

	// overfill the buffered announce channel; the consumer must keep
	// draining instead of letting samples pile up and drop forever
	for i := 0; i < 20; i++ {
		as.MetricChans.Announce(100 * time.Microsecond)
	}
	waitForGauge(t, "casal_discord_announce_microsec", 100)

	as.MetricChans.Announce(250 * time.Microsecond)
	waitForGauge(t, "casal_discord_announce_microsec", 250)

	as.MetricChans.Read(40 * time.Microsecond)
	waitForGauge(t, "casal_gateway_read_microsec", 40)

	as.MetricChans.Write(75 * time.Microsecond)
	waitForGauge(t, "casal_gateway_write_microsec", 75)
}

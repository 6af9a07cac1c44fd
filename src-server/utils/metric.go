package utils

import "time"

type MetricChans struct {
	GatewayRead     chan float64
	GatewayWrite    chan float64
	DiscordAnnounce chan float64
}

func NewMetricChans() *MetricChans {
	return &MetricChans{
		GatewayRead:     make(chan float64, 8),
		GatewayWrite:    make(chan float64, 8),
		DiscordAnnounce: make(chan float64, 8),
	}
}

// Read records a gateway read latency. Drops the sample when nobody is
// draining the channel; metrics must never block a fetch.
func (m *MetricChans) Read(elapsed time.Duration) {
	if m == nil {
		return
	}
	select {
	case m.GatewayRead <- float64(elapsed.Microseconds()):
	default:
	}
}

func (m *MetricChans) Write(elapsed time.Duration) {
	if m == nil {
		return
	}
	select {
	case m.GatewayWrite <- float64(elapsed.Microseconds()):
	default:
	}
}

func (m *MetricChans) Announce(elapsed time.Duration) {
	if m == nil {
		return
	}
	select {
	case m.DiscordAnnounce <- float64(elapsed.Microseconds()):
	default:
	}
}

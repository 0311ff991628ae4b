package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/mission"
)

// metrics exposes mission counters and drone gauges on the Prometheus
// registry served at /metrics.
type metrics struct {
	registerer prometheus.Registerer

	scansTotal  prometheus.Counter
	spraysTotal *prometheus.CounterVec
	sprayLiters *prometheus.CounterVec
}

func newMetrics(registerer prometheus.Registerer) *metrics {
	m := metrics{
		registerer: registerer,
		scansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agridrone_scans_total",
			Help: "Zone scans performed.",
		}),
		spraysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agridrone_sprays_total",
			Help: "Executed spray actions by type.",
		}, []string{"action"}),
		sprayLiters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agridrone_spray_liters_total",
			Help: "Liters sprayed by action type.",
		}, []string{"action"}),
	}

	registerer.MustRegister(m.scansTotal, m.spraysTotal, m.sprayLiters)
	return &m
}

// observeStatus registers gauges backed by live status snapshots.
func (m *metrics) observeStatus(status func() mission.MissionStatus) {
	m.registerer.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "agridrone_battery_level",
			Help: "Battery level in percent.",
		}, func() float64 { return status().BatteryLevel }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "agridrone_spray_level",
			Help: "Spray tank level in liters.",
		}, func() float64 { return status().SprayLevel }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "agridrone_mission_active",
			Help: "Whether a mission is currently active.",
		}, func() float64 {
			if status().MissionActive {
				return 1
			}
			return 0
		}),
	)
}

// instrument wraps a sink so record appends also bump the counters.
func (m *metrics) instrument(sink mission.RecordSink) mission.RecordSink {
	return &instrumentedSink{inner: sink, metrics: m}
}

type instrumentedSink struct {
	inner   mission.RecordSink
	metrics *metrics
}

func (s *instrumentedSink) AppendScan(ctx context.Context, rec mission.ScanRecord) error {
	s.metrics.scansTotal.Inc()
	return s.inner.AppendScan(ctx, rec)
}

func (s *instrumentedSink) AppendSpray(ctx context.Context, rec mission.SprayRecord) error {
	s.metrics.spraysTotal.WithLabelValues(string(rec.Action)).Inc()
	s.metrics.sprayLiters.WithLabelValues(string(rec.Action)).Add(rec.Quantity)
	return s.inner.AppendSpray(ctx, rec)
}

func (s *instrumentedSink) AppendFlightLog(ctx context.Context, entries []drone.LogEntry) error {
	return s.inner.AppendFlightLog(ctx, entries)
}

func (s *instrumentedSink) StoreSummary(ctx context.Context, sum *mission.Summary) error {
	return s.inner.StoreSummary(ctx, sum)
}

package web

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/wwvb-sensor/internal/wwvb"
)

// Metrics publishes decoder state to Prometheus. A nil *Metrics is
// valid and discards all observations, so the run loop needs no guard
// when the HTTP server is disabled.
type Metrics struct {
	samplesTotal  prometheus.Counter
	symbolsTotal  *prometheus.CounterVec
	attemptsTotal prometheus.Counter
	minutesTotal  prometheus.Counter
	healthPercent prometheus.Gauge
	healthy       prometheus.Gauge
	startOfSecond prometheus.Gauge
	lastMinute    prometheus.Gauge
	mqttConnected prometheus.Gauge
	steerPPM      prometheus.Gauge
}

// NewMetrics creates and registers the metric set on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		samplesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wwvb_samples_total",
			Help: "Carrier samples consumed",
		}),
		symbolsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wwvb_symbols_total",
			Help: "Symbols classified, by value (0, 1, M, ?)",
		}, []string{"value"}),
		attemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wwvb_frame_attempts_total",
			Help: "Minute frame decodes attempted at a mark symbol",
		}),
		minutesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wwvb_minutes_total",
			Help: "Minute frames decoded cleanly",
		}),
		healthPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_health_percent",
			Help: "Share of the recent signal matching a symbol shape",
		}),
		healthy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_healthy",
			Help: "Whether the signal currently meets the health threshold (1=yes)",
		}),
		startOfSecond: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_start_of_second_ticks",
			Help: "Tick offset where the broadcast second begins",
		}),
		lastMinute: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_last_minute_timestamp_seconds",
			Help: "Unix time when the last minute frame was decoded",
		}),
		mqttConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_mqtt_connected",
			Help: "Whether the MQTT broker connection is up (1=yes)",
		}),
		steerPPM: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wwvb_steer_ppm",
			Help: "Clock steering correction in parts per million",
		}),
	}
}

// registerLiveGauge exposes the websocket client count read off the hub.
func registerLiveGauge(reg prometheus.Registerer, hub *LiveHub) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "wwvb_live_clients",
		Help: "Connected live websocket clients",
	}, func() float64 {
		return float64(hub.Count())
	})
}

// ObserveSample counts one carrier sample.
func (m *Metrics) ObserveSample() {
	if m == nil {
		return
	}
	m.samplesTotal.Inc()
}

// ObserveSymbol records a symbol boundary and the signal state behind it.
func (m *Metrics) ObserveSymbol(sym wwvb.Symbol, healthPercent float64, healthy bool, sos int) {
	if m == nil {
		return
	}
	m.symbolsTotal.WithLabelValues(sym.String()).Inc()
	m.healthPercent.Set(healthPercent)
	if healthy {
		m.healthy.Set(1)
	} else {
		m.healthy.Set(0)
	}
	m.startOfSecond.Set(float64(sos))
}

// ObserveAttempt counts a frame decode attempt at a mark.
func (m *Metrics) ObserveAttempt() {
	if m == nil {
		return
	}
	m.attemptsTotal.Inc()
}

// ObserveMinute records a successful minute decode.
func (m *Metrics) ObserveMinute(at time.Time) {
	if m == nil {
		return
	}
	m.minutesTotal.Inc()
	m.lastMinute.Set(float64(at.Unix()))
}

// SetMQTTConnected records broker connectivity.
func (m *Metrics) SetMQTTConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.mqttConnected.Set(1)
	} else {
		m.mqttConnected.Set(0)
	}
}

// SetSteerPPM records the current steering correction.
func (m *Metrics) SetSteerPPM(ppm float64) {
	if m == nil {
		return
	}
	m.steerPPM.Set(ppm)
}

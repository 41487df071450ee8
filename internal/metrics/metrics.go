// Package metrics bundles the Prometheus instrumentation for the
// telemetry pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const metricPrefix = "solarbridge_"

// Label values for MessagesTotal.
const (
	ResultProcessed    = "processed"
	ResultParseError   = "parse_error"
	ResultRoutingError = "routing_error"
)

// Label values for CommandsTotal.
const (
	CommandPublished  = "published"
	CommandSuppressed = "suppressed"
	CommandRejected   = "rejected"
)

// Metrics bundles pipeline metrics.
type Metrics struct {
	MessagesTotal          *prometheus.CounterVec
	UpdatesTotal           prometheus.Counter
	UnknownPropertiesTotal prometheus.Counter
	CommandsTotal          *prometheus.CounterVec
	HooksTotal             *prometheus.CounterVec
	DeviceConnectivity     *prometheus.GaugeVec
	PacksRegistered        prometheus.Counter
	HistoryWriteErrors     prometheus.Counter
}

// New constructs and registers metrics.
//
// Parameters:
//   - reg: Target registry, nil for the default registerer
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "messages_total",
				Help: "Total inbound MQTT messages by result",
			},
			[]string{"result"},
		),
		UpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "state_updates_total",
			Help: "Total canonical state updates applied",
		}),
		UnknownPropertiesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "unknown_properties_total",
			Help: "Total telemetry properties without a normalization rule",
		}),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_total",
				Help: "Total outbound commands by result",
			},
			[]string{"result"},
		),
		HooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "hooks_total",
				Help: "Total side-effect hooks dispatched by kind",
			},
			[]string{"kind"},
		),
		DeviceConnectivity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "device_connected",
				Help: "Device connectivity, 1 connected 0 disconnected",
			},
			[]string{"device_key"},
		),
		PacksRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "packs_registered_total",
			Help: "Total battery packs registered",
		}),
		HistoryWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "history_write_errors_total",
			Help: "Total failed telemetry history writes",
		}),
	}

	reg.MustRegister(
		m.MessagesTotal,
		m.UpdatesTotal,
		m.UnknownPropertiesTotal,
		m.CommandsTotal,
		m.HooksTotal,
		m.DeviceConnectivity,
		m.PacksRegistered,
		m.HistoryWriteErrors,
	)
	return m
}

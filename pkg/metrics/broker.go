// Package metrics exposes broker statistics as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aldrin-bus/aldrin/pkg/broker"
)

// BrokerMetrics record broker metrics.
type BrokerMetrics struct {
	Connections  prometheus.Gauge
	Objects      prometheus.Gauge
	Services     prometheus.Gauge
	Channels     prometheus.Gauge
	BusListeners prometheus.Gauge

	MessagesSent     prometheus.Counter
	MessagesReceived prometheus.Counter
	ItemsSent        prometheus.Counter
	EventsSent       prometheus.Counter
}

// NewBrokerMetrics constructs new BrokerMetrics.
func NewBrokerMetrics(service string) *BrokerMetrics {
	return &BrokerMetrics{
		Connections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: service + "_connections_total",
			Help: "The current number of connected clients",
		}),
		Objects: promauto.NewGauge(prometheus.GaugeOpts{
			Name: service + "_objects_total",
			Help: "The current number of live objects",
		}),
		Services: promauto.NewGauge(prometheus.GaugeOpts{
			Name: service + "_services_total",
			Help: "The current number of live services",
		}),
		Channels: promauto.NewGauge(prometheus.GaugeOpts{
			Name: service + "_channels_total",
			Help: "The current number of live channels",
		}),
		BusListeners: promauto.NewGauge(prometheus.GaugeOpts{
			Name: service + "_bus_listeners_total",
			Help: "The current number of bus listeners",
		}),
		MessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: service + "_messages_sent_total",
			Help: "The total number of messages sent to clients",
		}),
		MessagesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: service + "_messages_received_total",
			Help: "The total number of messages received from clients",
		}),
		ItemsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: service + "_items_sent_total",
			Help: "The total number of channel items routed",
		}),
		EventsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: service + "_events_sent_total",
			Help: "The total number of events fanned out",
		}),
	}
}

// Report feeds one statistics sample into the collectors. Samples must come
// from consecutive TakeStatistics calls, so the window counters are disjoint.
func (m *BrokerMetrics) Report(s Statistics) {
	m.Connections.Set(float64(s.NumConnections))
	m.Objects.Set(float64(s.NumObjects))
	m.Services.Set(float64(s.NumServices))
	m.Channels.Set(float64(s.NumChannels))
	m.BusListeners.Set(float64(s.NumBusListeners))

	m.MessagesSent.Add(float64(s.MessagesSent))
	m.MessagesReceived.Add(float64(s.MessagesReceived))
	m.ItemsSent.Add(float64(s.ItemsSent))
	m.EventsSent.Add(float64(s.EventsSent))
}

// Statistics aliases the broker's statistics sample.
type Statistics = broker.Statistics

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the assistant daemon
type Metrics struct {
	// Session metrics
	SessionsStarted prometheus.Counter
	SessionFailures prometheus.Counter
	SessionStatus   *prometheus.GaugeVec

	// Capture metrics
	ChunksSent      prometheus.Counter
	ChunkSendErrors prometheus.Counter
	SendQueueDepth  prometheus.Gauge

	// Dispatcher metrics
	MessagesReceived prometheus.Counter
	ToolCalls        *prometheus.CounterVec
	TurnsFlushed     prometheus.Counter

	// Playback metrics
	BuffersScheduled prometheus.Counter
	Interruptions    prometheus.Counter
	DecodeErrors     prometheus.Counter

	// Search metrics
	Searches *prometheus.CounterVec
}

var statuses = []string{"DISCONNECTED", "CONNECTING", "CONNECTED", "ERROR"}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_sessions_started_total",
			Help: "Total number of live sessions that reached the connected state",
		}),
		SessionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_session_failures_total",
			Help: "Total number of handshake or link failures",
		}),
		SessionStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "brahmastra_session_status",
			Help: "1 for the current session status, 0 for the others",
		}, []string{"status"}),

		ChunksSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_capture_chunks_sent_total",
			Help: "Total number of microphone chunks sent to the live session",
		}),
		ChunkSendErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_capture_send_errors_total",
			Help: "Total number of microphone chunks the transport rejected",
		}),
		SendQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "brahmastra_capture_queue_depth",
			Help: "Microphone chunks waiting to be handed to the transport",
		}),

		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_messages_received_total",
			Help: "Total number of inbound live-session messages",
		}),
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brahmastra_tool_calls_total",
			Help: "Tool calls executed, by command",
		}, []string{"command"}),
		TurnsFlushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_turns_flushed_total",
			Help: "Total number of history entries written at turn completion",
		}),

		BuffersScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_playback_buffers_scheduled_total",
			Help: "Total number of audio buffers scheduled for playback",
		}),
		Interruptions: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_playback_interruptions_total",
			Help: "Total number of interruption signals handled",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "brahmastra_playback_decode_errors_total",
			Help: "Total number of inbound audio payloads that failed to decode",
		}),

		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brahmastra_scripture_searches_total",
			Help: "Scripture searches, by outcome",
		}, []string{"outcome"}),
	}
}

// SetStatus marks status as the only active session status.
func (m *Metrics) SetStatus(status string) {
	for _, s := range statuses {
		v := 0.0
		if s == status {
			v = 1
		}
		m.SessionStatus.WithLabelValues(s).Set(v)
	}
}

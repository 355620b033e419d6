package rabbitmq

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// PrometheusMetricsCollector exports connection and channel activity as
// Prometheus counters
type PrometheusMetricsCollector struct {
	connections *prometheus.CounterVec // event=opened|closed
	channels    *prometheus.CounterVec // event=opened|closed
	errors      *prometheus.CounterVec // scope=connection|channel, code
	frames      *prometheus.CounterVec // direction=in|out, type
	methods     *prometheus.CounterVec // method
	messages    *prometheus.CounterVec // event=published|delivered|acked|nacked|rejected
	bodyBytes   prometheus.Counter
}

// NewPrometheusMetricsCollector creates the collector's counters under
// namespace and registers them with reg
func NewPrometheusMetricsCollector(namespace string, reg prometheus.Registerer) (*PrometheusMetricsCollector, error) {
	m := &PrometheusMetricsCollector{
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Connections opened and closed.",
		}, []string{"event"}),
		channels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_total",
			Help:      "Channels opened and closed.",
		}, []string{"event"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Connection and channel failures by reply code.",
		}, []string{"scope", "code"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames sent and received by frame type.",
		}, []string{"direction", "type"}),
		methods: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "methods_received_total",
			Help:      "Methods received by name.",
		}, []string{"method"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages published, delivered and settled.",
		}, []string{"event"}),
		bodyBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivered_body_bytes_total",
			Help:      "Body bytes of assembled deliveries.",
		}),
	}

	var err error
	for _, c := range m.collectors() {
		err = multierr.Append(err, reg.Register(c))
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PrometheusMetricsCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.connections, m.channels, m.errors, m.frames, m.methods, m.messages, m.bodyBytes}
}

func (m *PrometheusMetricsCollector) ConnectionOpened() {
	m.connections.WithLabelValues("opened").Inc()
}

func (m *PrometheusMetricsCollector) ConnectionClosed() {
	m.connections.WithLabelValues("closed").Inc()
}

func (m *PrometheusMetricsCollector) ConnectionError(code int) {
	m.errors.WithLabelValues("connection", strconv.Itoa(code)).Inc()
}

func (m *PrometheusMetricsCollector) ChannelOpened() {
	m.channels.WithLabelValues("opened").Inc()
}

func (m *PrometheusMetricsCollector) ChannelClosed() {
	m.channels.WithLabelValues("closed").Inc()
}

func (m *PrometheusMetricsCollector) ChannelError(code int) {
	m.errors.WithLabelValues("channel", strconv.Itoa(code)).Inc()
}

func (m *PrometheusMetricsCollector) FrameSent(frameType uint8) {
	m.frames.WithLabelValues("out", frameTypeLabel(frameType)).Inc()
}

func (m *PrometheusMetricsCollector) FrameReceived(frameType uint8) {
	m.frames.WithLabelValues("in", frameTypeLabel(frameType)).Inc()
}

func (m *PrometheusMetricsCollector) MethodReceived(name string) {
	m.methods.WithLabelValues(name).Inc()
}

func (m *PrometheusMetricsCollector) MessagePublished() {
	m.messages.WithLabelValues("published").Inc()
}

func (m *PrometheusMetricsCollector) DeliveryAssembled(bodySize int) {
	m.messages.WithLabelValues("delivered").Inc()
	m.bodyBytes.Add(float64(bodySize))
}

func (m *PrometheusMetricsCollector) MessageAcked() {
	m.messages.WithLabelValues("acked").Inc()
}

func (m *PrometheusMetricsCollector) MessageNacked() {
	m.messages.WithLabelValues("nacked").Inc()
}

func (m *PrometheusMetricsCollector) MessageRejected() {
	m.messages.WithLabelValues("rejected").Inc()
}

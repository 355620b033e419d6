package rabbitmq

import (
	"sync"
	"sync/atomic"

	"github.com/israelio/rabbit-wire/frame"
)

// MetricsCollector collects metrics for connection and channel activity
type MetricsCollector interface {
	// Connection metrics
	ConnectionOpened()
	ConnectionClosed()
	ConnectionError(code int)

	// Channel metrics
	ChannelOpened()
	ChannelClosed()
	ChannelError(code int)

	// Frame metrics
	FrameSent(frameType uint8)
	FrameReceived(frameType uint8)
	MethodReceived(name string)

	// Message metrics
	MessagePublished()
	DeliveryAssembled(bodySize int)
	MessageAcked()
	MessageNacked()
	MessageRejected()
}

// StandardMetricsCollector provides a thread-safe metrics collector
type StandardMetricsCollector struct {
	connectionsOpened atomic.Int64
	connectionsClosed atomic.Int64
	connectionErrors  atomic.Int64

	channelsOpened atomic.Int64
	channelsClosed atomic.Int64
	channelErrors  atomic.Int64

	framesSent     [9]atomic.Int64 // indexed by frame type
	framesReceived [9]atomic.Int64

	messagesPublished  atomic.Int64
	deliveries         atomic.Int64
	deliveredBodyBytes atomic.Int64
	messagesAcked      atomic.Int64
	messagesNacked     atomic.Int64
	messagesRejected   atomic.Int64

	mu         sync.Mutex
	methods    map[string]int64
	errorCodes map[int]int64
}

// NewStandardMetricsCollector creates a new standard metrics collector
func NewStandardMetricsCollector() *StandardMetricsCollector {
	return &StandardMetricsCollector{
		methods:    make(map[string]int64),
		errorCodes: make(map[int]int64),
	}
}

// Connection metrics
func (m *StandardMetricsCollector) ConnectionOpened() {
	m.connectionsOpened.Add(1)
}

func (m *StandardMetricsCollector) ConnectionClosed() {
	m.connectionsClosed.Add(1)
}

func (m *StandardMetricsCollector) ConnectionError(code int) {
	m.connectionErrors.Add(1)
	m.countCode(code)
}

// Channel metrics
func (m *StandardMetricsCollector) ChannelOpened() {
	m.channelsOpened.Add(1)
}

func (m *StandardMetricsCollector) ChannelClosed() {
	m.channelsClosed.Add(1)
}

func (m *StandardMetricsCollector) ChannelError(code int) {
	m.channelErrors.Add(1)
	m.countCode(code)
}

// Frame metrics
func (m *StandardMetricsCollector) FrameSent(frameType uint8) {
	if int(frameType) < len(m.framesSent) {
		m.framesSent[frameType].Add(1)
	}
}

func (m *StandardMetricsCollector) FrameReceived(frameType uint8) {
	if int(frameType) < len(m.framesReceived) {
		m.framesReceived[frameType].Add(1)
	}
}

func (m *StandardMetricsCollector) MethodReceived(name string) {
	m.mu.Lock()
	m.methods[name]++
	m.mu.Unlock()
}

// Message metrics
func (m *StandardMetricsCollector) MessagePublished() {
	m.messagesPublished.Add(1)
}

func (m *StandardMetricsCollector) DeliveryAssembled(bodySize int) {
	m.deliveries.Add(1)
	m.deliveredBodyBytes.Add(int64(bodySize))
}

func (m *StandardMetricsCollector) MessageAcked() {
	m.messagesAcked.Add(1)
}

func (m *StandardMetricsCollector) MessageNacked() {
	m.messagesNacked.Add(1)
}

func (m *StandardMetricsCollector) MessageRejected() {
	m.messagesRejected.Add(1)
}

func (m *StandardMetricsCollector) countCode(code int) {
	m.mu.Lock()
	m.errorCodes[code]++
	m.mu.Unlock()
}

// Getters for metrics
func (m *StandardMetricsCollector) GetConnectionsOpened() int64 {
	return m.connectionsOpened.Load()
}

func (m *StandardMetricsCollector) GetConnectionsClosed() int64 {
	return m.connectionsClosed.Load()
}

func (m *StandardMetricsCollector) GetConnectionErrors() int64 {
	return m.connectionErrors.Load()
}

func (m *StandardMetricsCollector) GetChannelsOpened() int64 {
	return m.channelsOpened.Load()
}

func (m *StandardMetricsCollector) GetChannelsClosed() int64 {
	return m.channelsClosed.Load()
}

func (m *StandardMetricsCollector) GetChannelErrors() int64 {
	return m.channelErrors.Load()
}

func (m *StandardMetricsCollector) GetFramesSent(frameType uint8) int64 {
	if int(frameType) >= len(m.framesSent) {
		return 0
	}
	return m.framesSent[frameType].Load()
}

func (m *StandardMetricsCollector) GetFramesReceived(frameType uint8) int64 {
	if int(frameType) >= len(m.framesReceived) {
		return 0
	}
	return m.framesReceived[frameType].Load()
}

func (m *StandardMetricsCollector) GetMethodsReceived(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.methods[name]
}

func (m *StandardMetricsCollector) GetErrors(code int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorCodes[code]
}

func (m *StandardMetricsCollector) GetMessagesPublished() int64 {
	return m.messagesPublished.Load()
}

func (m *StandardMetricsCollector) GetDeliveries() int64 {
	return m.deliveries.Load()
}

func (m *StandardMetricsCollector) GetDeliveredBodyBytes() int64 {
	return m.deliveredBodyBytes.Load()
}

func (m *StandardMetricsCollector) GetMessagesAcked() int64 {
	return m.messagesAcked.Load()
}

func (m *StandardMetricsCollector) GetMessagesNacked() int64 {
	return m.messagesNacked.Load()
}

func (m *StandardMetricsCollector) GetMessagesRejected() int64 {
	return m.messagesRejected.Load()
}

// NoOpMetricsCollector is a metrics collector that does nothing
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) ConnectionOpened()          {}
func (n *NoOpMetricsCollector) ConnectionClosed()          {}
func (n *NoOpMetricsCollector) ConnectionError(code int)   {}
func (n *NoOpMetricsCollector) ChannelOpened()             {}
func (n *NoOpMetricsCollector) ChannelClosed()             {}
func (n *NoOpMetricsCollector) ChannelError(code int)      {}
func (n *NoOpMetricsCollector) FrameSent(frameType uint8)  {}
func (n *NoOpMetricsCollector) FrameReceived(t uint8)      {}
func (n *NoOpMetricsCollector) MethodReceived(name string) {}
func (n *NoOpMetricsCollector) MessagePublished()          {}
func (n *NoOpMetricsCollector) DeliveryAssembled(int)      {}
func (n *NoOpMetricsCollector) MessageAcked()              {}
func (n *NoOpMetricsCollector) MessageNacked()             {}
func (n *NoOpMetricsCollector) MessageRejected()           {}

// NewNoOpMetricsCollector creates a no-op metrics collector
func NewNoOpMetricsCollector() *NoOpMetricsCollector {
	return &NoOpMetricsCollector{}
}

// frameTypeLabel names a frame type for metric labels
func frameTypeLabel(t uint8) string {
	return frame.TypeName(t)
}

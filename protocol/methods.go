package protocol

// Method is a decoded or to-be-encoded AMQP method record.
//
// Fields binds each declared argument name to the storage backing it. The
// registry decides which arguments a protocol version carries and in what
// order; a record may bind names that a given version omits.
type Method interface {
	ID() (classID, methodID uint16)
	Fields() []Field
}

// Field binds an argument name to a pointer into a method record
type Field struct {
	Name string
	Ptr  any
}

// Value returns the value the field points at
func (f Field) Value() any {
	return deref(f.Ptr)
}

// IsZero reports whether the field holds its zero value. A zero content
// property is absent on the wire.
func (f Field) IsZero() bool {
	return isZero(deref(f.Ptr))
}

// Connection class

type ConnectionStart struct {
	VersionMajor     uint8
	VersionMinor     uint8
	ServerProperties Table
	Mechanisms       string
	Locales          string
}

func (*ConnectionStart) ID() (uint16, uint16) { return ClassConnection, MethodConnectionStart }
func (m *ConnectionStart) Fields() []Field {
	return []Field{
		{"version-major", &m.VersionMajor},
		{"version-minor", &m.VersionMinor},
		{"server-properties", &m.ServerProperties},
		{"mechanisms", &m.Mechanisms},
		{"locales", &m.Locales},
	}
}

type ConnectionStartOk struct {
	ClientProperties Table
	Mechanism        string
	Response         string
	Locale           string
}

func (*ConnectionStartOk) ID() (uint16, uint16) { return ClassConnection, MethodConnectionStartOk }
func (m *ConnectionStartOk) Fields() []Field {
	return []Field{
		{"client-properties", &m.ClientProperties},
		{"mechanism", &m.Mechanism},
		{"response", &m.Response},
		{"locale", &m.Locale},
	}
}

type ConnectionSecure struct {
	Challenge string
}

func (*ConnectionSecure) ID() (uint16, uint16) { return ClassConnection, MethodConnectionSecure }
func (m *ConnectionSecure) Fields() []Field {
	return []Field{{"challenge", &m.Challenge}}
}

type ConnectionSecureOk struct {
	Response string
}

func (*ConnectionSecureOk) ID() (uint16, uint16) { return ClassConnection, MethodConnectionSecureOk }
func (m *ConnectionSecureOk) Fields() []Field {
	return []Field{{"response", &m.Response}}
}

type ConnectionTune struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (*ConnectionTune) ID() (uint16, uint16) { return ClassConnection, MethodConnectionTune }
func (m *ConnectionTune) Fields() []Field {
	return []Field{
		{"channel-max", &m.ChannelMax},
		{"frame-max", &m.FrameMax},
		{"heartbeat", &m.Heartbeat},
	}
}

type ConnectionTuneOk struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (*ConnectionTuneOk) ID() (uint16, uint16) { return ClassConnection, MethodConnectionTuneOk }
func (m *ConnectionTuneOk) Fields() []Field {
	return []Field{
		{"channel-max", &m.ChannelMax},
		{"frame-max", &m.FrameMax},
		{"heartbeat", &m.Heartbeat},
	}
}

type ConnectionOpen struct {
	VirtualHost  string
	Capabilities string // reserved
	Insist       bool   // reserved
}

func (*ConnectionOpen) ID() (uint16, uint16) { return ClassConnection, MethodConnectionOpen }
func (m *ConnectionOpen) Fields() []Field {
	return []Field{
		{"virtual-host", &m.VirtualHost},
		{"capabilities", &m.Capabilities},
		{"insist", &m.Insist},
	}
}

type ConnectionOpenOk struct {
	KnownHosts string // reserved
}

func (*ConnectionOpenOk) ID() (uint16, uint16) { return ClassConnection, MethodConnectionOpenOk }
func (m *ConnectionOpenOk) Fields() []Field {
	return []Field{{"known-hosts", &m.KnownHosts}}
}

// ConnectionRedirect exists in 0-8 only
type ConnectionRedirect struct {
	Host       string
	KnownHosts string
}

func (*ConnectionRedirect) ID() (uint16, uint16) { return ClassConnection, MethodConnectionRedirect }
func (m *ConnectionRedirect) Fields() []Field {
	return []Field{
		{"host", &m.Host},
		{"known-hosts", &m.KnownHosts},
	}
}

type ConnectionClose struct {
	ReplyCode uint16
	ReplyText string
	ClassID   uint16
	MethodID  uint16
}

func (*ConnectionClose) ID() (uint16, uint16) { return ClassConnection, MethodConnectionClose }
func (m *ConnectionClose) Fields() []Field {
	return []Field{
		{"reply-code", &m.ReplyCode},
		{"reply-text", &m.ReplyText},
		{"class-id", &m.ClassID},
		{"method-id", &m.MethodID},
	}
}

type ConnectionCloseOk struct{}

func (*ConnectionCloseOk) ID() (uint16, uint16) { return ClassConnection, MethodConnectionCloseOk }
func (*ConnectionCloseOk) Fields() []Field      { return nil }

type ConnectionBlocked struct {
	Reason string
}

func (*ConnectionBlocked) ID() (uint16, uint16) { return ClassConnection, MethodConnectionBlocked }
func (m *ConnectionBlocked) Fields() []Field {
	return []Field{{"reason", &m.Reason}}
}

type ConnectionUnblocked struct{}

func (*ConnectionUnblocked) ID() (uint16, uint16) { return ClassConnection, MethodConnectionUnblocked }
func (*ConnectionUnblocked) Fields() []Field      { return nil }

type ConnectionUpdateSecret struct {
	NewSecret string
	Reason    string
}

func (*ConnectionUpdateSecret) ID() (uint16, uint16) {
	return ClassConnection, MethodConnectionUpdateSecret
}
func (m *ConnectionUpdateSecret) Fields() []Field {
	return []Field{
		{"new-secret", &m.NewSecret},
		{"reason", &m.Reason},
	}
}

type ConnectionUpdateSecretOk struct{}

func (*ConnectionUpdateSecretOk) ID() (uint16, uint16) {
	return ClassConnection, MethodConnectionUpdateSecretOk
}
func (*ConnectionUpdateSecretOk) Fields() []Field { return nil }

// Channel class

type ChannelOpen struct {
	OutOfBand string // reserved
}

func (*ChannelOpen) ID() (uint16, uint16) { return ClassChannel, MethodChannelOpen }
func (m *ChannelOpen) Fields() []Field {
	return []Field{{"out-of-band", &m.OutOfBand}}
}

type ChannelOpenOk struct {
	ChannelID string // reserved, absent in 0-8
}

func (*ChannelOpenOk) ID() (uint16, uint16) { return ClassChannel, MethodChannelOpenOk }
func (m *ChannelOpenOk) Fields() []Field {
	return []Field{{"channel-id", &m.ChannelID}}
}

type ChannelFlow struct {
	Active bool
}

func (*ChannelFlow) ID() (uint16, uint16) { return ClassChannel, MethodChannelFlow }
func (m *ChannelFlow) Fields() []Field {
	return []Field{{"active", &m.Active}}
}

type ChannelFlowOk struct {
	Active bool
}

func (*ChannelFlowOk) ID() (uint16, uint16) { return ClassChannel, MethodChannelFlowOk }
func (m *ChannelFlowOk) Fields() []Field {
	return []Field{{"active", &m.Active}}
}

// ChannelAlert exists in 0-8 only
type ChannelAlert struct {
	ReplyCode uint16
	ReplyText string
	Details   Table
}

func (*ChannelAlert) ID() (uint16, uint16) { return ClassChannel, MethodChannelAlert }
func (m *ChannelAlert) Fields() []Field {
	return []Field{
		{"reply-code", &m.ReplyCode},
		{"reply-text", &m.ReplyText},
		{"details", &m.Details},
	}
}

type ChannelClose struct {
	ReplyCode uint16
	ReplyText string
	ClassID   uint16
	MethodID  uint16
}

func (*ChannelClose) ID() (uint16, uint16) { return ClassChannel, MethodChannelClose }
func (m *ChannelClose) Fields() []Field {
	return []Field{
		{"reply-code", &m.ReplyCode},
		{"reply-text", &m.ReplyText},
		{"class-id", &m.ClassID},
		{"method-id", &m.MethodID},
	}
}

type ChannelCloseOk struct{}

func (*ChannelCloseOk) ID() (uint16, uint16) { return ClassChannel, MethodChannelCloseOk }
func (*ChannelCloseOk) Fields() []Field      { return nil }

// Access class (0-8 only)

type AccessRequest struct {
	Realm     string
	Exclusive bool
	Passive   bool
	Active    bool
	Write     bool
	Read      bool
}

func (*AccessRequest) ID() (uint16, uint16) { return ClassAccess, MethodAccessRequest }
func (m *AccessRequest) Fields() []Field {
	return []Field{
		{"realm", &m.Realm},
		{"exclusive", &m.Exclusive},
		{"passive", &m.Passive},
		{"active", &m.Active},
		{"write", &m.Write},
		{"read", &m.Read},
	}
}

type AccessRequestOk struct {
	Ticket uint16
}

func (*AccessRequestOk) ID() (uint16, uint16) { return ClassAccess, MethodAccessRequestOk }
func (m *AccessRequestOk) Fields() []Field {
	return []Field{{"ticket", &m.Ticket}}
}

// Exchange class

type ExchangeDeclare struct {
	Ticket     uint16 // reserved
	Exchange   string
	Type       string
	Passive    bool
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  Table
}

func (*ExchangeDeclare) ID() (uint16, uint16) { return ClassExchange, MethodExchangeDeclare }
func (m *ExchangeDeclare) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"exchange", &m.Exchange},
		{"type", &m.Type},
		{"passive", &m.Passive},
		{"durable", &m.Durable},
		{"auto-delete", &m.AutoDelete},
		{"internal", &m.Internal},
		{"no-wait", &m.NoWait},
		{"arguments", &m.Arguments},
	}
}

type ExchangeDeclareOk struct{}

func (*ExchangeDeclareOk) ID() (uint16, uint16) { return ClassExchange, MethodExchangeDeclareOk }
func (*ExchangeDeclareOk) Fields() []Field      { return nil }

type ExchangeDelete struct {
	Ticket   uint16 // reserved
	Exchange string
	IfUnused bool
	NoWait   bool
}

func (*ExchangeDelete) ID() (uint16, uint16) { return ClassExchange, MethodExchangeDelete }
func (m *ExchangeDelete) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"exchange", &m.Exchange},
		{"if-unused", &m.IfUnused},
		{"no-wait", &m.NoWait},
	}
}

type ExchangeDeleteOk struct{}

func (*ExchangeDeleteOk) ID() (uint16, uint16) { return ClassExchange, MethodExchangeDeleteOk }
func (*ExchangeDeleteOk) Fields() []Field      { return nil }

type ExchangeBind struct {
	Ticket      uint16 // reserved
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (*ExchangeBind) ID() (uint16, uint16) { return ClassExchange, MethodExchangeBind }
func (m *ExchangeBind) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"destination", &m.Destination},
		{"source", &m.Source},
		{"routing-key", &m.RoutingKey},
		{"no-wait", &m.NoWait},
		{"arguments", &m.Arguments},
	}
}

type ExchangeBindOk struct{}

func (*ExchangeBindOk) ID() (uint16, uint16) { return ClassExchange, MethodExchangeBindOk }
func (*ExchangeBindOk) Fields() []Field      { return nil }

type ExchangeUnbind struct {
	Ticket      uint16 // reserved
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (*ExchangeUnbind) ID() (uint16, uint16) { return ClassExchange, MethodExchangeUnbind }
func (m *ExchangeUnbind) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"destination", &m.Destination},
		{"source", &m.Source},
		{"routing-key", &m.RoutingKey},
		{"no-wait", &m.NoWait},
		{"arguments", &m.Arguments},
	}
}

type ExchangeUnbindOk struct{}

func (*ExchangeUnbindOk) ID() (uint16, uint16) { return ClassExchange, MethodExchangeUnbindOk }
func (*ExchangeUnbindOk) Fields() []Field      { return nil }

// Queue class

type QueueDeclare struct {
	Ticket     uint16 // reserved
	Queue      string
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  Table
}

func (*QueueDeclare) ID() (uint16, uint16) { return ClassQueue, MethodQueueDeclare }
func (m *QueueDeclare) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"queue", &m.Queue},
		{"passive", &m.Passive},
		{"durable", &m.Durable},
		{"exclusive", &m.Exclusive},
		{"auto-delete", &m.AutoDelete},
		{"no-wait", &m.NoWait},
		{"arguments", &m.Arguments},
	}
}

type QueueDeclareOk struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

func (*QueueDeclareOk) ID() (uint16, uint16) { return ClassQueue, MethodQueueDeclareOk }
func (m *QueueDeclareOk) Fields() []Field {
	return []Field{
		{"queue", &m.Queue},
		{"message-count", &m.MessageCount},
		{"consumer-count", &m.ConsumerCount},
	}
}

type QueueBind struct {
	Ticket     uint16 // reserved
	Queue      string
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  Table
}

func (*QueueBind) ID() (uint16, uint16) { return ClassQueue, MethodQueueBind }
func (m *QueueBind) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"queue", &m.Queue},
		{"exchange", &m.Exchange},
		{"routing-key", &m.RoutingKey},
		{"no-wait", &m.NoWait},
		{"arguments", &m.Arguments},
	}
}

type QueueBindOk struct{}

func (*QueueBindOk) ID() (uint16, uint16) { return ClassQueue, MethodQueueBindOk }
func (*QueueBindOk) Fields() []Field      { return nil }

type QueuePurge struct {
	Ticket uint16 // reserved
	Queue  string
	NoWait bool
}

func (*QueuePurge) ID() (uint16, uint16) { return ClassQueue, MethodQueuePurge }
func (m *QueuePurge) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"queue", &m.Queue},
		{"no-wait", &m.NoWait},
	}
}

type QueuePurgeOk struct {
	MessageCount uint32
}

func (*QueuePurgeOk) ID() (uint16, uint16) { return ClassQueue, MethodQueuePurgeOk }
func (m *QueuePurgeOk) Fields() []Field {
	return []Field{{"message-count", &m.MessageCount}}
}

type QueueDelete struct {
	Ticket   uint16 // reserved
	Queue    string
	IfUnused bool
	IfEmpty  bool
	NoWait   bool
}

func (*QueueDelete) ID() (uint16, uint16) { return ClassQueue, MethodQueueDelete }
func (m *QueueDelete) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"queue", &m.Queue},
		{"if-unused", &m.IfUnused},
		{"if-empty", &m.IfEmpty},
		{"no-wait", &m.NoWait},
	}
}

type QueueDeleteOk struct {
	MessageCount uint32
}

func (*QueueDeleteOk) ID() (uint16, uint16) { return ClassQueue, MethodQueueDeleteOk }
func (m *QueueDeleteOk) Fields() []Field {
	return []Field{{"message-count", &m.MessageCount}}
}

type QueueUnbind struct {
	Ticket     uint16 // reserved
	Queue      string
	Exchange   string
	RoutingKey string
	Arguments  Table
}

func (*QueueUnbind) ID() (uint16, uint16) { return ClassQueue, MethodQueueUnbind }
func (m *QueueUnbind) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"queue", &m.Queue},
		{"exchange", &m.Exchange},
		{"routing-key", &m.RoutingKey},
		{"arguments", &m.Arguments},
	}
}

type QueueUnbindOk struct{}

func (*QueueUnbindOk) ID() (uint16, uint16) { return ClassQueue, MethodQueueUnbindOk }
func (*QueueUnbindOk) Fields() []Field      { return nil }

// Basic class

type BasicQos struct {
	PrefetchSize  uint32
	PrefetchCount uint16
	Global        bool
}

func (*BasicQos) ID() (uint16, uint16) { return ClassBasic, MethodBasicQos }
func (m *BasicQos) Fields() []Field {
	return []Field{
		{"prefetch-size", &m.PrefetchSize},
		{"prefetch-count", &m.PrefetchCount},
		{"global", &m.Global},
	}
}

type BasicQosOk struct{}

func (*BasicQosOk) ID() (uint16, uint16) { return ClassBasic, MethodBasicQosOk }
func (*BasicQosOk) Fields() []Field      { return nil }

type BasicConsume struct {
	Ticket      uint16 // reserved
	Queue       string
	ConsumerTag string
	NoLocal     bool
	NoAck       bool
	Exclusive   bool
	NoWait      bool
	Arguments   Table
}

func (*BasicConsume) ID() (uint16, uint16) { return ClassBasic, MethodBasicConsume }
func (m *BasicConsume) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"queue", &m.Queue},
		{"consumer-tag", &m.ConsumerTag},
		{"no-local", &m.NoLocal},
		{"no-ack", &m.NoAck},
		{"exclusive", &m.Exclusive},
		{"no-wait", &m.NoWait},
		{"arguments", &m.Arguments},
	}
}

type BasicConsumeOk struct {
	ConsumerTag string
}

func (*BasicConsumeOk) ID() (uint16, uint16) { return ClassBasic, MethodBasicConsumeOk }
func (m *BasicConsumeOk) Fields() []Field {
	return []Field{{"consumer-tag", &m.ConsumerTag}}
}

type BasicCancel struct {
	ConsumerTag string
	NoWait      bool
}

func (*BasicCancel) ID() (uint16, uint16) { return ClassBasic, MethodBasicCancel }
func (m *BasicCancel) Fields() []Field {
	return []Field{
		{"consumer-tag", &m.ConsumerTag},
		{"no-wait", &m.NoWait},
	}
}

type BasicCancelOk struct {
	ConsumerTag string
}

func (*BasicCancelOk) ID() (uint16, uint16) { return ClassBasic, MethodBasicCancelOk }
func (m *BasicCancelOk) Fields() []Field {
	return []Field{{"consumer-tag", &m.ConsumerTag}}
}

type BasicPublish struct {
	Ticket     uint16 // reserved
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

func (*BasicPublish) ID() (uint16, uint16) { return ClassBasic, MethodBasicPublish }
func (m *BasicPublish) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"exchange", &m.Exchange},
		{"routing-key", &m.RoutingKey},
		{"mandatory", &m.Mandatory},
		{"immediate", &m.Immediate},
	}
}

type BasicReturn struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func (*BasicReturn) ID() (uint16, uint16) { return ClassBasic, MethodBasicReturn }
func (m *BasicReturn) Fields() []Field {
	return []Field{
		{"reply-code", &m.ReplyCode},
		{"reply-text", &m.ReplyText},
		{"exchange", &m.Exchange},
		{"routing-key", &m.RoutingKey},
	}
}

type BasicDeliver struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

func (*BasicDeliver) ID() (uint16, uint16) { return ClassBasic, MethodBasicDeliver }
func (m *BasicDeliver) Fields() []Field {
	return []Field{
		{"consumer-tag", &m.ConsumerTag},
		{"delivery-tag", &m.DeliveryTag},
		{"redelivered", &m.Redelivered},
		{"exchange", &m.Exchange},
		{"routing-key", &m.RoutingKey},
	}
}

type BasicGet struct {
	Ticket uint16 // reserved
	Queue  string
	NoAck  bool
}

func (*BasicGet) ID() (uint16, uint16) { return ClassBasic, MethodBasicGet }
func (m *BasicGet) Fields() []Field {
	return []Field{
		{"ticket", &m.Ticket},
		{"queue", &m.Queue},
		{"no-ack", &m.NoAck},
	}
}

type BasicGetOk struct {
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32
}

func (*BasicGetOk) ID() (uint16, uint16) { return ClassBasic, MethodBasicGetOk }
func (m *BasicGetOk) Fields() []Field {
	return []Field{
		{"delivery-tag", &m.DeliveryTag},
		{"redelivered", &m.Redelivered},
		{"exchange", &m.Exchange},
		{"routing-key", &m.RoutingKey},
		{"message-count", &m.MessageCount},
	}
}

type BasicGetEmpty struct {
	ClusterID string // reserved
}

func (*BasicGetEmpty) ID() (uint16, uint16) { return ClassBasic, MethodBasicGetEmpty }
func (m *BasicGetEmpty) Fields() []Field {
	return []Field{{"cluster-id", &m.ClusterID}}
}

type BasicAck struct {
	DeliveryTag uint64
	Multiple    bool
}

func (*BasicAck) ID() (uint16, uint16) { return ClassBasic, MethodBasicAck }
func (m *BasicAck) Fields() []Field {
	return []Field{
		{"delivery-tag", &m.DeliveryTag},
		{"multiple", &m.Multiple},
	}
}

type BasicReject struct {
	DeliveryTag uint64
	Requeue     bool
}

func (*BasicReject) ID() (uint16, uint16) { return ClassBasic, MethodBasicReject }
func (m *BasicReject) Fields() []Field {
	return []Field{
		{"delivery-tag", &m.DeliveryTag},
		{"requeue", &m.Requeue},
	}
}

// BasicRecoverAsync is basic.recover in 0-8
type BasicRecoverAsync struct {
	Requeue bool
}

func (*BasicRecoverAsync) ID() (uint16, uint16) { return ClassBasic, MethodBasicRecoverAsync }
func (m *BasicRecoverAsync) Fields() []Field {
	return []Field{{"requeue", &m.Requeue}}
}

type BasicRecover struct {
	Requeue bool
}

func (*BasicRecover) ID() (uint16, uint16) { return ClassBasic, MethodBasicRecover }
func (m *BasicRecover) Fields() []Field {
	return []Field{{"requeue", &m.Requeue}}
}

type BasicRecoverOk struct{}

func (*BasicRecoverOk) ID() (uint16, uint16) { return ClassBasic, MethodBasicRecoverOk }
func (*BasicRecoverOk) Fields() []Field      { return nil }

type BasicNack struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (*BasicNack) ID() (uint16, uint16) { return ClassBasic, MethodBasicNack }
func (m *BasicNack) Fields() []Field {
	return []Field{
		{"delivery-tag", &m.DeliveryTag},
		{"multiple", &m.Multiple},
		{"requeue", &m.Requeue},
	}
}

// Confirm class

type ConfirmSelect struct {
	NoWait bool
}

func (*ConfirmSelect) ID() (uint16, uint16) { return ClassConfirm, MethodConfirmSelect }
func (m *ConfirmSelect) Fields() []Field {
	return []Field{{"nowait", &m.NoWait}}
}

type ConfirmSelectOk struct{}

func (*ConfirmSelectOk) ID() (uint16, uint16) { return ClassConfirm, MethodConfirmSelectOk }
func (*ConfirmSelectOk) Fields() []Field      { return nil }

// Tx class

type TxSelect struct{}

func (*TxSelect) ID() (uint16, uint16) { return ClassTx, MethodTxSelect }
func (*TxSelect) Fields() []Field      { return nil }

type TxSelectOk struct{}

func (*TxSelectOk) ID() (uint16, uint16) { return ClassTx, MethodTxSelectOk }
func (*TxSelectOk) Fields() []Field      { return nil }

type TxCommit struct{}

func (*TxCommit) ID() (uint16, uint16) { return ClassTx, MethodTxCommit }
func (*TxCommit) Fields() []Field      { return nil }

type TxCommitOk struct{}

func (*TxCommitOk) ID() (uint16, uint16) { return ClassTx, MethodTxCommitOk }
func (*TxCommitOk) Fields() []Field      { return nil }

type TxRollback struct{}

func (*TxRollback) ID() (uint16, uint16) { return ClassTx, MethodTxRollback }
func (*TxRollback) Fields() []Field      { return nil }

type TxRollbackOk struct{}

func (*TxRollbackOk) ID() (uint16, uint16) { return ClassTx, MethodTxRollbackOk }
func (*TxRollbackOk) Fields() []Field      { return nil }

package protocol

// AMQP091 is the registry for AMQP 0-9-1 with the RabbitMQ extensions
// (exchange-to-exchange bindings, basic.nack, publisher confirms,
// connection.blocked and connection.update-secret).
var AMQP091 = newRegistry("0-9-1", [8]byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}, 0, 9,
	[]ClassSpec{
		{ID: ClassConnection, Name: "connection"},
		{ID: ClassChannel, Name: "channel"},
		{ID: ClassExchange, Name: "exchange"},
		{ID: ClassQueue, Name: "queue"},
		{ID: ClassBasic, Name: "basic", Properties: basicProperties},
		{ID: ClassConfirm, Name: "confirm"},
		{ID: ClassTx, Name: "tx"},
	},
	[]MethodSpec{
		connectionStart, connectionStartOk,
		connectionSecure, connectionSecureOk,
		connectionTune, connectionTuneOk,
		connectionOpen, connectionOpenOk,
		connectionClose, connectionCloseOk,
		connectionBlocked, connectionUnblocked,
		connectionUpdateSecret, connectionUpdateSecretOk,

		channelOpen, channelOpenOk,
		channelFlow, channelFlowOk,
		channelClose, channelCloseOk,

		exchangeDeclare, exchangeDeclareOk,
		exchangeDelete, exchangeDeleteOk,
		exchangeBind, exchangeBindOk,
		exchangeUnbind, exchangeUnbindOk,

		queueDeclare, queueDeclareOk,
		queueBind, queueBindOk,
		queuePurge, queuePurgeOk,
		queueDelete, queueDeleteOk,
		queueUnbind, queueUnbindOk,

		basicQos, basicQosOk,
		basicConsume, basicConsumeOk,
		basicCancel, basicCancelOk,
		basicPublish, basicReturn, basicDeliver,
		basicGet, basicGetOk, basicGetEmpty,
		basicAck, basicReject,
		basicRecoverAsync, basicRecover, basicRecoverOk,
		basicNack,

		confirmSelect, confirmSelectOk,

		txSelect, txSelectOk,
		txCommit, txCommitOk,
		txRollback, txRollbackOk,
	},
)

var basicProperties = []Arg{
	arg("content-type", ShortStr),
	arg("content-encoding", ShortStr),
	arg("headers", TableType),
	arg("delivery-mode", Octet),
	arg("priority", Octet),
	arg("correlation-id", ShortStr),
	arg("reply-to", ShortStr),
	arg("expiration", ShortStr),
	arg("message-id", ShortStr),
	arg("timestamp", Timestamp),
	arg("type", ShortStr),
	arg("user-id", ShortStr),
	arg("app-id", ShortStr),
	reserved("cluster-id", ShortStr),
}

func arg(name string, t FieldType) Arg {
	return Arg{Name: name, Type: t}
}

func reserved(name string, t FieldType) Arg {
	return Arg{Name: name, Type: t, Reserved: true}
}

func method(name string, ctor func() Method, args ...Arg) MethodSpec {
	classID, methodID := ctor().ID()
	return MethodSpec{ClassID: classID, MethodID: methodID, Name: name, Args: args, new: ctor}
}

// expects marks the method synchronous, answered by one of replies
func (s MethodSpec) expects(replies ...uint16) MethodSpec {
	s.Sync = true
	s.Replies = replies
	return s
}

func (s MethodSpec) withContent() MethodSpec {
	s.Content = true
	return s
}

var (
	connectionStart = method("connection.start", func() Method { return &ConnectionStart{} },
		arg("version-major", Octet),
		arg("version-minor", Octet),
		arg("server-properties", TableType),
		arg("mechanisms", LongStr),
		arg("locales", LongStr),
	).expects(MethodConnectionStartOk)
	connectionStartOk = method("connection.start-ok", func() Method { return &ConnectionStartOk{} },
		arg("client-properties", TableType),
		arg("mechanism", ShortStr),
		arg("response", LongStr),
		arg("locale", ShortStr),
	)
	connectionSecure = method("connection.secure", func() Method { return &ConnectionSecure{} },
		arg("challenge", LongStr),
	).expects(MethodConnectionSecureOk)
	connectionSecureOk = method("connection.secure-ok", func() Method { return &ConnectionSecureOk{} },
		arg("response", LongStr),
	)
	connectionTune = method("connection.tune", func() Method { return &ConnectionTune{} },
		arg("channel-max", Short),
		arg("frame-max", Long),
		arg("heartbeat", Short),
	).expects(MethodConnectionTuneOk)
	connectionTuneOk = method("connection.tune-ok", func() Method { return &ConnectionTuneOk{} },
		arg("channel-max", Short),
		arg("frame-max", Long),
		arg("heartbeat", Short),
	)
	connectionOpen = method("connection.open", func() Method { return &ConnectionOpen{} },
		arg("virtual-host", ShortStr),
		reserved("capabilities", ShortStr),
		reserved("insist", Bit),
	).expects(MethodConnectionOpenOk)
	connectionOpenOk = method("connection.open-ok", func() Method { return &ConnectionOpenOk{} },
		reserved("known-hosts", ShortStr),
	)
	connectionClose = method("connection.close", func() Method { return &ConnectionClose{} },
		arg("reply-code", Short),
		arg("reply-text", ShortStr),
		arg("class-id", Short),
		arg("method-id", Short),
	).expects(MethodConnectionCloseOk)
	connectionCloseOk = method("connection.close-ok", func() Method { return &ConnectionCloseOk{} })
	connectionBlocked = method("connection.blocked", func() Method { return &ConnectionBlocked{} },
		arg("reason", ShortStr),
	)
	connectionUnblocked    = method("connection.unblocked", func() Method { return &ConnectionUnblocked{} })
	connectionUpdateSecret = method("connection.update-secret", func() Method { return &ConnectionUpdateSecret{} },
		arg("new-secret", LongStr),
		arg("reason", ShortStr),
	).expects(MethodConnectionUpdateSecretOk)
	connectionUpdateSecretOk = method("connection.update-secret-ok", func() Method { return &ConnectionUpdateSecretOk{} })
)

var (
	channelOpen = method("channel.open", func() Method { return &ChannelOpen{} },
		reserved("out-of-band", ShortStr),
	).expects(MethodChannelOpenOk)
	channelOpenOk = method("channel.open-ok", func() Method { return &ChannelOpenOk{} },
		reserved("channel-id", LongStr),
	)
	channelFlow = method("channel.flow", func() Method { return &ChannelFlow{} },
		arg("active", Bit),
	).expects(MethodChannelFlowOk)
	channelFlowOk = method("channel.flow-ok", func() Method { return &ChannelFlowOk{} },
		arg("active", Bit),
	)
	channelClose = method("channel.close", func() Method { return &ChannelClose{} },
		arg("reply-code", Short),
		arg("reply-text", ShortStr),
		arg("class-id", Short),
		arg("method-id", Short),
	).expects(MethodChannelCloseOk)
	channelCloseOk = method("channel.close-ok", func() Method { return &ChannelCloseOk{} })
)

var (
	exchangeDeclare = method("exchange.declare", func() Method { return &ExchangeDeclare{} },
		reserved("ticket", Short),
		arg("exchange", ShortStr),
		arg("type", ShortStr),
		arg("passive", Bit),
		arg("durable", Bit),
		arg("auto-delete", Bit),
		arg("internal", Bit),
		arg("no-wait", Bit),
		arg("arguments", TableType),
	).expects(MethodExchangeDeclareOk)
	exchangeDeclareOk = method("exchange.declare-ok", func() Method { return &ExchangeDeclareOk{} })
	exchangeDelete    = method("exchange.delete", func() Method { return &ExchangeDelete{} },
		reserved("ticket", Short),
		arg("exchange", ShortStr),
		arg("if-unused", Bit),
		arg("no-wait", Bit),
	).expects(MethodExchangeDeleteOk)
	exchangeDeleteOk = method("exchange.delete-ok", func() Method { return &ExchangeDeleteOk{} })
	exchangeBind     = method("exchange.bind", func() Method { return &ExchangeBind{} },
		reserved("ticket", Short),
		arg("destination", ShortStr),
		arg("source", ShortStr),
		arg("routing-key", ShortStr),
		arg("no-wait", Bit),
		arg("arguments", TableType),
	).expects(MethodExchangeBindOk)
	exchangeBindOk = method("exchange.bind-ok", func() Method { return &ExchangeBindOk{} })
	exchangeUnbind = method("exchange.unbind", func() Method { return &ExchangeUnbind{} },
		reserved("ticket", Short),
		arg("destination", ShortStr),
		arg("source", ShortStr),
		arg("routing-key", ShortStr),
		arg("no-wait", Bit),
		arg("arguments", TableType),
	).expects(MethodExchangeUnbindOk)
	exchangeUnbindOk = method("exchange.unbind-ok", func() Method { return &ExchangeUnbindOk{} })
)

var (
	queueDeclare = method("queue.declare", func() Method { return &QueueDeclare{} },
		reserved("ticket", Short),
		arg("queue", ShortStr),
		arg("passive", Bit),
		arg("durable", Bit),
		arg("exclusive", Bit),
		arg("auto-delete", Bit),
		arg("no-wait", Bit),
		arg("arguments", TableType),
	).expects(MethodQueueDeclareOk)
	queueDeclareOk = method("queue.declare-ok", func() Method { return &QueueDeclareOk{} },
		arg("queue", ShortStr),
		arg("message-count", Long),
		arg("consumer-count", Long),
	)
	queueBind = method("queue.bind", func() Method { return &QueueBind{} },
		reserved("ticket", Short),
		arg("queue", ShortStr),
		arg("exchange", ShortStr),
		arg("routing-key", ShortStr),
		arg("no-wait", Bit),
		arg("arguments", TableType),
	).expects(MethodQueueBindOk)
	queueBindOk = method("queue.bind-ok", func() Method { return &QueueBindOk{} })
	queuePurge  = method("queue.purge", func() Method { return &QueuePurge{} },
		reserved("ticket", Short),
		arg("queue", ShortStr),
		arg("no-wait", Bit),
	).expects(MethodQueuePurgeOk)
	queuePurgeOk = method("queue.purge-ok", func() Method { return &QueuePurgeOk{} },
		arg("message-count", Long),
	)
	queueDelete = method("queue.delete", func() Method { return &QueueDelete{} },
		reserved("ticket", Short),
		arg("queue", ShortStr),
		arg("if-unused", Bit),
		arg("if-empty", Bit),
		arg("no-wait", Bit),
	).expects(MethodQueueDeleteOk)
	queueDeleteOk = method("queue.delete-ok", func() Method { return &QueueDeleteOk{} },
		arg("message-count", Long),
	)
	queueUnbind = method("queue.unbind", func() Method { return &QueueUnbind{} },
		reserved("ticket", Short),
		arg("queue", ShortStr),
		arg("exchange", ShortStr),
		arg("routing-key", ShortStr),
		arg("arguments", TableType),
	).expects(MethodQueueUnbindOk)
	queueUnbindOk = method("queue.unbind-ok", func() Method { return &QueueUnbindOk{} })
)

var (
	basicQos = method("basic.qos", func() Method { return &BasicQos{} },
		arg("prefetch-size", Long),
		arg("prefetch-count", Short),
		arg("global", Bit),
	).expects(MethodBasicQosOk)
	basicQosOk   = method("basic.qos-ok", func() Method { return &BasicQosOk{} })
	basicConsume = method("basic.consume", func() Method { return &BasicConsume{} },
		reserved("ticket", Short),
		arg("queue", ShortStr),
		arg("consumer-tag", ShortStr),
		arg("no-local", Bit),
		arg("no-ack", Bit),
		arg("exclusive", Bit),
		arg("no-wait", Bit),
		arg("arguments", TableType),
	).expects(MethodBasicConsumeOk)
	basicConsumeOk = method("basic.consume-ok", func() Method { return &BasicConsumeOk{} },
		arg("consumer-tag", ShortStr),
	)
	basicCancel = method("basic.cancel", func() Method { return &BasicCancel{} },
		arg("consumer-tag", ShortStr),
		arg("no-wait", Bit),
	).expects(MethodBasicCancelOk)
	basicCancelOk = method("basic.cancel-ok", func() Method { return &BasicCancelOk{} },
		arg("consumer-tag", ShortStr),
	)
	basicPublish = method("basic.publish", func() Method { return &BasicPublish{} },
		reserved("ticket", Short),
		arg("exchange", ShortStr),
		arg("routing-key", ShortStr),
		arg("mandatory", Bit),
		arg("immediate", Bit),
	).withContent()
	basicReturn = method("basic.return", func() Method { return &BasicReturn{} },
		arg("reply-code", Short),
		arg("reply-text", ShortStr),
		arg("exchange", ShortStr),
		arg("routing-key", ShortStr),
	).withContent()
	basicDeliver = method("basic.deliver", func() Method { return &BasicDeliver{} },
		arg("consumer-tag", ShortStr),
		arg("delivery-tag", LongLong),
		arg("redelivered", Bit),
		arg("exchange", ShortStr),
		arg("routing-key", ShortStr),
	).withContent()
	basicGet = method("basic.get", func() Method { return &BasicGet{} },
		reserved("ticket", Short),
		arg("queue", ShortStr),
		arg("no-ack", Bit),
	).expects(MethodBasicGetOk, MethodBasicGetEmpty)
	basicGetOk = method("basic.get-ok", func() Method { return &BasicGetOk{} },
		arg("delivery-tag", LongLong),
		arg("redelivered", Bit),
		arg("exchange", ShortStr),
		arg("routing-key", ShortStr),
		arg("message-count", Long),
	).withContent()
	basicGetEmpty = method("basic.get-empty", func() Method { return &BasicGetEmpty{} },
		reserved("cluster-id", ShortStr),
	)
	basicAck = method("basic.ack", func() Method { return &BasicAck{} },
		arg("delivery-tag", LongLong),
		arg("multiple", Bit),
	)
	basicReject = method("basic.reject", func() Method { return &BasicReject{} },
		arg("delivery-tag", LongLong),
		arg("requeue", Bit),
	)
	basicRecoverAsync = method("basic.recover-async", func() Method { return &BasicRecoverAsync{} },
		arg("requeue", Bit),
	)
	basicRecover = method("basic.recover", func() Method { return &BasicRecover{} },
		arg("requeue", Bit),
	).expects(MethodBasicRecoverOk)
	basicRecoverOk = method("basic.recover-ok", func() Method { return &BasicRecoverOk{} })
	basicNack      = method("basic.nack", func() Method { return &BasicNack{} },
		arg("delivery-tag", LongLong),
		arg("multiple", Bit),
		arg("requeue", Bit),
	)
)

var (
	confirmSelect = method("confirm.select", func() Method { return &ConfirmSelect{} },
		arg("nowait", Bit),
	).expects(MethodConfirmSelectOk)
	confirmSelectOk = method("confirm.select-ok", func() Method { return &ConfirmSelectOk{} })
)

var (
	txSelect     = method("tx.select", func() Method { return &TxSelect{} }).expects(MethodTxSelectOk)
	txSelectOk   = method("tx.select-ok", func() Method { return &TxSelectOk{} })
	txCommit     = method("tx.commit", func() Method { return &TxCommit{} }).expects(MethodTxCommitOk)
	txCommitOk   = method("tx.commit-ok", func() Method { return &TxCommitOk{} })
	txRollback   = method("tx.rollback", func() Method { return &TxRollback{} }).expects(MethodTxRollbackOk)
	txRollbackOk = method("tx.rollback-ok", func() Method { return &TxRollbackOk{} })
)

package protocol

// AMQP08 is the registry for AMQP 0-8 as spoken by RabbitMQ
var AMQP08 = newRegistry("0-8", [8]byte{'A', 'M', 'Q', 'P', 1, 1, 8, 0}, 8, 0,
	[]ClassSpec{
		{ID: ClassConnection, Name: "connection"},
		{ID: ClassChannel, Name: "channel"},
		{ID: ClassAccess, Name: "access"},
		{ID: ClassExchange, Name: "exchange"},
		{ID: ClassQueue, Name: "queue"},
		{ID: ClassBasic, Name: "basic", Properties: basicProperties},
		{ID: ClassTx, Name: "tx"},
	},
	[]MethodSpec{
		connectionStart, connectionStartOk,
		connectionSecure, connectionSecureOk,
		connectionTune, connectionTuneOk,
		connectionOpen.expects(MethodConnectionOpenOk, MethodConnectionRedirect),
		connectionOpenOk,
		connectionRedirect,
		connectionClose, connectionCloseOk,

		channelOpen,
		method("channel.open-ok", func() Method { return &ChannelOpenOk{} }),
		channelFlow, channelFlowOk,
		channelAlert,
		channelClose, channelCloseOk,

		accessRequest, accessRequestOk,

		exchangeDeclare, exchangeDeclareOk,
		exchangeDelete, exchangeDeleteOk,

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
		method("basic.recover", func() Method { return &BasicRecoverAsync{} },
			arg("requeue", Bit),
		),

		txSelect, txSelectOk,
		txCommit, txCommitOk,
		txRollback, txRollbackOk,
	},
)

var (
	connectionRedirect = method("connection.redirect", func() Method { return &ConnectionRedirect{} },
		arg("host", ShortStr),
		arg("known-hosts", ShortStr),
	)
	channelAlert = method("channel.alert", func() Method { return &ChannelAlert{} },
		arg("reply-code", Short),
		arg("reply-text", ShortStr),
		arg("details", TableType),
	)
	accessRequest = method("access.request", func() Method { return &AccessRequest{} },
		arg("realm", ShortStr),
		arg("exclusive", Bit),
		arg("passive", Bit),
		arg("active", Bit),
		arg("write", Bit),
		arg("read", Bit),
	).expects(MethodAccessRequestOk)
	accessRequestOk = method("access.request-ok", func() Method { return &AccessRequestOk{} },
		arg("ticket", Short),
	)
)

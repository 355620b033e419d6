package rabbitmq

import (
	"strings"

	"github.com/israelio/rabbit-wire/protocol"
)

// Authenticator is a SASL mechanism offered in connection.start-ok
type Authenticator interface {
	Mechanism() string
	Response() string
}

// PlainAuth is the PLAIN mechanism
type PlainAuth struct {
	Username string
	Password string
}

func (a *PlainAuth) Mechanism() string { return "PLAIN" }

func (a *PlainAuth) Response() string {
	return "\x00" + a.Username + "\x00" + a.Password
}

// AMQPlainAuth is the legacy AMQPLAIN mechanism: a field table body holding
// LOGIN and PASSWORD without its length prefix.
type AMQPlainAuth struct {
	Username string
	Password string
}

func (a *AMQPlainAuth) Mechanism() string { return "AMQPLAIN" }

func (a *AMQPlainAuth) Response() string {
	buf := protocol.NewBuffer(nil)
	// two string entries cannot fail to encode
	_ = buf.WriteTable(protocol.Table{"LOGIN": a.Username, "PASSWORD": a.Password})
	return string(buf.Bytes()[4:])
}

// ExternalAuth is the EXTERNAL mechanism, relying on the transport (usually
// a TLS client certificate) for identity
type ExternalAuth struct{}

func (a *ExternalAuth) Mechanism() string { return "EXTERNAL" }

func (a *ExternalAuth) Response() string { return "" }

// mechanismByName builds the authenticator named by a URI or environment
// setting
func mechanismByName(name, username, password string) (Authenticator, bool) {
	switch strings.ToUpper(name) {
	case "PLAIN":
		return &PlainAuth{Username: username, Password: password}, true
	case "AMQPLAIN":
		return &AMQPlainAuth{Username: username, Password: password}, true
	case "EXTERNAL":
		return &ExternalAuth{}, true
	default:
		return nil, false
	}
}

// pickMechanism returns the first configured mechanism the broker offers
func pickMechanism(configured []Authenticator, offered string) (Authenticator, bool) {
	fields := strings.Fields(offered)
	for _, a := range configured {
		for _, name := range fields {
			if name == a.Mechanism() {
				return a, true
			}
		}
	}
	return nil, false
}

// pickLocale returns want if the broker offers it, otherwise the broker's
// first locale
func pickLocale(want, offered string) string {
	fields := strings.Fields(offered)
	for _, l := range fields {
		if l == want {
			return l
		}
	}
	if len(fields) > 0 {
		return fields[0]
	}
	return want
}

package rabbitmq

import (
	"crypto/tls"
	"time"

	"github.com/go-logr/logr"

	"github.com/israelio/rabbit-wire/protocol"
)

// Option is a functional option for Config
type Option func(*Config)

// WithHost sets the host to connect to
func WithHost(host string) Option {
	return func(c *Config) {
		c.Host = host
	}
}

// WithPort sets the port to connect to
func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithCredentials sets the username and password
func WithCredentials(username, password string) Option {
	return func(c *Config) {
		c.Username = username
		c.Password = password
	}
}

// WithVHost sets the virtual host
func WithVHost(vhost string) Option {
	return func(c *Config) {
		c.VHost = vhost
	}
}

// WithProtocol selects the protocol version, Protocol091 or Protocol08
func WithProtocol(version string) Option {
	return func(c *Config) {
		c.Protocol = version
	}
}

// WithLocale sets the preferred locale
func WithLocale(locale string) Option {
	return func(c *Config) {
		c.Locale = locale
	}
}

// WithMechanisms sets the SASL mechanisms to offer, in order of preference
func WithMechanisms(mechanisms ...Authenticator) Option {
	return func(c *Config) {
		c.Mechanisms = mechanisms
	}
}

// WithTLS enables TLS with the given configuration
func WithTLS(config *tls.Config) Option {
	return func(c *Config) {
		c.TLS = config
	}
}

// WithConnectionTimeout sets the connection timeout
func WithConnectionTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ConnectionTimeout = timeout
	}
}

// WithHandshakeTimeout sets the handshake timeout
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HandshakeTimeout = timeout
	}
}

// WithHeartbeat sets the heartbeat interval
func WithHeartbeat(interval time.Duration) Option {
	return func(c *Config) {
		c.Heartbeat = interval
	}
}

// WithChannelMax sets the maximum number of channels
func WithChannelMax(max uint16) Option {
	return func(c *Config) {
		c.ChannelMax = max
	}
}

// WithFrameMax sets the maximum frame size
func WithFrameMax(max uint32) Option {
	return func(c *Config) {
		c.FrameMax = max
	}
}

// WithConnectionName sets the name the broker shows for the connection
func WithConnectionName(name string) Option {
	return func(c *Config) {
		c.ConnectionName = name
	}
}

// WithClientProperties sets custom client properties
func WithClientProperties(properties protocol.Table) Option {
	return func(c *Config) {
		if c.ClientProperties == nil {
			c.ClientProperties = make(protocol.Table)
		}
		for k, v := range properties {
			c.ClientProperties[k] = v
		}
	}
}

// WithClientProperty sets a single client property
func WithClientProperty(key string, value any) Option {
	return func(c *Config) {
		if c.ClientProperties == nil {
			c.ClientProperties = make(protocol.Table)
		}
		c.ClientProperties[key] = value
	}
}

// WithLogger sets the logger
func WithLogger(logger logr.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics MetricsCollector) Option {
	return func(c *Config) {
		c.Metrics = metrics
	}
}

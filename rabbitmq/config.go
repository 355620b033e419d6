package rabbitmq

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/kelseyhightower/envconfig"

	"github.com/israelio/rabbit-wire/protocol"
)

// Version is the client version reported in client properties
const Version = "1.0.0"

// Protocol versions accepted by Config.Protocol
const (
	Protocol091 = "0-9-1"
	Protocol08  = "0-8"
)

// Config holds the settings of one connection. It is passed by value to
// NewConnection or Dial; nothing in the package keeps global settings.
type Config struct {
	// Connection settings
	Host     string
	Port     int
	VHost    string
	Username string
	Password string

	// Protocol selects the wire version, Protocol091 or Protocol08
	Protocol string
	Locale   string

	// Mechanisms are offered in order; empty means PLAIN with Username and
	// Password
	Mechanisms []Authenticator

	// TLS configuration
	TLS *tls.Config

	// Timeouts
	ConnectionTimeout time.Duration
	HandshakeTimeout  time.Duration

	// AMQP parameters; 0 lets the broker decide
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  time.Duration

	// ConnectionName is reported to the broker as connection_name
	ConnectionName string

	// Client properties sent to server, merged over the defaults
	ClientProperties protocol.Table

	Logger  logr.Logger
	Metrics MetricsCollector
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:              "localhost",
		Port:              5672,
		VHost:             "/",
		Username:          "guest",
		Password:          "guest",
		Protocol:          Protocol091,
		Locale:            "en_US",
		ConnectionTimeout: 60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		Heartbeat:         10 * time.Second,
		ChannelMax:        0, // 0 = no limit (server decides)
		FrameMax:          0, // 0 = no limit (server decides)
		Logger:            logr.Discard(),
	}
}

// NewConfig returns DefaultConfig with opts applied
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// envSettings is the environment view of Config
type envSettings struct {
	URI               string        `envconfig:"URI"`
	Host              string        `envconfig:"HOST"`
	Port              int           `envconfig:"PORT"`
	VHost             string        `envconfig:"VHOST"`
	Username          string        `envconfig:"USERNAME"`
	Password          string        `envconfig:"PASSWORD"`
	Protocol          string        `envconfig:"PROTOCOL"`
	Locale            string        `envconfig:"LOCALE"`
	AuthMechanism     string        `envconfig:"AUTH_MECHANISM"`
	ConnectionTimeout time.Duration `envconfig:"CONNECTION_TIMEOUT"`
	HandshakeTimeout  time.Duration `envconfig:"HANDSHAKE_TIMEOUT"`
	ChannelMax        uint16        `envconfig:"CHANNEL_MAX"`
	FrameMax          uint32        `envconfig:"FRAME_MAX"`
	Heartbeat         time.Duration `envconfig:"HEARTBEAT"`
	ConnectionName    string        `envconfig:"CONNECTION_NAME"`
}

// ConfigFromEnv reads a Config from environment variables named
// PREFIX_HOST, PREFIX_PORT, ... over DefaultConfig. PREFIX_URI, when set,
// replaces the connection settings it carries.
func ConfigFromEnv(prefix string) (Config, error) {
	cfg := DefaultConfig()
	s := envSettings{
		Host:              cfg.Host,
		Port:              cfg.Port,
		VHost:             cfg.VHost,
		Username:          cfg.Username,
		Password:          cfg.Password,
		Protocol:          cfg.Protocol,
		Locale:            cfg.Locale,
		ConnectionTimeout: cfg.ConnectionTimeout,
		HandshakeTimeout:  cfg.HandshakeTimeout,
		Heartbeat:         cfg.Heartbeat,
	}
	if err := envconfig.Process(prefix, &s); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if s.URI != "" {
		parsed, err := ParseURI(s.URI)
		if err != nil {
			return Config{}, err
		}
		parsed.Protocol = s.Protocol
		parsed.HandshakeTimeout = s.HandshakeTimeout
		parsed.ConnectionName = s.ConnectionName
		return parsed, nil
	}

	cfg.Host = s.Host
	cfg.Port = s.Port
	cfg.VHost = s.VHost
	cfg.Username = s.Username
	cfg.Password = s.Password
	cfg.Protocol = s.Protocol
	cfg.Locale = s.Locale
	cfg.ConnectionTimeout = s.ConnectionTimeout
	cfg.HandshakeTimeout = s.HandshakeTimeout
	cfg.ChannelMax = s.ChannelMax
	cfg.FrameMax = s.FrameMax
	cfg.Heartbeat = s.Heartbeat
	cfg.ConnectionName = s.ConnectionName
	if s.AuthMechanism != "" {
		auth, ok := mechanismByName(s.AuthMechanism, cfg.Username, cfg.Password)
		if !ok {
			return Config{}, fmt.Errorf("unsupported auth mechanism: %s", s.AuthMechanism)
		}
		cfg.Mechanisms = []Authenticator{auth}
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate host
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	// Validate port
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	// Validate VHost
	if c.VHost == "" {
		return fmt.Errorf("vhost cannot be empty")
	}

	if _, err := c.registry(); err != nil {
		return err
	}

	// Validate timeouts
	if c.ConnectionTimeout < 0 {
		return fmt.Errorf("connection timeout cannot be negative, got %v", c.ConnectionTimeout)
	}
	if c.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake timeout cannot be negative, got %v", c.HandshakeTimeout)
	}

	// Validate heartbeat (0 means disabled, which is valid)
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat cannot be negative, got %v", c.Heartbeat)
	}
	if c.Heartbeat > 65535*time.Second {
		return fmt.Errorf("heartbeat must fit in 16 bits of seconds, got %v", c.Heartbeat)
	}

	// Validate frame max (0 means server decides, 4096 is minimum per AMQP spec)
	if c.FrameMax != 0 && c.FrameMax < protocol.FrameMinSize {
		return fmt.Errorf("frame max must be 0 or >= %d, got %d", protocol.FrameMinSize, c.FrameMax)
	}

	if err := c.ClientProperties.Validate(); err != nil {
		return fmt.Errorf("client properties: %w", err)
	}

	return nil
}

// registry returns the method registry for the configured protocol version
func (c *Config) registry() (*protocol.Registry, error) {
	switch c.Protocol {
	case "", Protocol091:
		return protocol.AMQP091, nil
	case Protocol08:
		return protocol.AMQP08, nil
	default:
		return nil, fmt.Errorf("unsupported protocol version %q", c.Protocol)
	}
}

// mechanisms returns the configured authenticators, defaulting to PLAIN
func (c *Config) mechanisms() []Authenticator {
	if len(c.Mechanisms) > 0 {
		return c.Mechanisms
	}
	return []Authenticator{&PlainAuth{Username: c.Username, Password: c.Password}}
}

// clientProperties builds the client-properties table of connection.start-ok
func (c *Config) clientProperties() protocol.Table {
	props := protocol.Table{
		"product":  "rabbit-wire",
		"version":  Version,
		"platform": "Go",
		"capabilities": protocol.Table{
			"publisher_confirms":           true,
			"exchange_exchange_bindings":   true,
			"basic.nack":                   true,
			"consumer_cancel_notify":       true,
			"connection.blocked":           true,
			"authentication_failure_close": true,
		},
	}
	if c.ConnectionName != "" {
		props["connection_name"] = c.ConnectionName
	}
	for k, v := range c.ClientProperties {
		props[k] = v
	}
	return props
}

package options

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/israelio/rabbit-wire/protocol"
)

const (
	FormatText = "text"
	FormatYAML = "yaml"
)

type Options struct {
	Input          string // "-" reads stdin
	Format         string
	Protocol       string
	FrameMax       uint32
	BodyLimit      int
	ShowReserved   bool
	SkipHeartbeats bool
	Strict         bool
	LogLevel       zapcore.Level
	Help           bool
}

// New parses the command line. A single positional argument names the
// capture file and takes precedence over --input.
func New(args []string, output io.Writer) (*Options, error) {
	opts := Options{}

	fs := pflag.NewFlagSet("amqpdump", pflag.ContinueOnError)
	fs.SortFlags = true
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "Usage: amqpdump [flags] [capture]")
		fs.PrintDefaults()
	}

	var logLevel string
	fs.StringVarP(&opts.Input, "input", "i", "-", "Capture file to decode, or - for stdin")
	fs.StringVarP(&opts.Format, "format", "o", FormatText, "Output format: text or yaml")
	fs.StringVar(&opts.Protocol, "protocol", protocol.AMQP091.Name, "Protocol to assume when the capture has no protocol header: 0-9-1 or 0-8")
	fs.Uint32Var(&opts.FrameMax, "frame-max", 0, "Largest frame accepted, header and end octet included; 0 accepts any size")
	fs.IntVar(&opts.BodyLimit, "body-limit", 64, "Body bytes shown per body frame; negative shows the whole body")
	fs.BoolVar(&opts.ShowReserved, "reserved", false, "Show reserved method arguments")
	fs.BoolVar(&opts.SkipHeartbeats, "skip-heartbeats", false, "Omit heartbeat frames from the output")
	fs.BoolVar(&opts.Strict, "strict", false, "Stop at the first frame that fails to decode")
	fs.StringVar(&logLevel, "log-level", "info", "Options are debug, info, warn or error")
	fs.BoolVarP(&opts.Help, "help", "h", false, "Print usage")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.Help {
		fs.Usage()
		return &opts, nil
	}

	switch fs.NArg() {
	case 0:
	case 1:
		opts.Input = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one capture file, got %d", fs.NArg())
	}

	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid value for --log-level: %w", err)
	}
	opts.LogLevel = level

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (o *Options) Validate() error {
	switch o.Format {
	case FormatText, FormatYAML:
	default:
		return fmt.Errorf("invalid value for --format: %q", o.Format)
	}
	if _, err := o.Registry(); err != nil {
		return err
	}
	if o.FrameMax != 0 && o.FrameMax < protocol.FrameMinSize {
		return fmt.Errorf("--frame-max must be 0 or at least %d", protocol.FrameMinSize)
	}
	return nil
}

// Registry returns the protocol assumed for captures without a header
func (o *Options) Registry() (*protocol.Registry, error) {
	switch o.Protocol {
	case protocol.AMQP091.Name:
		return protocol.AMQP091, nil
	case protocol.AMQP08.Name:
		return protocol.AMQP08, nil
	}
	return nil, fmt.Errorf("invalid value for --protocol: %q", o.Protocol)
}

// Command amqpdump decodes a captured AMQP 0-9-1 or 0-8 byte stream and
// prints its frames, methods and content headers.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/israelio/rabbit-wire/cmd/amqpdump/options"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "amqpdump:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := options.New(args, stderr)
	if err != nil {
		return err
	}
	if opts.Help {
		return nil
	}

	zl := newZapLogger(opts.LogLevel, stderr)
	defer func() { _ = zl.Sync() }()
	log := zapr.NewLogger(zl)

	return dump(ctx, opts, stdin, stdout, log)
}

func dump(ctx context.Context, opts *options.Options, stdin io.Reader, stdout io.Writer, log logr.Logger) error {
	in := stdin
	if opts.Input != "-" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	log = log.WithValues("input", opts.Input)

	d, err := newDumper(opts, stdout, log)
	if err != nil {
		return err
	}
	return d.run(ctx, in)
}

// newZapLogger logs to w so decoded output on stdout stays machine readable
func newZapLogger(level zapcore.Level, w io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}

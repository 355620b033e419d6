package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/israelio/rabbit-wire/cmd/amqpdump/options"
	"github.com/israelio/rabbit-wire/frame"
	"github.com/israelio/rabbit-wire/protocol"
)

const recordProtocolHeader = "protocol-header"

// field is one named value in a record, kept in wire order
type field struct {
	Name  string
	Value any
}

type fields []field

// MarshalYAML keeps wire order instead of yaml's sorted map keys
func (fs fields) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fs {
		var v yaml.Node
		if err := v.Encode(f.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name}, &v)
	}
	return n, nil
}

// record describes one decoded frame, or the protocol header
type record struct {
	Index      int     `yaml:"index"`
	Type       string  `yaml:"type"`
	Channel    uint16  `yaml:"channel"`
	Size       int     `yaml:"size"`
	Protocol   string  `yaml:"protocol,omitempty"`
	Method     string  `yaml:"method,omitempty"`
	Class      string  `yaml:"class,omitempty"`
	BodySize   *uint64 `yaml:"body-size,omitempty"`
	Arguments  fields  `yaml:"arguments,omitempty"`
	Properties fields  `yaml:"properties,omitempty"`
	Body       string  `yaml:"body,omitempty"`
	Truncated  int     `yaml:"truncated,omitempty"`
	Error      string  `yaml:"error,omitempty"`
}

type encoder interface {
	Encode(rec *record) error
	Close() error
}

func newEncoder(format string, w io.Writer) encoder {
	if format == options.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlEncoder{enc: enc}
	}
	return &textEncoder{w: w}
}

type yamlEncoder struct {
	enc *yaml.Encoder
}

func (e *yamlEncoder) Encode(rec *record) error {
	return e.enc.Encode(rec)
}

func (e *yamlEncoder) Close() error {
	return e.enc.Close()
}

type textEncoder struct {
	w io.Writer
}

func (e *textEncoder) Encode(rec *record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%6d %s", rec.Index, rec.Type)
	if rec.Type == recordProtocolHeader {
		fmt.Fprintf(&b, " AMQP %s", rec.Protocol)
	} else {
		fmt.Fprintf(&b, " ch=%d size=%d", rec.Channel, rec.Size)
	}
	if rec.Method != "" {
		b.WriteString(" " + rec.Method)
	}
	if rec.Class != "" {
		b.WriteString(" " + rec.Class)
	}
	if rec.BodySize != nil {
		fmt.Fprintf(&b, " body-size=%d", *rec.BodySize)
	}
	for _, f := range rec.Arguments {
		fmt.Fprintf(&b, " %s=%s", f.Name, formatValue(f.Value))
	}
	for _, f := range rec.Properties {
		fmt.Fprintf(&b, " %s=%s", f.Name, formatValue(f.Value))
	}
	if rec.Body != "" {
		fmt.Fprintf(&b, " %q", rec.Body)
	}
	if rec.Truncated > 0 {
		fmt.Fprintf(&b, " (+%d bytes)", rec.Truncated)
	}
	if rec.Error != "" {
		fmt.Fprintf(&b, " error=%q", rec.Error)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(e.w, b.String())
	return err
}

func (e *textEncoder) Close() error {
	return nil
}

// formatValue renders a plain value for the text format
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + formatValue(x[k])
		}
		return "{" + strings.Join(parts, " ") + "}"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case nil:
		return "void"
	}
	return fmt.Sprint(v)
}

// plain converts a decoded AMQP value into something both encoders render
// readably
func plain(v any) any {
	switch x := v.(type) {
	case protocol.Table:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return hex.EncodeToString(x)
	case protocol.Decimal:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	}
	return v
}

type stats struct {
	frames   int
	methods  int
	contents int
	errors   int
}

// dumper decodes one capture
type dumper struct {
	opts *options.Options
	reg  *protocol.Registry
	log  logr.Logger
	enc  encoder
	stats
}

func newDumper(opts *options.Options, out io.Writer, log logr.Logger) (*dumper, error) {
	reg, err := opts.Registry()
	if err != nil {
		return nil, err
	}
	return &dumper{
		opts: opts,
		reg:  reg,
		log:  log,
		enc:  newEncoder(opts.Format, out),
	}, nil
}

// run decodes frames from in until the capture ends. A capture that starts
// with a protocol header selects the protocol; otherwise --protocol does.
func (d *dumper) run(ctx context.Context, in io.Reader) (err error) {
	defer func() {
		if cerr := d.enc.Close(); err == nil {
			err = cerr
		}
	}()

	br := bufio.NewReader(in)
	fr := frame.NewReader(br, d.opts.FrameMax)

	index := 0
	if prefix, _ := br.Peek(4); bytes.Equal(prefix, []byte("AMQP")) {
		header, err := fr.ReadProtocolHeader()
		if err != nil {
			return err
		}
		reg, err := registryForHeader(header)
		if err != nil {
			return err
		}
		d.reg = reg
		d.log.V(1).Info("protocol header", "protocol", reg.Name)
		if err := d.enc.Encode(&record{Index: index, Type: recordProtocolHeader, Size: len(header), Protocol: reg.Name}); err != nil {
			return err
		}
		index++
	}

	for ; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := fr.ReadFrame()
		if errors.Is(err, io.EOF) {
			d.log.Info("capture decoded", "protocol", d.reg.Name, "frames", d.frames, "methods", d.methods, "contents", d.contents, "errors", d.errors)
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("capture truncated after %d frames: %w", d.frames, err)
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", index, err)
		}
		d.frames++

		if f.Type == protocol.FrameHeartbeat && d.opts.SkipHeartbeats {
			continue
		}
		rec := d.describe(index, f)
		if rec.Error != "" {
			d.errors++
			d.log.Error(errors.New(rec.Error), "frame did not decode", "index", index, "channel", f.ChannelID)
			if d.opts.Strict {
				return fmt.Errorf("frame %d: %s", index, rec.Error)
			}
		}
		if err := d.enc.Encode(rec); err != nil {
			return err
		}
	}
}

func registryForHeader(header [8]byte) (*protocol.Registry, error) {
	for _, reg := range []*protocol.Registry{protocol.AMQP091, protocol.AMQP08} {
		if header == reg.Header {
			return reg, nil
		}
	}
	return nil, fmt.Errorf("unsupported protocol header % x", header[4:])
}

func (d *dumper) describe(index int, f *frame.Frame) *record {
	rec := &record{
		Index:   index,
		Type:    frame.TypeName(f.Type),
		Channel: f.ChannelID,
		Size:    len(f.Payload),
	}
	switch f.Type {
	case protocol.FrameMethod:
		d.describeMethod(rec, f)
	case protocol.FrameHeader:
		d.describeHeader(rec, f)
	case protocol.FrameBody:
		d.describeBody(rec, f.Payload)
	}
	return rec
}

func (d *dumper) describeMethod(rec *record, f *frame.Frame) {
	classID, methodID, err := f.MethodID()
	if err != nil {
		rec.Error = err.Error()
		return
	}
	spec, err := d.reg.Lookup(classID, methodID)
	if err != nil {
		rec.Method = fmt.Sprintf("%d.%d", classID, methodID)
		rec.Error = err.Error()
		return
	}
	rec.Method = spec.Name

	m, err := f.Method(d.reg)
	if err != nil {
		rec.Error = err.Error()
		return
	}
	d.methods++

	bound := m.Fields()
	for _, arg := range spec.Args {
		if arg.Reserved && !d.opts.ShowReserved {
			continue
		}
		for _, fd := range bound {
			if fd.Name == arg.Name {
				rec.Arguments = append(rec.Arguments, field{Name: arg.Name, Value: plain(fd.Value())})
				break
			}
		}
	}
}

func (d *dumper) describeHeader(rec *record, f *frame.Frame) {
	h, err := f.Header(d.reg)
	if err != nil {
		rec.Error = err.Error()
		return
	}
	d.contents++
	if class, err := d.reg.Class(h.ClassID); err == nil {
		rec.Class = class.Name
	}
	size := h.BodySize
	rec.BodySize = &size
	for _, fd := range h.Properties.Fields() {
		if fd.IsZero() {
			continue
		}
		rec.Properties = append(rec.Properties, field{Name: fd.Name, Value: plain(fd.Value())})
	}
}

func (d *dumper) describeBody(rec *record, payload []byte) {
	shown := payload
	if limit := d.opts.BodyLimit; limit >= 0 && len(shown) > limit {
		shown = shown[:limit]
		rec.Truncated = len(payload) - limit
	}
	if utf8.Valid(shown) {
		rec.Body = string(shown)
	} else {
		rec.Body = hex.EncodeToString(shown)
	}
}

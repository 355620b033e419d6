package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// FieldType identifies the wire layout of a method argument or content property.
type FieldType uint8

const (
	Bit FieldType = iota + 1
	Octet
	Short
	Long
	LongLong
	ShortStr
	LongStr
	TableType
	Timestamp
)

// String returns the AMQP name of the field type
func (t FieldType) String() string {
	switch t {
	case Bit:
		return "bit"
	case Octet:
		return "octet"
	case Short:
		return "short"
	case Long:
		return "long"
	case LongLong:
		return "longlong"
	case ShortStr:
		return "shortstr"
	case LongStr:
		return "longstr"
	case TableType:
		return "table"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("fieldtype(%d)", uint8(t))
	}
}

// Buffer is a growable byte sequence with a read/write cursor.
//
// Reads consume from the cursor and fail with ErrOverflow instead of returning
// partial data. Writes insert at the cursor, shifting any trailing bytes, so a
// length prefix can be written before the content it describes is known.
//
// Consecutive bits share octets, least-significant bit first. The writer keeps
// pending bits in an accumulator until eight are collected, a non-bit field is
// written, or FlushBits is called.
type Buffer struct {
	data []byte
	pos  int

	// write-side bit accumulator
	wbits  byte
	wcount uint8

	// read-side bit state
	rbits  byte
	rcount uint8
}

// NewBuffer creates a buffer over data with the cursor at the start
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the buffer contents, flushing any pending bits first
func (b *Buffer) Bytes() []byte {
	b.FlushBits()
	return b.data
}

// Len returns the total number of bytes in the buffer
func (b *Buffer) Len() int {
	return len(b.data)
}

// Pos returns the cursor position
func (b *Buffer) Pos() int {
	return b.pos
}

// Remaining returns the number of bytes after the cursor
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// Seek moves the cursor to an absolute position and resets bit state
func (b *Buffer) Seek(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return fmt.Errorf("amqp: seek to %d outside buffer of %d bytes", pos, len(b.data))
	}
	b.FlushBits()
	b.pos = pos
	b.rcount = 0
	return nil
}

// Append adds bytes at the end without moving the cursor
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Compact drops the bytes before the cursor
func (b *Buffer) Compact() {
	if b.pos == 0 {
		return
	}
	n := copy(b.data, b.data[b.pos:])
	b.data = b.data[:n]
	b.pos = 0
}

// Extract runs a sequence of reads as one unit. If any read overflows, the
// cursor and bit state are restored and ok is false with a nil error, meaning
// more input is needed. Other errors are returned unchanged.
func (b *Buffer) Extract(fn func(*Buffer) error) (ok bool, err error) {
	pos, rbits, rcount := b.pos, b.rbits, b.rcount
	if err := fn(b); err != nil {
		b.pos, b.rbits, b.rcount = pos, rbits, rcount
		if errors.Is(err, ErrOverflow) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// next consumes n bytes from the cursor
func (b *Buffer) next(n int) ([]byte, error) {
	b.rcount = 0
	if b.Remaining() < n {
		return nil, overflow(n, b.Remaining())
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p, nil
}

// ReadBytes consumes n raw bytes and returns a copy of them
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	p, err := b.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, p)
	return out, nil
}

// Peek returns up to n bytes after the cursor without consuming them.
// The result aliases the buffer.
func (b *Buffer) Peek(n int) []byte {
	if n > b.Remaining() {
		n = b.Remaining()
	}
	return b.data[b.pos : b.pos+n]
}

// WriteBytes writes raw bytes at the cursor
func (b *Buffer) WriteBytes(p []byte) {
	b.insert(p)
}

// insert writes p at the cursor, shifting trailing bytes
func (b *Buffer) insert(p []byte) {
	b.FlushBits()
	b.insertRaw(p)
}

func (b *Buffer) insertRaw(p []byte) {
	if b.pos == len(b.data) {
		b.data = append(b.data, p...)
		b.pos = len(b.data)
		return
	}
	b.data = append(b.data, p...)
	copy(b.data[b.pos+len(p):], b.data[b.pos:len(b.data)-len(p)])
	copy(b.data[b.pos:], p)
	b.pos += len(p)
}

// ReadBit reads the next bit of the current bit run
func (b *Buffer) ReadBit() (bool, error) {
	if b.rcount == 0 || b.rcount == 8 {
		if b.Remaining() < 1 {
			return false, overflow(1, 0)
		}
		b.rbits = b.data[b.pos]
		b.pos++
		b.rcount = 0
	}
	v := b.rbits&(1<<b.rcount) != 0
	b.rcount++
	return v, nil
}

// WriteBit adds a bit to the pending bit run
func (b *Buffer) WriteBit(v bool) {
	if b.wcount == 8 {
		b.FlushBits()
	}
	if v {
		b.wbits |= 1 << b.wcount
	}
	b.wcount++
}

// FlushBits writes any pending bits as one octet
func (b *Buffer) FlushBits() {
	if b.wcount == 0 {
		return
	}
	octet := b.wbits
	b.wbits, b.wcount = 0, 0
	b.insertRaw([]byte{octet})
}

// ReadOctet reads an unsigned 8-bit integer
func (b *Buffer) ReadOctet() (uint8, error) {
	p, err := b.next(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// WriteOctet writes an unsigned 8-bit integer
func (b *Buffer) WriteOctet(v uint8) {
	b.insert([]byte{v})
}

// ReadShort reads a big-endian unsigned 16-bit integer
func (b *Buffer) ReadShort() (uint16, error) {
	p, err := b.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

// WriteShort writes a big-endian unsigned 16-bit integer
func (b *Buffer) WriteShort(v uint16) {
	b.insert(binary.BigEndian.AppendUint16(nil, v))
}

// ReadLong reads a big-endian unsigned 32-bit integer
func (b *Buffer) ReadLong() (uint32, error) {
	p, err := b.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

// WriteLong writes a big-endian unsigned 32-bit integer
func (b *Buffer) WriteLong(v uint32) {
	b.insert(binary.BigEndian.AppendUint32(nil, v))
}

// ReadLongLong reads a big-endian unsigned 64-bit integer
func (b *Buffer) ReadLongLong() (uint64, error) {
	p, err := b.next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}

// WriteLongLong writes a big-endian unsigned 64-bit integer
func (b *Buffer) WriteLongLong(v uint64) {
	b.insert(binary.BigEndian.AppendUint64(nil, v))
}

// ReadShortStr reads a short string (octet length prefix)
func (b *Buffer) ReadShortStr() (string, error) {
	start := b.pos
	n, err := b.ReadOctet()
	if err != nil {
		return "", err
	}
	p, err := b.next(int(n))
	if err != nil {
		b.pos = start
		return "", err
	}
	return string(p), nil
}

// WriteShortStr writes a short string
func (b *Buffer) WriteShortStr(s string) error {
	if len(s) > 255 {
		return fmt.Errorf("%w: %d bytes", ErrShortStringTooLong, len(s))
	}
	p := make([]byte, 0, 1+len(s))
	p = append(p, byte(len(s)))
	b.insert(append(p, s...))
	return nil
}

// ReadLongStr reads a long string (long length prefix)
func (b *Buffer) ReadLongStr() ([]byte, error) {
	start := b.pos
	n, err := b.ReadLong()
	if err != nil {
		return nil, err
	}
	p, err := b.next(int(n))
	if err != nil {
		b.pos = start
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// WriteLongStr writes a long string
func (b *Buffer) WriteLongStr(p []byte) {
	out := make([]byte, 0, 4+len(p))
	out = binary.BigEndian.AppendUint32(out, uint32(len(p)))
	b.insert(append(out, p...))
}

// ReadTimestamp reads a 64-bit POSIX timestamp in seconds
func (b *Buffer) ReadTimestamp() (time.Time, error) {
	v, err := b.ReadLongLong()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(v), 0), nil
}

// WriteTimestamp writes a 64-bit POSIX timestamp in seconds
func (b *Buffer) WriteTimestamp(t time.Time) {
	b.WriteLongLong(uint64(t.Unix()))
}

// ReadTable reads a field table. Decoding stops exactly at the declared length.
func (b *Buffer) ReadTable() (Table, error) {
	start := b.pos
	region, err := b.ReadLongStr()
	if err != nil {
		return nil, err
	}
	table, err := decodeTable(region)
	if err != nil {
		b.pos = start
		return nil, err
	}
	return table, nil
}

// SkipTable advances past a field table using only its length prefix
func (b *Buffer) SkipTable() error {
	start := b.pos
	n, err := b.ReadLong()
	if err != nil {
		return err
	}
	if _, err := b.next(int(n)); err != nil {
		b.pos = start
		return err
	}
	return nil
}

// WriteTable writes a field table. The long length prefix is written as a
// placeholder and rewritten once the entries are in place.
func (b *Buffer) WriteTable(t Table) error {
	b.FlushBits()
	start := b.pos
	b.insertRaw([]byte{0, 0, 0, 0})
	if err := encodeTableEntries(b, t); err != nil {
		b.data = append(b.data[:start], b.data[b.pos:]...)
		b.pos = start
		return err
	}
	binary.BigEndian.PutUint32(b.data[start:], uint32(b.pos-start-4))
	return nil
}

// Read consumes one value of the given field type.
//
// Values are returned as bool, uint8, uint16, uint32, uint64, string (for
// both string types), Table or time.Time.
func (b *Buffer) Read(t FieldType) (any, error) {
	switch t {
	case Bit:
		return b.ReadBit()
	case Octet:
		return b.ReadOctet()
	case Short:
		return b.ReadShort()
	case Long:
		return b.ReadLong()
	case LongLong:
		return b.ReadLongLong()
	case ShortStr:
		return b.ReadShortStr()
	case LongStr:
		p, err := b.ReadLongStr()
		if err != nil {
			return nil, err
		}
		return string(p), nil
	case TableType:
		return b.ReadTable()
	case Timestamp:
		return b.ReadTimestamp()
	default:
		return nil, fmt.Errorf("%w: field type %s", ErrUnsupportedValue, t)
	}
}

// Write encodes one value of the given field type at the cursor
func (b *Buffer) Write(t FieldType, v any) error {
	switch t {
	case Bit:
		x, ok := v.(bool)
		if !ok {
			return typeMismatch(t, v)
		}
		b.WriteBit(x)
	case Octet:
		x, ok := v.(uint8)
		if !ok {
			return typeMismatch(t, v)
		}
		b.WriteOctet(x)
	case Short:
		x, ok := v.(uint16)
		if !ok {
			return typeMismatch(t, v)
		}
		b.WriteShort(x)
	case Long:
		x, ok := v.(uint32)
		if !ok {
			return typeMismatch(t, v)
		}
		b.WriteLong(x)
	case LongLong:
		x, ok := v.(uint64)
		if !ok {
			return typeMismatch(t, v)
		}
		b.WriteLongLong(x)
	case ShortStr:
		x, ok := v.(string)
		if !ok {
			return typeMismatch(t, v)
		}
		return b.WriteShortStr(x)
	case LongStr:
		switch x := v.(type) {
		case string:
			b.WriteLongStr([]byte(x))
		case []byte:
			b.WriteLongStr(x)
		default:
			return typeMismatch(t, v)
		}
	case TableType:
		x, ok := v.(Table)
		if !ok && v != nil {
			return typeMismatch(t, v)
		}
		return b.WriteTable(x)
	case Timestamp:
		x, ok := v.(time.Time)
		if !ok {
			return typeMismatch(t, v)
		}
		b.WriteTimestamp(x)
	default:
		return fmt.Errorf("%w: field type %s", ErrUnsupportedValue, t)
	}
	return nil
}

func typeMismatch(t FieldType, v any) error {
	return fmt.Errorf("%w: %T for %s", ErrUnsupportedValue, v, t)
}

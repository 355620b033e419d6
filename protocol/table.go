package protocol

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

// Table represents an AMQP field table.
//
// Values decode to bool, int8, uint8, int16, uint16, int32, uint32, int64,
// float32, float64, Decimal, string, []byte, []any, time.Time, Table or nil.
type Table map[string]any

// Decimal is an AMQP decimal value: Value scaled down by Scale decimal places.
// It is kept exact on decode.
type Decimal struct {
	Scale uint8
	Value int32
}

// String renders the exact decimal text
func (d Decimal) String() string {
	if d.Scale == 0 {
		return strconv.FormatInt(int64(d.Value), 10)
	}
	r := new(big.Rat).SetFrac(big.NewInt(int64(d.Value)), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil))
	return r.FloatString(int(d.Scale))
}

// Float64 converts the decimal to a float, losing precision where needed
func (d Decimal) Float64() float64 {
	return float64(d.Value) / math.Pow10(int(d.Scale))
}

// Validate reports every value in the table that cannot be encoded
func (t Table) Validate() error {
	var err error
	for _, key := range sortedKeys(t) {
		if len(key) > 255 {
			err = multierr.Append(err, fmt.Errorf("%w: key %.16q...", ErrShortStringTooLong, key))
		}
		err = multierr.Append(err, validateValue(key, t[key]))
	}
	return err
}

func validateValue(path string, v any) error {
	switch x := v.(type) {
	case nil, bool, int8, uint8, int16, uint16, int32, uint32, int64, int,
		float32, float64, Decimal, string, []byte, time.Time:
		return nil
	case Table:
		var err error
		for _, key := range sortedKeys(x) {
			err = multierr.Append(err, validateValue(path+"."+key, x[key]))
		}
		return err
	case []any:
		var err error
		for i, elem := range x {
			err = multierr.Append(err, validateValue(fmt.Sprintf("%s[%d]", path, i), elem))
		}
		return err
	default:
		return fmt.Errorf("%w: %T at %q", ErrUnsupportedValue, v, path)
	}
}

func sortedKeys(t Table) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// decodeTable decodes the entries of a table whose length prefix was already consumed
func decodeTable(region []byte) (Table, error) {
	table := make(Table)
	b := NewBuffer(region)
	for b.Remaining() > 0 {
		name, err := b.ReadShortStr()
		if err != nil {
			return nil, malformed("table key", err)
		}
		value, err := readFieldValue(b)
		if err != nil {
			return nil, malformed(fmt.Sprintf("table field %q", name), err)
		}
		table[name] = value
	}
	return table, nil
}

func decodeArray(region []byte) ([]any, error) {
	values := []any{}
	b := NewBuffer(region)
	for b.Remaining() > 0 {
		value, err := readFieldValue(b)
		if err != nil {
			return nil, malformed("array element", err)
		}
		values = append(values, value)
	}
	return values, nil
}

// malformed reports a truncated nested value as corrupt input: the enclosing
// length said the bytes were all there.
func malformed(what string, err error) error {
	if errors.Is(err, ErrOverflow) {
		return fmt.Errorf("%w: %s truncated", ErrMalformed, what)
	}
	return err
}

// readFieldValue reads a field value based on its type indicator
func readFieldValue(b *Buffer) (any, error) {
	tag, err := b.ReadOctet()
	if err != nil {
		return nil, err
	}

	switch tag {
	case 't':
		v, err := b.ReadOctet()
		return v != 0, err
	case 'b':
		v, err := b.ReadOctet()
		return int8(v), err
	case 'B':
		return b.ReadOctet()
	case 's':
		v, err := b.ReadShort()
		return int16(v), err
	case 'u':
		return b.ReadShort()
	case 'I':
		v, err := b.ReadLong()
		return int32(v), err
	case 'i':
		return b.ReadLong()
	case 'l':
		v, err := b.ReadLongLong()
		return int64(v), err
	case 'f':
		v, err := b.ReadLong()
		return math.Float32frombits(v), err
	case 'd':
		v, err := b.ReadLongLong()
		return math.Float64frombits(v), err
	case 'D':
		scale, err := b.ReadOctet()
		if err != nil {
			return nil, err
		}
		v, err := b.ReadLong()
		return Decimal{Scale: scale, Value: int32(v)}, err
	case 'S':
		p, err := b.ReadLongStr()
		return string(p), err
	case 'x':
		return b.ReadLongStr()
	case 'A':
		region, err := b.ReadLongStr()
		if err != nil {
			return nil, err
		}
		return decodeArray(region)
	case 'T':
		return b.ReadTimestamp()
	case 'F':
		return b.ReadTable()
	case 'V':
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown field type %q", ErrMalformed, tag)
	}
}

func encodeTableEntries(b *Buffer, t Table) error {
	for _, key := range sortedKeys(t) {
		if err := b.WriteShortStr(key); err != nil {
			return err
		}
		if err := writeFieldValue(b, t[key]); err != nil {
			return fmt.Errorf("table field %q: %w", key, err)
		}
	}
	return nil
}

// writeFieldValue writes a field value with its type indicator
func writeFieldValue(b *Buffer, value any) error {
	switch v := value.(type) {
	case bool:
		b.WriteOctet('t')
		if v {
			b.WriteOctet(1)
		} else {
			b.WriteOctet(0)
		}
	case int8:
		b.WriteOctet('b')
		b.WriteOctet(uint8(v))
	case uint8:
		b.WriteOctet('B')
		b.WriteOctet(v)
	case int16:
		b.WriteOctet('s')
		b.WriteShort(uint16(v))
	case uint16:
		b.WriteOctet('u')
		b.WriteShort(v)
	case int32:
		b.WriteOctet('I')
		b.WriteLong(uint32(v))
	case uint32:
		b.WriteOctet('i')
		b.WriteLong(v)
	case int64:
		b.WriteOctet('l')
		b.WriteLongLong(uint64(v))
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			b.WriteOctet('I')
			b.WriteLong(uint32(int32(v)))
		} else {
			b.WriteOctet('l')
			b.WriteLongLong(uint64(int64(v)))
		}
	case float32:
		b.WriteOctet('f')
		b.WriteLong(math.Float32bits(v))
	case float64:
		b.WriteOctet('d')
		b.WriteLongLong(math.Float64bits(v))
	case Decimal:
		b.WriteOctet('D')
		b.WriteOctet(v.Scale)
		b.WriteLong(uint32(v.Value))
	case string:
		b.WriteOctet('S')
		b.WriteLongStr([]byte(v))
	case []byte:
		b.WriteOctet('x')
		b.WriteLongStr(v)
	case time.Time:
		b.WriteOctet('T')
		b.WriteTimestamp(v)
	case Table:
		b.WriteOctet('F')
		return b.WriteTable(v)
	case []any:
		b.WriteOctet('A')
		return writeArray(b, v)
	case nil:
		b.WriteOctet('V')
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
	return nil
}

// writeArray writes a length-prefixed run of field values
func writeArray(b *Buffer, values []any) error {
	start := b.pos
	b.insertRaw([]byte{0, 0, 0, 0})
	for _, v := range values {
		if err := writeFieldValue(b, v); err != nil {
			return err
		}
	}
	putLong(b.data[start:], uint32(b.pos-start-4))
	return nil
}

func putLong(p []byte, v uint32) {
	p[0], p[1], p[2], p[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}

package protocol

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		typ   FieldType
		value any
		wire  []byte
	}{
		{"octet", Octet, uint8(0xAB), []byte{0xAB}},
		{"short", Short, uint16(0x1234), []byte{0x12, 0x34}},
		{"long", Long, uint32(0xDEADBEEF), []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{"longlong", LongLong, uint64(1), []byte{0, 0, 0, 0, 0, 0, 0, 1}},
		{"shortstr", ShortStr, "hi", []byte{2, 'h', 'i'}},
		{"longstr", LongStr, "hey", []byte{0, 0, 0, 3, 'h', 'e', 'y'}},
		{"empty shortstr", ShortStr, "", []byte{0}},
		{"timestamp", Timestamp, time.Unix(1700000000, 0), []byte{0, 0, 0, 0, 0x65, 0x53, 0xF1, 0x00}},
		{"empty table", TableType, Table{}, []byte{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewBuffer(nil)
			require.NoError(t, w.Write(tt.typ, tt.value))
			assert.Equal(t, tt.wire, w.Bytes())

			r := NewBuffer(tt.wire)
			got, err := r.Read(tt.typ)
			require.NoError(t, err)
			if ts, ok := tt.value.(time.Time); ok {
				assert.True(t, ts.Equal(got.(time.Time)))
			} else {
				assert.Equal(t, tt.value, got)
			}
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestBufferBitRuns(t *testing.T) {
	for _, n := range []int{1, 7, 8, 9, 16} {
		bits := make([]bool, n)
		for i := range bits {
			bits[i] = i%3 == 0
		}

		w := NewBuffer(nil)
		for _, b := range bits {
			w.WriteBit(b)
		}
		w.FlushBits()
		want := (n + 7) / 8
		require.Len(t, w.Bytes(), want, "run of %d bits", n)

		r := NewBuffer(w.Bytes())
		for i, b := range bits {
			got, err := r.ReadBit()
			require.NoError(t, err)
			assert.Equal(t, b, got, "bit %d of %d", i, n)
		}
		assert.Equal(t, 0, r.Remaining())
	}
}

func TestBufferBitPackingLSBFirst(t *testing.T) {
	w := NewBuffer(nil)
	for _, b := range []bool{true, false, false, true, true, false, false, true, true, false} {
		w.WriteBit(b)
	}
	assert.Equal(t, []byte{0x99, 0x01}, w.Bytes())
}

func TestBufferBitsFlushBeforeNonBit(t *testing.T) {
	w := NewBuffer(nil)
	w.WriteBit(true)
	w.WriteBit(true)
	w.WriteOctet(5)
	w.WriteBit(true)
	assert.Equal(t, []byte{0x03, 0x05, 0x01}, w.Bytes())

	r := NewBuffer(w.Bytes())
	b1, _ := r.ReadBit()
	b2, _ := r.ReadBit()
	o, err := r.ReadOctet()
	require.NoError(t, err)
	b3, _ := r.ReadBit()
	assert.True(t, b1)
	assert.True(t, b2)
	assert.Equal(t, uint8(5), o)
	assert.True(t, b3)
}

func TestBufferOverflowLeavesCursor(t *testing.T) {
	r := NewBuffer([]byte{0, 0, 1})
	_, err := r.ReadLong()
	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, 0, r.Pos())

	r = NewBuffer([]byte{5, 'a', 'b'})
	_, err = r.ReadShortStr()
	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, 0, r.Pos())
}

func TestBufferExtract(t *testing.T) {
	r := NewBuffer([]byte{0, 7, 3, 'a'})
	var short uint16
	var str string
	read := func(b *Buffer) error {
		var err error
		if short, err = b.ReadShort(); err != nil {
			return err
		}
		str, err = b.ReadShortStr()
		return err
	}

	ok, err := r.Extract(read)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Pos())

	r.Append([]byte{'b', 'c'})
	ok, err = r.Extract(read)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(7), short)
	assert.Equal(t, "abc", str)

	r.Compact()
	assert.Equal(t, 0, r.Len())
}

func TestBufferExtractPropagatesOtherErrors(t *testing.T) {
	r := NewBuffer([]byte{0, 0, 0, 2, 1, 'a'})
	ok, err := r.Extract(func(b *Buffer) error {
		_, err := b.ReadTable()
		return err
	})
	assert.False(t, ok)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, 0, r.Pos())
}

func TestBufferInsertAtCursor(t *testing.T) {
	b := NewBuffer(nil)
	b.WriteOctet(1)
	b.WriteOctet(3)
	require.NoError(t, b.Seek(1))
	b.WriteOctet(2)
	assert.Equal(t, []byte{1, 2, 3}, b.Bytes())
	assert.Equal(t, 2, b.Pos())
}

func TestBufferShortStrTooLong(t *testing.T) {
	b := NewBuffer(nil)
	err := b.WriteShortStr(strings.Repeat("x", 256))
	require.ErrorIs(t, err, ErrShortStringTooLong)
	assert.Equal(t, 0, b.Len())
}

func TestBufferWriteTypeMismatch(t *testing.T) {
	b := NewBuffer(nil)
	err := b.Write(Short, "not a number")
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestBufferSkipTable(t *testing.T) {
	w := NewBuffer(nil)
	require.NoError(t, w.WriteTable(Table{"k": int32(1)}))
	w.WriteOctet(9)

	r := NewBuffer(w.Bytes())
	require.NoError(t, r.SkipTable())
	o, err := r.ReadOctet()
	require.NoError(t, err)
	assert.Equal(t, uint8(9), o)
}

func BenchmarkBufferWriteMethodArgs(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := NewBuffer(make([]byte, 0, 64))
		buf.WriteShort(0)
		_ = buf.WriteShortStr("queue-name")
		buf.WriteBit(false)
		buf.WriteBit(true)
		buf.WriteBit(false)
		_ = buf.WriteTable(nil)
	}
}

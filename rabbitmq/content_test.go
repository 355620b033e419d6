package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/israelio/rabbit-wire/protocol"
)

func TestAssembler(t *testing.T) {
	var a assembler
	assert.False(t, a.busy())

	require.Nil(t, a.begin(&protocol.BasicDeliver{DeliveryTag: 1}))
	assert.True(t, a.busy())

	done, err := a.addHeader(&protocol.ContentHeader{ClassID: protocol.ClassBasic, BodySize: 11})
	require.Nil(t, err)
	assert.False(t, done)

	done, err = a.addBody([]byte("hello"))
	require.Nil(t, err)
	assert.False(t, done)
	done, err = a.addBody([]byte(" world"))
	require.Nil(t, err)
	assert.True(t, done)

	m, h, body := a.take()
	assert.Equal(t, &protocol.BasicDeliver{DeliveryTag: 1}, m)
	assert.Equal(t, uint64(11), h.BodySize)
	assert.Equal(t, []byte("hello world"), body)
	assert.False(t, a.busy())
}

func TestAssemblerEmptyBody(t *testing.T) {
	var a assembler
	require.Nil(t, a.begin(&protocol.BasicGetOk{}))
	done, err := a.addHeader(&protocol.ContentHeader{ClassID: protocol.ClassBasic})
	require.Nil(t, err)
	assert.True(t, done)
}

func TestAssemblerViolations(t *testing.T) {
	tests := []struct {
		name string
		run  func(a *assembler) *Error
	}{
		{
			name: "header without method",
			run: func(a *assembler) *Error {
				_, err := a.addHeader(&protocol.ContentHeader{ClassID: protocol.ClassBasic, BodySize: 1})
				return err
			},
		},
		{
			name: "body without header",
			run: func(a *assembler) *Error {
				_ = a.begin(&protocol.BasicDeliver{})
				_, err := a.addBody([]byte("x"))
				return err
			},
		},
		{
			name: "class mismatch",
			run: func(a *assembler) *Error {
				_ = a.begin(&protocol.BasicDeliver{})
				_, err := a.addHeader(&protocol.ContentHeader{ClassID: protocol.ClassQueue, BodySize: 1})
				return err
			},
		},
		{
			name: "second header",
			run: func(a *assembler) *Error {
				_ = a.begin(&protocol.BasicDeliver{})
				_, _ = a.addHeader(&protocol.ContentHeader{ClassID: protocol.ClassBasic, BodySize: 1})
				_, err := a.addHeader(&protocol.ContentHeader{ClassID: protocol.ClassBasic, BodySize: 1})
				return err
			},
		},
		{
			name: "body overflow",
			run: func(a *assembler) *Error {
				_ = a.begin(&protocol.BasicDeliver{})
				_, _ = a.addHeader(&protocol.ContentHeader{ClassID: protocol.ClassBasic, BodySize: 4})
				_, _ = a.addBody([]byte("abc"))
				_, err := a.addBody([]byte("de"))
				return err
			},
		},
		{
			name: "second content method",
			run: func(a *assembler) *Error {
				_ = a.begin(&protocol.BasicDeliver{})
				return a.begin(&protocol.BasicDeliver{})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a assembler
			err := tt.run(&a)
			require.NotNil(t, err)
			assert.Equal(t, protocol.ReplyUnexpectedFrame, err.Code)
			assert.False(t, err.Server)
		})
	}
}

func TestAssemblerPreallocationIsCapped(t *testing.T) {
	var a assembler
	require.Nil(t, a.begin(&protocol.BasicDeliver{}))
	_, err := a.addHeader(&protocol.ContentHeader{ClassID: protocol.ClassBasic, BodySize: 1 << 40})
	require.Nil(t, err)
	assert.Equal(t, maxBodyPrealloc, cap(a.body))
}

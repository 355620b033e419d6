package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		props Properties
	}{
		{"empty", Properties{}},
		{"persistent text", PersistentTextPlain},
		{
			name: "all properties",
			props: Properties{
				ContentType:     "application/json",
				ContentEncoding: "gzip",
				Headers:         Table{"x-retry": int32(3)},
				DeliveryMode:    DeliveryModePersistent,
				Priority:        9,
				CorrelationId:   "corr-1",
				ReplyTo:         "amq.rabbitmq.reply-to",
				Expiration:      "60000",
				MessageId:       "msg-1",
				Timestamp:       time.Unix(1700000000, 0),
				Type:            "order.created",
				UserId:          "guest",
				AppId:           "billing",
				ClusterId:       "c1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &ContentHeader{ClassID: ClassBasic, BodySize: 1234, Properties: tt.props}
			buf := NewBuffer(nil)
			require.NoError(t, AMQP091.EncodeHeader(buf, h))

			r := NewBuffer(buf.Bytes())
			got, err := AMQP091.DecodeHeader(r)
			require.NoError(t, err)
			assert.Equal(t, 0, r.Remaining())
			if diff := cmp.Diff(h, got); diff != "" {
				t.Errorf("header mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContentHeaderWireFormat(t *testing.T) {
	h := &ContentHeader{
		ClassID:    ClassBasic,
		BodySize:   11,
		Properties: Properties{ContentType: "text/plain", DeliveryMode: 2},
	}
	buf := NewBuffer(nil)
	require.NoError(t, AMQP091.EncodeHeader(buf, h))

	want := []byte{
		0, 60, // class
		0, 0, // weight
		0, 0, 0, 0, 0, 0, 0, 11, // body size
		0x90, 0x00, // content-type, delivery-mode
		10, 't', 'e', 'x', 't', '/', 'p', 'l', 'a', 'i', 'n',
		2,
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestContentHeaderFlagContinuation(t *testing.T) {
	wire := []byte{
		0, 60, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0x80, 0x01, // content-type, more flags follow
		0x00, 0x00,
		1, 'a',
	}
	r := NewBuffer(wire)
	h, err := AMQP091.DecodeHeader(r)
	require.NoError(t, err)
	assert.Equal(t, "a", h.Properties.ContentType)
	assert.Equal(t, 0, r.Remaining())
}

func TestContentHeaderUnknownClass(t *testing.T) {
	for _, classID := range []uint16{ClassConnection, 99} {
		buf := NewBuffer(nil)
		err := AMQP091.EncodeHeader(buf, &ContentHeader{ClassID: classID})

		var unknown *UnknownClassError
		require.True(t, errors.As(err, &unknown), "class %d: %v", classID, err)
		assert.Equal(t, classID, unknown.ClassID)

		_, err = AMQP091.DecodeHeader(NewBuffer([]byte{byte(classID >> 8), byte(classID), 0, 0}))
		require.True(t, errors.As(err, &unknown))
	}
}

func TestContentHeaderTruncated(t *testing.T) {
	_, err := AMQP091.DecodeHeader(NewBuffer([]byte{0, 60, 0, 0, 0, 0}))
	require.ErrorIs(t, err, ErrOverflow)
}

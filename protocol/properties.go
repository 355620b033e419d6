package protocol

import (
	"fmt"
	"time"
)

// Properties represents AMQP basic content properties.
// A zero value of any field means the property is absent on the wire.
type Properties struct {
	ContentType     string
	ContentEncoding string
	Headers         Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationId   string
	ReplyTo         string
	Expiration      string
	MessageId       string
	Timestamp       time.Time
	Type            string
	UserId          string
	AppId           string
	ClusterId       string // reserved
}

// Fields binds each property name to its storage
func (p *Properties) Fields() []Field {
	return []Field{
		{"content-type", &p.ContentType},
		{"content-encoding", &p.ContentEncoding},
		{"headers", &p.Headers},
		{"delivery-mode", &p.DeliveryMode},
		{"priority", &p.Priority},
		{"correlation-id", &p.CorrelationId},
		{"reply-to", &p.ReplyTo},
		{"expiration", &p.Expiration},
		{"message-id", &p.MessageId},
		{"timestamp", &p.Timestamp},
		{"type", &p.Type},
		{"user-id", &p.UserId},
		{"app-id", &p.AppId},
		{"cluster-id", &p.ClusterId},
	}
}

// ContentHeader is the payload of a content header frame
type ContentHeader struct {
	ClassID    uint16
	Weight     uint16 // unused, always 0
	BodySize   uint64
	Properties Properties
}

// Predefined message properties
var (
	// MinimalBasic is an empty set of properties
	MinimalBasic = Properties{}

	// MinimalPersistentBasic has only persistent delivery mode
	MinimalPersistentBasic = Properties{
		DeliveryMode: DeliveryModePersistent,
	}

	// Basic is basic properties with default content type
	Basic = Properties{
		ContentType:  "application/octet-stream",
		DeliveryMode: DeliveryModeNonPersistent,
	}

	// PersistentBasic is basic properties with persistent delivery
	PersistentBasic = Properties{
		ContentType:  "application/octet-stream",
		DeliveryMode: DeliveryModePersistent,
	}

	// TextPlain is properties for text messages
	TextPlain = Properties{
		ContentType:  "text/plain",
		DeliveryMode: DeliveryModeNonPersistent,
	}

	// PersistentTextPlain is properties for persistent text messages
	PersistentTextPlain = Properties{
		ContentType:  "text/plain",
		DeliveryMode: DeliveryModePersistent,
	}
)

// EncodeHeader writes a content header at the cursor.
//
// Property flags are written as one or more shorts. Bit 15 of the first
// short is the first property; bit 0 of every short except the last is set
// to announce another flags short.
func (r *Registry) EncodeHeader(buf *Buffer, h *ContentHeader) error {
	class, err := r.Class(h.ClassID)
	if err != nil {
		return err
	}
	if len(class.Properties) == 0 {
		return &UnknownClassError{ClassID: h.ClassID}
	}

	fields := h.Properties.Fields()
	flags := make([]uint16, (len(class.Properties)+14)/15)
	var present []Arg
	for i, prop := range class.Properties {
		ptr, ok := lookupField(fields, prop.Name)
		if !ok {
			return fmt.Errorf("%s properties: no field bound to %q", class.Name, prop.Name)
		}
		if isZero(deref(ptr)) {
			continue
		}
		flags[i/15] |= 1 << (15 - uint(i%15))
		present = append(present, prop)
	}
	for len(flags) > 1 && flags[len(flags)-1] == 0 {
		flags = flags[:len(flags)-1]
	}

	buf.WriteShort(h.ClassID)
	buf.WriteShort(h.Weight)
	buf.WriteLongLong(h.BodySize)
	for i, f := range flags {
		if i < len(flags)-1 {
			f |= 1
		}
		buf.WriteShort(f)
	}
	return encodeArgs(buf, class.Name+" properties", present, fields)
}

// DecodeHeader reads a content header from the cursor
func (r *Registry) DecodeHeader(buf *Buffer) (*ContentHeader, error) {
	h := &ContentHeader{}
	var err error
	if h.ClassID, err = buf.ReadShort(); err != nil {
		return nil, err
	}
	class, err := r.Class(h.ClassID)
	if err != nil {
		return nil, err
	}
	if len(class.Properties) == 0 {
		return nil, &UnknownClassError{ClassID: h.ClassID}
	}
	if h.Weight, err = buf.ReadShort(); err != nil {
		return nil, err
	}
	if h.BodySize, err = buf.ReadLongLong(); err != nil {
		return nil, err
	}

	var flags []uint16
	for {
		f, err := buf.ReadShort()
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
		if f&1 == 0 {
			break
		}
	}

	var present []Arg
	for i, prop := range class.Properties {
		word := i / 15
		if word >= len(flags) {
			break
		}
		if flags[word]&(1<<(15-uint(i%15))) != 0 {
			present = append(present, prop)
		}
	}
	if err := decodeArgs(buf, class.Name+" properties", present, h.Properties.Fields()); err != nil {
		return nil, err
	}
	return h, nil
}

func isZero(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case uint8:
		return x == 0
	case uint16:
		return x == 0
	case uint32:
		return x == 0
	case uint64:
		return x == 0
	case bool:
		return !x
	case Table:
		return len(x) == 0
	case time.Time:
		return x.IsZero()
	}
	return v == nil
}

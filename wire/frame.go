// Package wire is the event-stream frame runtime shared between the
// stencil core and generated projects: frames, typed header values, and
// the per-protocol payload codecs.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Well-known frame header names.
const (
	HeaderMessageType   = ":message-type"
	HeaderEventType     = ":event-type"
	HeaderExceptionType = ":exception-type"
	HeaderContentType   = ":content-type"
)

// Message type values carried under HeaderMessageType.
const (
	MessageTypeEvent     = "event"
	MessageTypeException = "exception"
)

// Frame is one event-stream message: ordered headers plus an opaque
// payload encoded by the protocol's codec.
type Frame struct {
	Headers []Header
	Payload []byte
}

// Header is one named, typed frame header.
type Header struct {
	Name  string
	Value HeaderValue
}

// Header lookups return the zero value when absent.

// Header returns the value of the named header.
func (f *Frame) Header(name string) (HeaderValue, bool) {
	for _, h := range f.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return nil, false
}

// EventType returns the ":event-type" header as a string.
func (f *Frame) EventType() string {
	if v, ok := f.Header(HeaderEventType); ok {
		if s, ok := v.(StringValue); ok {
			return string(s)
		}
	}
	return ""
}

// HeaderValue is a typed frame header value. The variant set is closed.
type HeaderValue interface {
	isHeaderValue()
}

// StringValue is a UTF-8 string header value.
type StringValue string

// BoolValue is a boolean header value.
type BoolValue bool

// Int64Value is a signed integer header value.
type Int64Value int64

// BytesValue is an opaque binary header value.
type BytesValue []byte

// TimestampValue is a millisecond-precision timestamp header value.
type TimestampValue time.Time

func (StringValue) isHeaderValue()    {}
func (BoolValue) isHeaderValue()      {}
func (Int64Value) isHeaderValue()     {}
func (BytesValue) isHeaderValue()     {}
func (TimestampValue) isHeaderValue() {}

// Wire tags for the header value variants.
const (
	tagString byte = iota
	tagBoolTrue
	tagBoolFalse
	tagInt64
	tagBytes
	tagTimestamp
)

// EncodeFrame writes a frame in the length-prefixed binary layout:
//
//	u32 header-block length
//	  per header: u8 name length, name, u8 tag, value
//	u32 payload length, payload
//
// Header order is preserved, so output is deterministic.
func EncodeFrame(f *Frame) ([]byte, error) {
	var headers bytes.Buffer
	for _, h := range f.Headers {
		if len(h.Name) > 255 {
			return nil, fmt.Errorf("encode frame: header name %q too long", h.Name)
		}
		headers.WriteByte(byte(len(h.Name)))
		headers.WriteString(h.Name)
		if err := encodeHeaderValue(&headers, h); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(headers.Len()))
	out.Write(lenBuf)
	out.Write(headers.Bytes())
	binary.BigEndian.PutUint32(lenBuf, uint32(len(f.Payload)))
	out.Write(lenBuf)
	out.Write(f.Payload)
	return out.Bytes(), nil
}

func encodeHeaderValue(buf *bytes.Buffer, h Header) error {
	switch v := h.Value.(type) {
	case StringValue:
		buf.WriteByte(tagString)
		writeLenPrefixed(buf, []byte(v))
	case BoolValue:
		if v {
			buf.WriteByte(tagBoolTrue)
		} else {
			buf.WriteByte(tagBoolFalse)
		}
	case Int64Value:
		buf.WriteByte(tagInt64)
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v))
		buf.Write(b)
	case BytesValue:
		buf.WriteByte(tagBytes)
		writeLenPrefixed(buf, v)
	case TimestampValue:
		buf.WriteByte(tagTimestamp)
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(time.Time(v).UnixMilli()))
		buf.Write(b)
	default:
		return fmt.Errorf("encode frame: unknown header value type %T for %q", h.Value, h.Name)
	}
	return nil
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(b)))
	buf.Write(lenBuf)
	buf.Write(b)
}

// DecodeFrame reads one frame from data.
func DecodeFrame(data []byte) (*Frame, error) {
	r := bytes.NewReader(data)
	headerLen, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("decode frame: header length: %w", err)
	}
	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("decode frame: header block: %w", err)
	}
	headers, err := decodeHeaders(headerBytes)
	if err != nil {
		return nil, err
	}
	payloadLen, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("decode frame: payload length: %w", err)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("decode frame: payload: %w", err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("decode frame: %d trailing bytes", r.Len())
	}
	if payloadLen == 0 {
		payload = nil
	}
	return &Frame{Headers: headers, Payload: payload}, nil
}

func decodeHeaders(data []byte) ([]Header, error) {
	r := bytes.NewReader(data)
	var headers []Header
	for r.Len() > 0 {
		nameLen, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("decode frame: header name length: %w", err)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("decode frame: header name: %w", err)
		}
		value, err := decodeHeaderValue(r, string(name))
		if err != nil {
			return nil, err
		}
		headers = append(headers, Header{Name: string(name), Value: value})
	}
	return headers, nil
}

func decodeHeaderValue(r *bytes.Reader, name string) (HeaderValue, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("decode frame: header %q tag: %w", name, err)
	}
	switch tag {
	case tagString:
		b, err := readLenPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("decode frame: header %q: %w", name, err)
		}
		return StringValue(b), nil
	case tagBoolTrue:
		return BoolValue(true), nil
	case tagBoolFalse:
		return BoolValue(false), nil
	case tagInt64:
		b := make([]byte, 8)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("decode frame: header %q: %w", name, err)
		}
		return Int64Value(binary.BigEndian.Uint64(b)), nil
	case tagBytes:
		b, err := readLenPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("decode frame: header %q: %w", name, err)
		}
		return BytesValue(b), nil
	case tagTimestamp:
		b := make([]byte, 8)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("decode frame: header %q: %w", name, err)
		}
		return TimestampValue(time.UnixMilli(int64(binary.BigEndian.Uint64(b))).UTC()), nil
	default:
		return nil, fmt.Errorf("decode frame: header %q: unknown tag %d", name, tag)
	}
}

func readUint32(r *bytes.Reader) (uint32, error) {
	b := make([]byte, 4)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func readLenPrefixed(r *bytes.Reader) ([]byte, error) {
	lb := make([]byte, 2)
	if _, err := io.ReadFull(r, lb); err != nil {
		return nil, err
	}
	b := make([]byte, binary.BigEndian.Uint16(lb))
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

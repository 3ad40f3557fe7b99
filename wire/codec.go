package wire

import (
	"encoding/json"
	"encoding/xml"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/model"
)

// Codec encodes event payloads for one wire protocol.
type Codec interface {
	// Name returns the codec name.
	Name() string
	// ContentType returns the MIME type stamped into the
	// ":content-type" frame header.
	ContentType() string
	// Marshal encodes a payload value.
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes a payload into v.
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes payloads as JSON.
type JSONCodec struct{}

// Name implements Codec.
func (JSONCodec) Name() string { return "json" }

// ContentType implements Codec.
func (JSONCodec) ContentType() string { return "application/json" }

// Marshal implements Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// MsgpackCodec encodes payloads as MessagePack.
type MsgpackCodec struct{}

// Name implements Codec.
func (MsgpackCodec) Name() string { return "msgpack" }

// ContentType implements Codec.
func (MsgpackCodec) ContentType() string { return "application/msgpack" }

// Marshal implements Codec.
func (MsgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

// Unmarshal implements Codec.
func (MsgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

// XMLCodec encodes payloads as XML.
type XMLCodec struct{}

// Name implements Codec.
func (XMLCodec) Name() string { return "xml" }

// ContentType implements Codec.
func (XMLCodec) ContentType() string { return "application/xml" }

// Marshal implements Codec.
func (XMLCodec) Marshal(v any) ([]byte, error) { return xml.Marshal(v) }

// Unmarshal implements Codec.
func (XMLCodec) Unmarshal(data []byte, v any) error { return xml.Unmarshal(data, v) }

// CodecFor returns the payload codec for a protocol.
func CodecFor(proto model.ShapeID) (Codec, error) {
	switch proto {
	case model.ProtocolRestJSON:
		return JSONCodec{}, nil
	case model.ProtocolRestXML:
		return XMLCodec{}, nil
	case model.ProtocolRPCMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("wire: no codec for protocol %s: %w", proto, stencil.ErrUnsupported)
	}
}

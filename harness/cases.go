package harness

import (
	"fmt"
	"time"

	"github.com/skellig/stencil/fixture"
	"github.com/skellig/stencil/model"
)

// EventFixture is one literal event driven through the generated
// marshaller or expected back from the generated unmarshaller. Exactly one
// payload field applies, matching the variant's target kind.
type EventFixture struct {
	// Member is the union member name, e.g. "messageWithString".
	Member string

	// StringValue is the payload for string-valued variants.
	StringValue string

	// StructFields is the payload for structure-valued variants, keyed
	// by model member name.
	StructFields map[string]any

	// UnionMember selects the inner variant for union-valued payloads.
	// The inner value comes from StringValue or StructFields, matching
	// the selected member's target kind.
	UnionMember string

	// MarshallOnly excludes the event from unmarshall-direction tests.
	// The codecs cannot decode into an interface-typed payload, so
	// union-valued variants only run in the marshall direction.
	MarshallOnly bool
}

// WireCase is one harness test case: a protocol plus the event sequence
// the generated project must round-trip.
type WireCase struct {
	Name     string
	Protocol model.ShapeID
	Events   []EventFixture
}

// standardEvents is the event sequence every protocol case drives. It
// covers the scalar-payload, struct-payload, union-payload, and
// scalar-header variants of the fixture stream.
func standardEvents(proto model.ShapeID) []EventFixture {
	// Msgpack hands decoded timestamps back in the local zone; the
	// RFC3339 "Z" suffix of json and xml parses as UTC.
	ts := time.Unix(1700000000, 0).UTC()
	if proto == model.ProtocolRPCMsgpack {
		ts = time.Unix(1700000000, 0)
	}
	return []EventFixture{
		{Member: "messageWithString", StringValue: "hello"},
		{Member: "messageWithString", StringValue: ""},
		{
			Member: "messageWithStruct",
			StructFields: map[string]any{
				"someString": "payload",
				"someInt":    int32(69),
			},
		},
		{
			Member:       "messageWithUnion",
			UnionMember:  "foo",
			StringValue:  "pick",
			MarshallOnly: true,
		},
		{
			Member:      "messageWithUnion",
			UnionMember: "bar",
			StructFields: map[string]any{
				"someString": "nested",
				"someInt":    int32(7),
			},
			MarshallOnly: true,
		},
		{
			Member: "messageWithHeaders",
			StructFields: map[string]any{
				"blob":      []byte("bin"),
				"boolean":   true,
				"long":      int64(420),
				"string":    "header",
				"timestamp": ts,
			},
		},
		{
			Member: "messageWithNoTraits",
			StructFields: map[string]any{
				"payload": "plain",
			},
		},
	}
}

// Cases returns the full protocol matrix of wire cases. Directions are
// supplied separately by the caller, so the matrix is protocols × the
// standard event sequence.
func Cases() []WireCase {
	var cases []WireCase
	for _, proto := range fixture.Protocols() {
		cases = append(cases, WireCase{
			Name:     fmt.Sprintf("eventstream-%s", proto.Name()),
			Protocol: proto,
			Events:   standardEvents(proto),
		})
	}
	return cases
}

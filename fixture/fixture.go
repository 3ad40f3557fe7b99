// Package fixture holds the self-contained test models the analysis and
// harness packages exercise. Models are string literals in the stencil
// definition language; the protocol matrix substitutes the service's
// protocol trait so the same test matrix runs against every supported
// wire protocol.
package fixture

import (
	"github.com/skellig/stencil/compiler/load"
	"github.com/skellig/stencil/model"
	"github.com/skellig/stencil/model/transform"
)

// Well-known shape ids in the event-stream fixture.
const (
	// ServiceID is the designated test service.
	ServiceID = model.ShapeID("test#TestService")
	// OperationID is the designated event-stream operation.
	OperationID = model.ShapeID("test#TestStreamOp")
	// StreamID is the union representing the stream payload.
	StreamID = model.ShapeID("test#TestStream")
)

// Protocols returns the known protocol matrix.
func Protocols() []model.ShapeID {
	return model.KnownProtocols()
}

// EventStreamModel is the event-stream fixture: a single operation whose
// input and output share a structure holding a streaming union with one
// variant per interesting payload kind.
const EventStreamModel = `
$version: "1"
namespace test

@restJson
service TestService {
    operations: [TestStreamOp]
}

operation TestStreamOp {
    input: TestStreamInputOutput
    output: TestStreamInputOutput
    errors: [SomeError]
}

structure TestStreamInputOutput {
    @required
    value: TestStream
}

@streaming
union TestStream {
    messageWithString: String
    messageWithStruct: TestStruct
    messageWithUnion: TestUnion
    messageWithHeaders: MessageWithHeaders
    messageWithNoTraits: MessageWithNoTraits
}

structure TestStruct {
    someString: String
    someInt: Integer
}

union TestUnion {
    foo: String
    bar: TestStruct
}

structure MessageWithHeaders {
    blob: Blob
    boolean: Boolean
    long: Long
    string: String
    timestamp: Timestamp
}

structure MessageWithNoTraits {
    payload: String
}

@error("client")
structure SomeError {
    message: String
}
`

// ConstrainedModel is the constraint-analysis fixture: the MapA/MapB/
// StructureA reachability chain plus one shape per classifier case.
const ConstrainedModel = `
$version: "1"
namespace test

@length(min: 1, max: 69)
map MapA { key: String, value: MapB }

map MapB { key: String, value: StructureA }

structure StructureA {
    @required s: String
    @range(min: 0, max: 10) int: Integer
}

@length(min: 1, max: 8)
string LengthString

@pattern("^[a-z]+$")
string PatternString

@uniqueItems
list UniqueList { member: String }

structure RecursiveShape {
    self: RecursiveShape
}

structure DefaultOnly {
    @default(0) n: Integer
}
`

// EventStream parses the event-stream fixture and substitutes the given
// protocol onto the test service.
func EventStream(proto model.ShapeID) (*model.Model, error) {
	m, err := load.Parse(EventStreamModel)
	if err != nil {
		return nil, err
	}
	return transform.ReplaceProtocol(m, ServiceID, proto), nil
}

// Constrained parses the constraint-analysis fixture.
func Constrained() (*model.Model, error) {
	return load.Parse(ConstrainedModel)
}

package model

import "fmt"

// Kind identifies the structural type of a shape node.
type Kind int

// The closed set of shape kinds.
const (
	KindInvalid Kind = iota
	KindString
	KindBoolean
	KindInteger
	KindLong
	KindBlob
	KindTimestamp
	KindList
	KindMap
	KindStructure
	KindUnion
	KindMember
	KindService
	KindOperation
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindString:    "string",
	KindBoolean:   "boolean",
	KindInteger:   "integer",
	KindLong:      "long",
	KindBlob:      "blob",
	KindTimestamp: "timestamp",
	KindList:      "list",
	KindMap:       "map",
	KindStructure: "structure",
	KindUnion:     "union",
	KindMember:    "member",
	KindService:   "service",
	KindOperation: "operation",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsScalar reports whether the kind is a simple (non-aggregate) value type.
func (k Kind) IsScalar() bool {
	switch k {
	case KindString, KindBoolean, KindInteger, KindLong, KindBlob, KindTimestamp:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("marshal kind: unknown kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unmarshal kind: unknown kind %q", string(text))
}

// KindForName returns the kind named by a model-source keyword.
func KindForName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name && Kind(i) != KindInvalid {
			return Kind(i), true
		}
	}
	return KindInvalid, false
}

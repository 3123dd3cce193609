package sunspec

import "fmt"

// NativeKind is the semantic kind a wire type decodes to.
type NativeKind uint8

const (
	KindInteger NativeKind = iota
	KindFloat
	KindText
)

func (k NativeKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	}
	return fmt.Sprintf("NativeKind(%d)", uint8(k))
}

// ValueType is one of the primitive SunSpec wire types.
type ValueType uint8

const (
	Int16 ValueType = iota
	Uint16
	Int32
	Uint32
	Uint64
	Float32
	String
)

type valueTypeInfo struct {
	name      string
	kind      NativeKind
	width     uint16
	bits      uint
	sentinel  uint64
	signed    bool
	hasSentry bool
}

var valueTypes = [...]valueTypeInfo{
	Int16:   {name: "int16", kind: KindInteger, width: 1, bits: 16, sentinel: 0x8000, signed: true, hasSentry: true},
	Uint16:  {name: "uint16", kind: KindInteger, width: 1, bits: 16, sentinel: 0xFFFF, hasSentry: true},
	Int32:   {name: "int32", kind: KindInteger, width: 2, bits: 32, sentinel: 0x80000000, signed: true, hasSentry: true},
	Uint32:  {name: "uint32", kind: KindInteger, width: 2, bits: 32, sentinel: 0xFFFFFFFF, hasSentry: true},
	Uint64:  {name: "uint64", kind: KindInteger, width: 4, bits: 64, sentinel: 0xFFFFFFFFFFFFFFFF, hasSentry: true},
	Float32: {name: "float32", kind: KindFloat, width: 2, bits: 32, sentinel: 0x7FC00000, hasSentry: true},
	String:  {name: "string", kind: KindText},
}

func (t ValueType) info() valueTypeInfo {
	if int(t) < len(valueTypes) {
		return valueTypes[t]
	}
	return valueTypeInfo{name: fmt.Sprintf("ValueType(%d)", uint8(t))}
}

func (t ValueType) String() string {
	return t.info().name
}

func (t ValueType) Kind() NativeKind {
	return t.info().kind
}

// WordWidth is the number of 16-bit registers the type occupies.
// Strings return 0, their width is declared per register.
func (t ValueType) WordWidth() uint16 {
	return t.info().width
}

// Sentinel returns the raw bit pattern meaning "not implemented".
// String has the empty text as sentinel and reports 0.
func (t ValueType) Sentinel() uint64 {
	return t.info().sentinel
}

func (t ValueType) isSentinel(bits uint64) bool {
	i := t.info()
	return i.hasSentry && bits == i.sentinel
}

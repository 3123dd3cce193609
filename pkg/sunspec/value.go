package sunspec

import "math"

// Value is a decoded register value or a value to be encoded.
// The concrete type is one of Bool, Int, Uint, Float or Text.
type Value interface {
	sunspecValue()
}

type Bool bool

type Int int64

type Uint uint64

type Float float64

type Text string

func (Bool) sunspecValue()  {}
func (Int) sunspecValue()   {}
func (Uint) sunspecValue()  {}
func (Float) sunspecValue() {}
func (Text) sunspecValue()  {}

// Payload maps register identifiers to decoded values.
type Payload map[string]Value

// Supported reports whether id was decoded to something other than the
// not-implemented marker. A register holding a genuine boolean false is
// indistinguishable from an unsupported one.
func (p Payload) Supported(id string) bool {
	v, ok := p[id]
	if !ok {
		return false
	}
	if b, isBool := v.(Bool); isBool && !bool(b) {
		return false
	}
	return true
}

func (p Payload) Int(id string) (int64, bool) {
	switch v := p[id].(type) {
	case Int:
		return int64(v), true
	case Uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

func (p Payload) Uint(id string) (uint64, bool) {
	switch v := p[id].(type) {
	case Uint:
		return uint64(v), true
	case Int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	}
	return 0, false
}

func (p Payload) Float(id string) (float64, bool) {
	switch v := p[id].(type) {
	case Float:
		return float64(v), true
	case Int:
		return float64(v), true
	case Uint:
		return float64(v), true
	}
	return 0, false
}

func (p Payload) Bool(id string) (bool, bool) {
	v, ok := p[id].(Bool)
	return bool(v), ok
}

func (p Payload) Text(id string) (string, bool) {
	v, ok := p[id].(Text)
	return string(v), ok
}

// Merge copies every entry of other into p.
func (p Payload) Merge(other Payload) {
	for k, v := range other {
		p[k] = v
	}
}

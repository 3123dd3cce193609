package sunspec

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// WordOrder says how consecutive registers combine into one value.
type WordOrder uint8

const (
	// BigEndian puts the most significant word first.
	BigEndian WordOrder = iota
	// LittleEndian puts the least significant word first.
	LittleEndian
)

func (o WordOrder) String() string {
	if o == LittleEndian {
		return "little"
	}
	return "big"
}

var errInvalidText = errors.New("register bytes are not valid UTF-8")

func combineWords(words []uint16, order WordOrder) uint64 {
	var v uint64
	n := len(words)
	for i := 0; i < n; i++ {
		w := words[i]
		if order == LittleEndian {
			w = words[n-1-i]
		}
		v = v<<16 | uint64(w)
	}
	return v
}

func splitWords(v uint64, n int, order WordOrder) []uint16 {
	words := make([]uint16, n)
	for i := n - 1; i >= 0; i-- {
		words[i] = uint16(v)
		v >>= 16
	}
	if order == LittleEndian {
		slices.Reverse(words)
	}
	return words
}

func wordsToBytes(words []uint16, order WordOrder) []byte {
	buf := make([]byte, 0, len(words)*2)
	for i := range words {
		w := words[i]
		if order == LittleEndian {
			w = words[len(words)-1-i]
		}
		buf = append(buf, byte(w>>8), byte(w))
	}
	return buf
}

func bytesToWords(buf []byte, n int, order WordOrder) []uint16 {
	padded := make([]byte, n*2)
	copy(padded, buf)
	words := make([]uint16, n)
	for i := range words {
		words[i] = uint16(padded[2*i])<<8 | uint16(padded[2*i+1])
	}
	if order == LittleEndian {
		slices.Reverse(words)
	}
	return words
}

func decodeText(words []uint16, order WordOrder) (string, error) {
	buf := bytes.TrimRight(wordsToBytes(words, order), "\x00")
	if !utf8.Valid(buf) {
		return "", errInvalidText
	}
	return strings.TrimRightFunc(string(buf), func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	}), nil
}

// decodeWords converts raw words to a native value. The second result is
// false when the words hold the type's not-implemented sentinel.
func decodeWords(t ValueType, words []uint16, order WordOrder) (Value, bool, error) {
	if t == String {
		s, err := decodeText(words, order)
		return Text(s), true, err
	}
	bits := combineWords(words, order)
	if t.isSentinel(bits) {
		return Bool(false), false, nil
	}
	switch t {
	case Int16:
		return Int(int16(bits)), true, nil
	case Int32:
		return Int(int32(bits)), true, nil
	case Uint16, Uint32, Uint64:
		return Uint(bits), true, nil
	case Float32:
		return Float(math.Float32frombits(uint32(bits))), true, nil
	}
	return nil, false, fmt.Errorf("unknown value type %s", t)
}

func encodeValue(t ValueType, v Value, length uint16, order WordOrder) ([]uint16, error) {
	if b, ok := v.(Bool); ok {
		if b {
			v = Int(1)
		} else {
			v = Int(0)
		}
	}
	switch t.Kind() {
	case KindText:
		s, ok := v.(Text)
		if !ok {
			return nil, ErrTypeMismatch
		}
		if len(s) > int(length)*2 {
			return nil, ErrOutOfRange
		}
		return bytesToWords([]byte(s), int(length), order), nil
	case KindFloat:
		var f float64
		switch x := v.(type) {
		case Float:
			f = float64(x)
		case Int:
			f = float64(x)
		case Uint:
			f = float64(x)
		default:
			return nil, ErrTypeMismatch
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, ErrOutOfRange
		}
		return splitWords(uint64(math.Float32bits(float32(f))), int(t.WordWidth()), order), nil
	default:
		bits, err := integerBits(t, v)
		if err != nil {
			return nil, err
		}
		return splitWords(bits, int(t.WordWidth()), order), nil
	}
}

func integerBits(t ValueType, v Value) (uint64, error) {
	info := t.info()
	if info.signed {
		maxVal := int64(1)<<(info.bits-1) - 1
		minVal := -maxVal - 1
		var n int64
		switch x := v.(type) {
		case Int:
			n = int64(x)
		case Uint:
			if uint64(x) > uint64(maxVal) {
				return 0, ErrOutOfRange
			}
			n = int64(x)
		default:
			return 0, ErrTypeMismatch
		}
		if n < minVal || n > maxVal {
			return 0, ErrOutOfRange
		}
		return uint64(n) & (1<<info.bits - 1), nil
	}
	var n uint64
	switch x := v.(type) {
	case Int:
		if x < 0 {
			return 0, ErrOutOfRange
		}
		n = uint64(x)
	case Uint:
		n = uint64(x)
	default:
		return 0, ErrTypeMismatch
	}
	if info.bits < 64 && n > 1<<info.bits-1 {
		return 0, ErrOutOfRange
	}
	return n, nil
}

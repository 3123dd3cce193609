package sunspec

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedData = errors.New("malformed register data")
	ErrTypeMismatch  = errors.New("value type mismatch")
	ErrOutOfRange    = errors.New("value out of range")
)

// DecodeError reports raw words that could not be converted to a value.
type DecodeError struct {
	Register string
	Address  uint16
	Raw      []uint16
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid data in register '%s' at address %d: %v", e.Register, e.Address, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedData
}

// EncodeError reports a value that cannot be written to a register.
type EncodeError struct {
	Register string
	Type     ValueType
	Value    Value
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %T(%v) into %s register '%s': %v", e.Value, e.Value, e.Type, e.Register, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

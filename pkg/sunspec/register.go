package sunspec

import (
	"fmt"
	"slices"
)

// PostDecodeFunc rewrites the generic decode result of a register inside
// the output payload. It runs after the register value has been stored.
type PostDecodeFunc func(r *Register, out Payload) error

// RegisterDef declares one register of a table.
// Length overrides the type width and is mandatory for String.
type RegisterDef struct {
	ID         string
	Address    uint16
	Type       ValueType
	Required   bool
	Length     uint16
	PostDecode PostDecodeFunc
}

// Register is an immutable register definition bound to its table's word order.
type Register struct {
	id       string
	address  uint16
	typ      ValueType
	required bool
	length   uint16
	order    WordOrder
	post     PostDecodeFunc
}

func newRegister(def RegisterDef, order WordOrder) (*Register, error) {
	length := def.Length
	if length == 0 {
		length = def.Type.WordWidth()
	}
	if length == 0 {
		return nil, fmt.Errorf("register %s: %s needs an explicit length", def.ID, def.Type)
	}
	if uint32(def.Address)+uint32(length) > 1<<16 {
		return nil, fmt.Errorf("register %s: range %d+%d exceeds the address space", def.ID, def.Address, length)
	}
	return &Register{
		id:       def.ID,
		address:  def.Address,
		typ:      def.Type,
		required: def.Required,
		length:   length,
		order:    order,
		post:     def.PostDecode,
	}, nil
}

func (r *Register) ID() string {
	return r.id
}

func (r *Register) Address() uint16 {
	return r.address
}

func (r *Register) Type() ValueType {
	return r.typ
}

func (r *Register) Required() bool {
	return r.required
}

// Length is the number of words read or written for this register.
func (r *Register) Length() uint16 {
	return r.length
}

// EndAddress is the first address after the register.
func (r *Register) EndAddress() uint32 {
	return uint32(r.address) + uint32(r.length)
}

func (r *Register) WordOrder() WordOrder {
	return r.order
}

func (r *Register) String() string {
	return fmt.Sprintf("%s@%d(%s,%d)", r.id, r.address, r.typ, r.length)
}

// Decode converts raw, which must be exactly Length words long, and stores
// the result in out. A nil out allocates a new payload.
func (r *Register) Decode(raw []uint16, out Payload) (Payload, error) {
	if len(raw) != int(r.length) {
		return nil, r.decodeError(raw, fmt.Errorf("expected %d words, got %d", r.length, len(raw)))
	}
	v, _, err := decodeWords(r.typ, raw, r.order)
	if err != nil {
		return nil, r.decodeError(raw, err)
	}
	decoded := Payload{r.id: v}
	if r.post != nil {
		if err := r.post(r, decoded); err != nil {
			return nil, r.decodeError(raw, err)
		}
	}
	if out == nil {
		return decoded, nil
	}
	out.Merge(decoded)
	return out, nil
}

// Encode converts v to the words to be written at Address.
// The not-implemented sentinel gets no special treatment.
func (r *Register) Encode(v Value) ([]uint16, error) {
	words, err := encodeValue(r.typ, v, r.length, r.order)
	if err != nil {
		return nil, &EncodeError{Register: r.id, Type: r.typ, Value: v, Err: err}
	}
	return words, nil
}

func (r *Register) decodeError(raw []uint16, err error) error {
	return &DecodeError{
		Register: r.id,
		Address:  r.address,
		Raw:      slices.Clone(raw),
		Err:      err,
	}
}

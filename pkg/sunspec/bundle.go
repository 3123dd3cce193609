package sunspec

import (
	"fmt"
	"slices"
)

// MaxBundleSpan is the largest number of registers requested in one read.
const MaxBundleSpan = 120

// Bundle is a contiguous address window read with a single request.
type Bundle struct {
	registers []*Register
	address   uint16
	end       uint32
}

func (b *Bundle) add(r *Register) {
	if len(b.registers) == 0 || r.address < b.address {
		b.address = r.address
	}
	if r.EndAddress() > b.end {
		b.end = r.EndAddress()
	}
	b.registers = append(b.registers, r)
}

func (b *Bundle) empty() bool {
	return len(b.registers) == 0
}

func (b *Bundle) contains(r *Register) bool {
	return r.address >= b.address && r.EndAddress() <= b.end
}

func (b *Bundle) Address() uint16 {
	return b.address
}

func (b *Bundle) EndAddress() uint32 {
	return b.end
}

// Span is the number of registers covered by the bundle.
func (b *Bundle) Span() uint16 {
	return uint16(b.end - uint32(b.address))
}

// Registers returns the members in decode order.
func (b *Bundle) Registers() []*Register {
	return slices.Clone(b.registers)
}

func (b *Bundle) String() string {
	return fmt.Sprintf("bundle@%d+%d(%d registers)", b.address, b.Span(), len(b.registers))
}

// Decode splits raw, the words read from Address, among the members and
// decodes each of them. Any member failure fails the whole bundle and out
// is left untouched.
func (b *Bundle) Decode(raw []uint16, out Payload) (Payload, error) {
	if len(raw) < int(b.Span()) {
		first := b.registers[0]
		return nil, &DecodeError{
			Register: first.id,
			Address:  b.address,
			Raw:      slices.Clone(raw),
			Err:      fmt.Errorf("short read: expected %d words, got %d", b.Span(), len(raw)),
		}
	}
	decoded := Payload{}
	for _, r := range b.registers {
		offset := int(r.address - b.address)
		if _, err := r.Decode(raw[offset:offset+int(r.length)], decoded); err != nil {
			return nil, err
		}
	}
	if out == nil {
		return decoded, nil
	}
	out.Merge(decoded)
	return out, nil
}

// PlanBundles packs registers into bundles no wider than window. With
// requiredOnly set, only required registers drive the plan and optional
// registers lying fully inside a planned bundle are added afterwards.
func PlanBundles(registers []*Register, requiredOnly bool, window uint16) []*Bundle {
	sorted := slices.Clone(registers)
	slices.SortStableFunc(sorted, func(a, b *Register) int {
		return int(a.address) - int(b.address)
	})

	var bundles []*Bundle
	current := &Bundle{}
	for _, r := range sorted {
		if requiredOnly && !r.required {
			continue
		}
		if !current.empty() && r.EndAddress()-uint32(current.address) > uint32(window) {
			bundles = append(bundles, current)
			current = &Bundle{}
		}
		current.add(r)
	}
	if !current.empty() {
		bundles = append(bundles, current)
	}

	if requiredOnly {
		for _, r := range sorted {
			if r.required {
				continue
			}
			for _, b := range bundles {
				if b.contains(r) {
					b.add(r)
					break
				}
			}
		}
	}
	return bundles
}

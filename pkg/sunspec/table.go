package sunspec

import (
	"fmt"
	"slices"
	"sync"
)

// Table is an immutable, ordered register catalog for one device role.
type Table struct {
	name      string
	order     WordOrder
	registers []*Register
	index     map[string]*Register

	plans [2]bundlePlan
}

type bundlePlan struct {
	once    sync.Once
	bundles []*Bundle
}

// NewTable builds a table from its declarations. Register ids must be
// unique; addresses may alias on purpose.
func NewTable(name string, order WordOrder, defs ...RegisterDef) (*Table, error) {
	t := &Table{
		name:      name,
		order:     order,
		registers: make([]*Register, 0, len(defs)),
		index:     make(map[string]*Register, len(defs)),
	}
	for _, def := range defs {
		if _, ok := t.index[def.ID]; ok {
			return nil, fmt.Errorf("table %s: duplicate register %s", name, def.ID)
		}
		r, err := newRegister(def, order)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		t.registers = append(t.registers, r)
		t.index[r.id] = r
	}
	return t, nil
}

// MustTable is like NewTable but panics on an invalid declaration.
func MustTable(name string, order WordOrder, defs ...RegisterDef) *Table {
	t, err := NewTable(name, order, defs...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) WordOrder() WordOrder {
	return t.order
}

func (t *Table) Len() int {
	return len(t.registers)
}

// Registers returns the registers in declaration order.
func (t *Table) Registers() []*Register {
	return slices.Clone(t.registers)
}

func (t *Table) Register(id string) (*Register, bool) {
	r, ok := t.index[id]
	return r, ok
}

func (t *Table) MustRegister(id string) *Register {
	r, ok := t.index[id]
	if !ok {
		panic(fmt.Sprintf("table %s: unknown register %s", t.name, id))
	}
	return r
}

// Bundles returns the read plan of the table. The plan is computed once
// per flag and shared by all callers.
func (t *Table) Bundles(requiredOnly bool) []*Bundle {
	p := &t.plans[0]
	if requiredOnly {
		p = &t.plans[1]
	}
	p.once.Do(func() {
		p.bundles = PlanBundles(t.registers, requiredOnly, MaxBundleSpan)
	})
	return slices.Clone(p.bundles)
}

// Decode decodes a full read of every bundle in the plan, keyed by bundle
// address.
func (t *Table) Decode(requiredOnly bool, reads map[uint16][]uint16) (Payload, error) {
	out := Payload{}
	for _, b := range t.Bundles(requiredOnly) {
		raw, ok := reads[b.Address()]
		if !ok {
			continue
		}
		if _, err := b.Decode(raw, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

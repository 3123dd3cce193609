package sunspec_modbus

import (
	"fmt"
	"slices"
	"sync"
)

// Write records one WriteRegisters call seen by a MemoryTransport.
type Write struct {
	Address uint16
	Values  []uint16
}

// MemoryTransport serves a register image from memory.
type MemoryTransport struct {
	mu        sync.Mutex
	registers map[uint16]uint16
	failing   map[uint16]bool
	writes    []Write
	reads     int
	open      bool
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		registers: map[uint16]uint16{},
		failing:   map[uint16]bool{},
	}
}

func (m *MemoryTransport) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	return nil
}

func (m *MemoryTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

// Set stores words starting at addr.
func (m *MemoryTransport) Set(addr uint16, words ...uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range words {
		m.registers[addr+uint16(i)] = w
	}
}

// Get returns n words starting at addr. Unset registers read as zero.
func (m *MemoryTransport) Get(addr uint16, n int) []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(addr, n)
}

func (m *MemoryTransport) get(addr uint16, n int) []uint16 {
	words := make([]uint16, n)
	for i := range words {
		words[i] = m.registers[addr+uint16(i)]
	}
	return words
}

// Fail makes every read or write starting at addr return an error.
func (m *MemoryTransport) Fail(addr uint16, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[addr] = fail
}

func (m *MemoryTransport) ReadRegisters(addr uint16, quantity uint16) ([]uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failing[addr] {
		return nil, fmt.Errorf("illegal data address %d", addr)
	}
	return m.get(addr, int(quantity)), nil
}

func (m *MemoryTransport) WriteRegisters(addr uint16, values []uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[addr] {
		return fmt.Errorf("illegal data address %d", addr)
	}
	m.writes = append(m.writes, Write{Address: addr, Values: slices.Clone(values)})
	for i, w := range values {
		m.registers[addr+uint16(i)] = w
	}
	return nil
}

func (m *MemoryTransport) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.writes)
}

func (m *MemoryTransport) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

package sunspec

// Offset locates a repeated sub-device relative to the first one.
type Offset struct {
	ID    string
	Index int
	Delta uint16
}

var MeterOffsets = []Offset{
	{ID: "meter0", Index: 0, Delta: 0},
	{ID: "meter1", Index: 1, Delta: 174},
	{ID: "meter2", Index: 2, Delta: 348},
}

var BatteryOffsets = []Offset{
	{ID: "battery0", Index: 0, Delta: 0},
	{ID: "battery1", Index: 1, Delta: 256},
}

// offsetAliases declares one register per offset, aliasing base shifted by
// the offset delta.
func offsetAliases(base *Register, offsets []Offset) []RegisterDef {
	defs := make([]RegisterDef, 0, len(offsets))
	for _, o := range offsets {
		defs = append(defs, RegisterDef{
			ID:       o.ID,
			Address:  base.Address() + o.Delta,
			Type:     base.Type(),
			Required: true,
			Length:   base.Length(),
		})
	}
	return defs
}

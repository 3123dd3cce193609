package sunspec

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegister(t *testing.T, order WordOrder, def RegisterDef) *Register {
	t.Helper()
	table, err := NewTable("test", order, def)
	require.NoError(t, err)
	return table.MustRegister(def.ID)
}

func TestValueTypeCatalog(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(uint16(1), Int16.WordWidth())
	assert.Equal(uint16(1), Uint16.WordWidth())
	assert.Equal(uint16(2), Int32.WordWidth())
	assert.Equal(uint16(2), Uint32.WordWidth())
	assert.Equal(uint16(4), Uint64.WordWidth())
	assert.Equal(uint16(2), Float32.WordWidth())
	assert.Equal(uint16(0), String.WordWidth())

	assert.Equal(KindInteger, Uint64.Kind())
	assert.Equal(KindFloat, Float32.Kind())
	assert.Equal(KindText, String.Kind())

	assert.Equal(uint64(0x8000), Int16.Sentinel())
	assert.Equal(uint64(0xFFFF), Uint16.Sentinel())
	assert.Equal(uint64(0x80000000), Int32.Sentinel())
	assert.Equal(uint64(0xFFFFFFFF), Uint32.Sentinel())
	assert.Equal(uint64(0xFFFFFFFFFFFFFFFF), Uint64.Sentinel())
	assert.Equal(uint64(0x7FC00000), Float32.Sentinel())
	assert.Equal("float32", Float32.String())
}

func TestRegisterEndAddress(t *testing.T) {

	assert := assert.New(t)

	for _, table := range Tables() {
		for _, r := range table.Registers() {
			if r.Type() == String {
				assert.NotZero(r.Length(), r.String())
			} else {
				assert.Equal(r.Type().WordWidth(), r.Length(), r.String())
			}
			assert.Equal(uint32(r.Address())+uint32(r.Length()), r.EndAddress(), r.String())
			assert.Equal(table.WordOrder(), r.WordOrder(), r.String())
		}
	}

	manufacturer := InverterInfo.MustRegister(CommonManufacturer)
	assert.Equal(uint32(40020), manufacturer.EndAddress())
}

func TestRegisterInvalidDeclaration(t *testing.T) {

	assert := assert.New(t)

	_, err := NewTable("bad", BigEndian, RegisterDef{ID: "name", Address: 10, Type: String})
	assert.Error(err)

	_, err = NewTable("bad", BigEndian,
		RegisterDef{ID: "a", Address: 10, Type: Uint16},
		RegisterDef{ID: "a", Address: 11, Type: Uint16},
	)
	assert.Error(err)

	_, err = NewTable("bad", BigEndian, RegisterDef{ID: "a", Address: 65535, Type: Uint32})
	assert.Error(err)
}

func TestWordOrder(t *testing.T) {

	assert := assert.New(t)

	big := testRegister(t, BigEndian, RegisterDef{ID: "v", Address: 0, Type: Uint32})
	little := testRegister(t, LittleEndian, RegisterDef{ID: "v", Address: 0, Type: Uint32})

	p, err := big.Decode([]uint16{0x0001, 0x0002}, nil)
	assert.NoError(err)
	assert.Equal(Uint(0x00010002), p["v"])

	p, err = little.Decode([]uint16{0x0001, 0x0002}, nil)
	assert.NoError(err)
	assert.Equal(Uint(0x00020001), p["v"])

	words, err := little.Encode(Uint(0x00020001))
	assert.NoError(err)
	assert.Equal([]uint16{0x0001, 0x0002}, words)
}

func TestSentinelDecodesToFalse(t *testing.T) {

	assert := assert.New(t)

	for _, order := range []WordOrder{BigEndian, LittleEndian} {
		for _, typ := range []ValueType{Int16, Uint16, Int32, Uint32, Uint64, Float32} {
			r := testRegister(t, order, RegisterDef{ID: "v", Address: 100, Type: typ})
			raw := splitWords(typ.Sentinel(), int(typ.WordWidth()), order)
			p, err := r.Decode(raw, Payload{})
			assert.NoError(err)
			assert.Equal(Bool(false), p["v"], "%s %s", typ, order)
			assert.False(p.Supported("v"))
		}
	}
}

func TestRoundTrip(t *testing.T) {

	assert := assert.New(t)

	cases := []struct {
		typ   ValueType
		value Value
	}{
		{Int16, Int(-1234)},
		{Int16, Int(math.MaxInt16)},
		{Int16, Int(-32767)},
		{Uint16, Uint(0)},
		{Uint16, Uint(65534)},
		{Int32, Int(-100000)},
		{Int32, Int(math.MaxInt32)},
		{Uint32, Uint(4000000000)},
		{Uint64, Uint(1<<63 + 5)},
		{Uint64, Uint(42)},
		{Float32, Float(-5.5)},
		{Float32, Float(1234.25)},
	}
	for _, order := range []WordOrder{BigEndian, LittleEndian} {
		for _, c := range cases {
			r := testRegister(t, order, RegisterDef{ID: "v", Address: 200, Type: c.typ})
			words, err := r.Encode(c.value)
			assert.NoError(err)
			assert.Len(words, int(c.typ.WordWidth()))
			p, err := r.Decode(words, nil)
			assert.NoError(err)
			assert.Equal(c.value, p["v"], "%s %s", c.typ, order)
		}
	}
}

func TestEncodeBool(t *testing.T) {

	assert := assert.New(t)

	r := PowerControl.MustRegister(AdvancedPowerControlEnable)
	words, err := r.Encode(Bool(true))
	assert.NoError(err)
	assert.Equal([]uint16{1, 0}, words)

	words, err = r.Encode(Bool(false))
	assert.NoError(err)
	assert.Equal([]uint16{0, 0}, words)

	f := testRegister(t, BigEndian, RegisterDef{ID: "f", Address: 0, Type: Float32})
	words, err = f.Encode(Bool(true))
	assert.NoError(err)
	assert.Equal([]uint16{0x3F80, 0x0000}, words)
}

func TestEncodeTypeMismatch(t *testing.T) {

	assert := assert.New(t)

	u16 := testRegister(t, BigEndian, RegisterDef{ID: "u", Address: 0, Type: Uint16})
	_, err := u16.Encode(Text("on"))
	assert.ErrorIs(err, ErrTypeMismatch)
	var encErr *EncodeError
	assert.True(errors.As(err, &encErr))
	assert.Equal("u", encErr.Register)
	assert.Equal(Uint16, encErr.Type)

	_, err = u16.Encode(Float(1.5))
	assert.ErrorIs(err, ErrTypeMismatch)

	_, err = u16.Encode(Int(70000))
	assert.ErrorIs(err, ErrOutOfRange)

	_, err = u16.Encode(Int(-1))
	assert.ErrorIs(err, ErrOutOfRange)

	i16 := testRegister(t, BigEndian, RegisterDef{ID: "i", Address: 0, Type: Int16})
	_, err = i16.Encode(Uint(40000))
	assert.ErrorIs(err, ErrOutOfRange)

	words, err := i16.Encode(Int(-1))
	assert.NoError(err)
	assert.Equal([]uint16{0xFFFF}, words)

	f := testRegister(t, BigEndian, RegisterDef{ID: "f", Address: 0, Type: Float32})
	_, err = f.Encode(Text("1.0"))
	assert.ErrorIs(err, ErrTypeMismatch)
	_, err = f.Encode(Float(math.MaxFloat64))
	assert.ErrorIs(err, ErrOutOfRange)

	s := testRegister(t, BigEndian, RegisterDef{ID: "s", Address: 0, Type: String, Length: 2})
	_, err = s.Encode(Int(1))
	assert.ErrorIs(err, ErrTypeMismatch)
	_, err = s.Encode(Text("too long"))
	assert.ErrorIs(err, ErrOutOfRange)
}

func TestDecodeString(t *testing.T) {

	assert := assert.New(t)

	r := testRegister(t, BigEndian, RegisterDef{ID: "name", Address: 40004, Type: String, Length: 4})

	p, err := r.Decode([]uint16{0x536F, 0x6C61, 0x7200, 0x0000}, nil)
	assert.NoError(err)
	assert.Equal(Text("Solar"), p["name"])

	p, err = r.Decode([]uint16{0x4142, 0x2020, 0x2000, 0x0000}, nil)
	assert.NoError(err)
	assert.Equal(Text("AB"), p["name"])

	p, err = r.Decode([]uint16{0, 0, 0, 0}, nil)
	assert.NoError(err)
	assert.Equal(Text(""), p["name"])

	words, err := r.Encode(Text("Solar"))
	assert.NoError(err)
	assert.Equal([]uint16{0x536F, 0x6C61, 0x7200, 0x0000}, words)
}

func TestDecodeMalformedString(t *testing.T) {

	assert := assert.New(t)

	r := MeterInfo.MustRegister(CommonModel)
	raw := make([]uint16, r.Length())
	raw[0] = 0xFFFE
	raw[1] = 0xC328

	out := Payload{"existing": Int(1)}
	p, err := r.Decode(raw, out)
	assert.Nil(p)
	assert.ErrorIs(err, ErrMalformedData)

	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal("c_model", decErr.Register)
	assert.Equal(uint16(40139), decErr.Address)
	assert.Equal(raw, decErr.Raw)
	assert.Contains(err.Error(), "invalid data in register 'c_model' at address 40139")
	assert.Equal(Payload{"existing": Int(1)}, out)
}

func TestDecodeWrongLength(t *testing.T) {

	r := Inverter.MustRegister("energy_total")
	_, err := r.Decode([]uint16{1}, nil)
	assert.ErrorIs(t, err, ErrMalformedData)
}

func TestExportControlMode(t *testing.T) {

	assert := assert.New(t)

	r := SiteLimit.MustRegister(ExportControlMode)
	p, err := r.Decode([]uint16{0x0401}, nil)
	assert.NoError(err)
	assert.Equal(Uint(1), p[ExportControlMode])
	assert.Equal(Uint(0x0401), p[ExportControlModeRaw])
	assert.Equal(Bool(true), p[ExportControlExternalProduction])
	assert.Equal(Bool(false), p[ExportControlNegativeSiteLimit])

	p, err = r.Decode([]uint16{0x0807}, nil)
	assert.NoError(err)
	assert.Equal(Uint(3), p[ExportControlMode])
	assert.Equal(Bool(false), p[ExportControlExternalProduction])
	assert.Equal(Bool(true), p[ExportControlNegativeSiteLimit])

	p, err = r.Decode([]uint16{0xFFFF}, nil)
	assert.NoError(err)
	assert.Equal(Bool(false), p[ExportControlModeRaw])
	assert.Equal(Uint(0), p[ExportControlMode])
}

func TestExportControlSiteLimit(t *testing.T) {

	assert := assert.New(t)

	r := SiteLimit.MustRegister(ExportControlSiteLimit)

	words, err := r.Encode(Float(-5.0))
	assert.NoError(err)
	p, err := r.Decode(words, nil)
	assert.NoError(err)
	assert.Equal(Int(0), p[ExportControlSiteLimit])

	words, err = r.Encode(Float(42.7))
	assert.NoError(err)
	p, err = r.Decode(words, nil)
	assert.NoError(err)
	assert.Equal(Int(42), p[ExportControlSiteLimit])

	p, err = r.Decode(splitWords(Float32.Sentinel(), 2, LittleEndian), nil)
	assert.NoError(err)
	assert.Equal(Bool(false), p[ExportControlSiteLimit])

	inf := splitWords(uint64(math.Float32bits(float32(math.Inf(1)))), 2, LittleEndian)
	_, err = r.Decode(inf, nil)
	assert.ErrorIs(err, ErrMalformedData)
}

func TestAdvancedPowerControlEnable(t *testing.T) {

	assert := assert.New(t)

	r := PowerControl.MustRegister(AdvancedPowerControlEnable)
	for raw, expected := range map[uint32]bool{1: true, 0: false, 2: false, 0x80000000: false} {
		p, err := r.Decode(splitWords(uint64(raw), 2, LittleEndian), nil)
		assert.NoError(err)
		assert.Equal(Bool(expected), p[AdvancedPowerControlEnable], "raw %d", raw)
	}
}

func TestStorageControlLimits(t *testing.T) {

	assert := assert.New(t)

	r := StorageControl.MustRegister(StorageChargeLimit)
	words, err := r.Encode(Float(-1))
	assert.NoError(err)
	p, err := r.Decode(words, nil)
	assert.NoError(err)
	assert.Equal(Bool(false), p[StorageChargeLimit])

	words, err = r.Encode(Float(2500))
	assert.NoError(err)
	p, err = r.Decode(words, nil)
	assert.NoError(err)
	assert.Equal(Float(2500), p[StorageChargeLimit])
}

func TestLookupName(t *testing.T) {

	assert := assert.New(t)

	p := Payload{"status": Uint(4), "other": Uint(99), "missing": Bool(false)}
	assert.Equal("Inverter is ON and producing power", LookupName(InverterStatusNames, p, "status"))
	assert.Equal("Unknown (99)", LookupName(InverterStatusNames, p, "other"))
	assert.Equal("Unknown", LookupName(InverterStatusNames, p, "missing"))
}

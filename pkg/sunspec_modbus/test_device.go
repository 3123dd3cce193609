package sunspec_modbus

import (
	"slices"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"go.uber.org/zap"
)

func CreateTestDevice(options Options, logger *zap.Logger) (*Device, *MemoryTransport) {
	transport := NewTestTransport()
	return NewDevice(transport, options, logger), transport
}

// NewTestTransport returns a register image of an inverter with one meter
// and one battery.
func NewTestTransport() *MemoryTransport {
	m := NewMemoryTransport()

	m.Set(40000, 0x5375, 0x6e53) // SunS
	SetTestValue(m, sunspec.InverterInfo, "c_did", sunspec.Uint(1), 0)
	SetTestValue(m, sunspec.InverterInfo, "c_length", sunspec.Uint(65), 0)
	setInfo(m, sunspec.InverterInfo, 0, "SolarEdge", "SE5K-RWS48BEN4", "0004.0020.0036", "7E1234AB")
	SetTestValue(m, sunspec.InverterInfo, sunspec.CommonDeviceAddress, sunspec.Uint(1), 0)
	SetTestValue(m, sunspec.InverterInfo, sunspec.CommonSunSpecDID, sunspec.Uint(103), 0)
	SetTestValue(m, sunspec.InverterInfo, sunspec.CommonSunSpecLength, sunspec.Uint(50), 0)

	inverter := map[string]sunspec.Value{
		"current": sunspec.Uint(1520), "l1_current": sunspec.Uint(507), "l2_current": sunspec.Uint(506),
		"l3_current": sunspec.Uint(507), "current_scale": sunspec.Int(-2),
		"l1_voltage": sunspec.Uint(4001), "l2_voltage": sunspec.Uint(3998), "l3_voltage": sunspec.Uint(4003),
		"l1n_voltage": sunspec.Uint(2311), "l2n_voltage": sunspec.Uint(2308), "l3n_voltage": sunspec.Uint(2310),
		"voltage_scale": sunspec.Int(-1),
		"power_ac": sunspec.Int(3512), "power_ac_scale": sunspec.Int(0),
		"frequency": sunspec.Uint(5001), "frequency_scale": sunspec.Int(-2),
		"power_apparent": sunspec.Int(3530), "power_apparent_scale": sunspec.Int(0),
		"power_reactive": sunspec.Int(-120), "power_reactive_scale": sunspec.Int(0),
		"power_factor": sunspec.Int(9950), "power_factor_scale": sunspec.Int(-2),
		"energy_total": sunspec.Uint(12345678), "energy_total_scale": sunspec.Int(0),
		"current_dc": sunspec.Uint(945), "current_dc_scale": sunspec.Int(-2),
		"voltage_dc": sunspec.Uint(3801), "voltage_dc_scale": sunspec.Int(-1),
		"power_dc": sunspec.Int(3590), "power_dc_scale": sunspec.Int(0),
		"temperature": sunspec.Int(4512), "temperature_scale": sunspec.Int(-2),
		"status": sunspec.Uint(4), "vendor_status": sunspec.Uint(0),
	}
	setValues(m, sunspec.Inverter, inverter, 0)
	SetTestValue(m, sunspec.GridStatus, sunspec.GridStatusOn, sunspec.Uint(0), 0)

	powerControl := map[string]sunspec.Value{
		"rrcr_state": sunspec.Uint(0), sunspec.ActivePowerLimit: sunspec.Uint(100),
		"cosphi": sunspec.Float(1), sunspec.CommitPowerControlSettings: sunspec.Int(0),
		sunspec.RestorePowerControlSettings: sunspec.Int(0), sunspec.ReactivePowerConfig: sunspec.Int(0),
		"reactive_power_response_time": sunspec.Uint(200), sunspec.AdvancedPowerControlEnable: sunspec.Int(1),
	}
	setValues(m, sunspec.PowerControl, powerControl, 0)
	SetTestValue(m, sunspec.SiteLimit, sunspec.ExportControlMode, sunspec.Uint(0x0401), 0)
	SetTestValue(m, sunspec.SiteLimit, "export_control_limit_mode", sunspec.Uint(0), 0)
	SetTestValue(m, sunspec.SiteLimit, sunspec.ExportControlSiteLimit, sunspec.Float(4500.5), 0)

	// meter0 present, meter1 and meter2 empty
	meter := sunspec.MeterOffsets[0]
	SetTestValue(m, sunspec.InverterInfo, meter.ID, sunspec.Uint(203), 0)
	for _, o := range sunspec.MeterOffsets[1:] {
		SetTestValue(m, sunspec.InverterInfo, o.ID, sunspec.Uint(0), 0)
	}
	setInfo(m, sunspec.MeterInfo, meter.Delta, "WattNode", "WNC-3Y-400-MB", "2.15", "6012345")
	SetTestValue(m, sunspec.MeterInfo, sunspec.CommonOption, sunspec.Text("Export+Import"), meter.Delta)
	SetTestValue(m, sunspec.MeterInfo, sunspec.CommonDeviceAddress, sunspec.Uint(2), meter.Delta)
	meterValues := map[string]sunspec.Value{
		"current": sunspec.Int(812), "current_scale": sunspec.Int(-2),
		"voltage_ln": sunspec.Int(2305), "voltage_lln": sunspec.Int(3992), "voltage_scale": sunspec.Int(-1),
		"frequency": sunspec.Uint(4999), "frequency_scale": sunspec.Int(-2),
		"power": sunspec.Int(-1250), "power_scale": sunspec.Int(0),
		"power_apparent": sunspec.Int(1270), "power_apparent_scale": sunspec.Int(0),
		"power_reactive": sunspec.Int(60), "power_reactive_scale": sunspec.Int(0),
		"power_factor": sunspec.Int(-98), "power_factor_scale": sunspec.Int(-2),
		"export_energy_active": sunspec.Uint(2770340), "import_energy_active": sunspec.Uint(550220),
		"energy_active_scale": sunspec.Int(0),
	}
	setValues(m, sunspec.Meter, meterValues, meter.Delta)
	for _, r := range sunspec.Meter.Registers() {
		if _, ok := meterValues[r.ID()]; !ok && r.Type() != sunspec.String {
			m.Set(r.Address()+meter.Delta, sentinelWords(r)...)
		}
	}
	SetTestValue(m, sunspec.Meter, "l1_power", sunspec.Int(-420), meter.Delta)

	// battery0 present, battery1 empty
	battery := sunspec.BatteryOffsets[0]
	SetTestValue(m, sunspec.InverterInfo, battery.ID, sunspec.Uint(15), 0)
	SetTestValue(m, sunspec.InverterInfo, sunspec.BatteryOffsets[1].ID, sunspec.Uint(sunspec.BatteryNotPresent), 0)
	setInfo(m, sunspec.BatteryInfo, battery.Delta, "SolarEdge", "BAT-10K1P", "DSPM 1.0.2", "BT7E1234")
	SetTestValue(m, sunspec.BatteryInfo, sunspec.CommonSunSpecDID, sunspec.Uint(803), battery.Delta)
	batteryValues := map[string]sunspec.Value{
		"instantaneous_voltage": sunspec.Float(812.5), "instantaneous_current": sunspec.Float(-1.25),
		"instantaneous_power": sunspec.Float(-1015.5), "soh": sunspec.Float(99),
		"soe": sunspec.Float(56.5), "status": sunspec.Uint(4),
		"lifetime_export_energy_counter": sunspec.Uint(1834000), "lifetime_import_energy_counter": sunspec.Uint(2034000),
		"maximum_energy": sunspec.Float(9700), "available_energy": sunspec.Float(5480.5),
	}
	setValues(m, sunspec.Battery, batteryValues, battery.Delta)

	storage := map[string]sunspec.Value{
		sunspec.StorageControlMode: sunspec.Uint(4), sunspec.StorageACChargePolicy: sunspec.Uint(1),
		sunspec.StorageACChargeLimit: sunspec.Float(-1), sunspec.StorageBackupReserve: sunspec.Float(20),
		sunspec.StorageDefaultMode: sunspec.Uint(7), sunspec.StorageCommandTimeout: sunspec.Uint(3600),
		sunspec.StorageCommandMode: sunspec.Uint(7), sunspec.StorageChargeLimit: sunspec.Float(5000),
		sunspec.StorageDischargeLimit: sunspec.Float(-1),
	}
	setValues(m, sunspec.StorageControl, storage, 0)

	return m
}

// SetTestValue encodes value into the image at the register address
// shifted by offset. It panics on encode errors.
func SetTestValue(m *MemoryTransport, table *sunspec.Table, id string, value sunspec.Value, offset uint16) {
	r := table.MustRegister(id)
	words, err := r.Encode(value)
	if err != nil {
		panic(err)
	}
	m.Set(r.Address()+offset, words...)
}

func setValues(m *MemoryTransport, table *sunspec.Table, values map[string]sunspec.Value, offset uint16) {
	for id, v := range values {
		SetTestValue(m, table, id, v, offset)
	}
}

func setInfo(m *MemoryTransport, table *sunspec.Table, offset uint16, manufacturer, model, version, serial string) {
	SetTestValue(m, table, sunspec.CommonManufacturer, sunspec.Text(manufacturer), offset)
	SetTestValue(m, table, sunspec.CommonModel, sunspec.Text(model), offset)
	SetTestValue(m, table, sunspec.CommonVersion, sunspec.Text(version), offset)
	SetTestValue(m, table, sunspec.CommonSerialNumber, sunspec.Text(serial), offset)
}

func sentinelWords(r *sunspec.Register) []uint16 {
	bits := r.Type().Sentinel()
	words := make([]uint16, r.Length())
	for i := len(words) - 1; i >= 0; i-- {
		words[i] = uint16(bits)
		bits >>= 16
	}
	if r.WordOrder() == sunspec.LittleEndian {
		slices.Reverse(words)
	}
	return words
}

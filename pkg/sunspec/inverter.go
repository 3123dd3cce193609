package sunspec

import (
	"errors"
	"math"
)

// Common block identifiers shared by inverter, meter and battery info tables.
const (
	CommonManufacturer  = "c_manufacturer"
	CommonModel         = "c_model"
	CommonOption        = "c_option"
	CommonVersion       = "c_version"
	CommonSerialNumber  = "c_serialnumber"
	CommonDeviceAddress = "c_deviceaddress"
	CommonSunSpecDID    = "c_sunspec_did"
	CommonSunSpecLength = "c_sunspec_length"
)

const (
	AdvancedPowerControlEnable      = "advanced_power_control_enable"
	CommitPowerControlSettings      = "commit_power_control_settings"
	RestorePowerControlSettings     = "restore_power_control_settings"
	ReactivePowerConfig             = "reactive_power_config"
	ActivePowerLimit                = "active_power_limit"
	ExportControlMode               = "export_control_mode"
	ExportControlModeRaw            = "export_control_mode_raw"
	ExportControlExternalProduction = "export_control_external_production"
	ExportControlNegativeSiteLimit  = "export_control_negative_site_limit"
	ExportControlSiteLimit          = "export_control_site_limit"
	GridStatusOn                    = "grid_status"
)

var InverterInfo = MustTable("inverter_info", BigEndian, append([]RegisterDef{
	{ID: "c_id", Address: 40000, Type: String, Length: 2},
	{ID: "c_did", Address: 40002, Type: Uint16},
	{ID: "c_length", Address: 40003, Type: Uint16},
	{ID: CommonManufacturer, Address: 40004, Type: String, Required: true, Length: 16},
	{ID: CommonModel, Address: 40020, Type: String, Required: true, Length: 16},
	{ID: CommonVersion, Address: 40044, Type: String, Required: true, Length: 8},
	{ID: CommonSerialNumber, Address: 40052, Type: String, Required: true, Length: 16},
	{ID: CommonDeviceAddress, Address: 40068, Type: Uint16, Required: true},
	{ID: CommonSunSpecDID, Address: 40069, Type: Uint16, Required: true},
	{ID: CommonSunSpecLength, Address: 40070, Type: Uint16},
}, append(
	offsetAliases(MeterInfo.MustRegister(CommonSunSpecDID), MeterOffsets),
	offsetAliases(BatteryInfo.MustRegister(CommonDeviceAddress), BatteryOffsets)...,
)...)...)

var Inverter = MustTable("inverter", BigEndian,
	RegisterDef{ID: "current", Address: 40071, Type: Uint16, Required: true},
	RegisterDef{ID: "l1_current", Address: 40072, Type: Uint16},
	RegisterDef{ID: "l2_current", Address: 40073, Type: Uint16},
	RegisterDef{ID: "l3_current", Address: 40074, Type: Uint16},
	RegisterDef{ID: "current_scale", Address: 40075, Type: Int16, Required: true},
	RegisterDef{ID: "l1_voltage", Address: 40076, Type: Uint16, Required: true},
	RegisterDef{ID: "l2_voltage", Address: 40077, Type: Uint16, Required: true},
	RegisterDef{ID: "l3_voltage", Address: 40078, Type: Uint16, Required: true},
	RegisterDef{ID: "l1n_voltage", Address: 40079, Type: Uint16, Required: true},
	RegisterDef{ID: "l2n_voltage", Address: 40080, Type: Uint16, Required: true},
	RegisterDef{ID: "l3n_voltage", Address: 40081, Type: Uint16, Required: true},
	RegisterDef{ID: "voltage_scale", Address: 40082, Type: Int16, Required: true},
	RegisterDef{ID: "power_ac", Address: 40083, Type: Int16, Required: true},
	RegisterDef{ID: "power_ac_scale", Address: 40084, Type: Int16, Required: true},
	RegisterDef{ID: "frequency", Address: 40085, Type: Uint16, Required: true},
	RegisterDef{ID: "frequency_scale", Address: 40086, Type: Int16, Required: true},
	RegisterDef{ID: "power_apparent", Address: 40087, Type: Int16, Required: true},
	RegisterDef{ID: "power_apparent_scale", Address: 40088, Type: Int16, Required: true},
	RegisterDef{ID: "power_reactive", Address: 40089, Type: Int16, Required: true},
	RegisterDef{ID: "power_reactive_scale", Address: 40090, Type: Int16, Required: true},
	RegisterDef{ID: "power_factor", Address: 40091, Type: Int16, Required: true},
	RegisterDef{ID: "power_factor_scale", Address: 40092, Type: Int16, Required: true},
	RegisterDef{ID: "energy_total", Address: 40093, Type: Uint32, Required: true},
	RegisterDef{ID: "energy_total_scale", Address: 40095, Type: Int16, Required: true},
	RegisterDef{ID: "current_dc", Address: 40096, Type: Uint16, Required: true},
	RegisterDef{ID: "current_dc_scale", Address: 40097, Type: Int16, Required: true},
	RegisterDef{ID: "voltage_dc", Address: 40098, Type: Uint16, Required: true},
	RegisterDef{ID: "voltage_dc_scale", Address: 40099, Type: Int16, Required: true},
	RegisterDef{ID: "power_dc", Address: 40100, Type: Int16, Required: true},
	RegisterDef{ID: "power_dc_scale", Address: 40101, Type: Int16, Required: true},
	RegisterDef{ID: "temperature", Address: 40103, Type: Int16, Required: true},
	RegisterDef{ID: "temperature_scale", Address: 40106, Type: Int16, Required: true},
	RegisterDef{ID: "status", Address: 40107, Type: Uint16, Required: true},
	RegisterDef{ID: "vendor_status", Address: 40108, Type: Uint16},
)

var GridStatus = MustTable("grid_status", BigEndian,
	RegisterDef{ID: GridStatusOn, Address: 40113, Type: Uint32, Required: true},
)

var PowerControl = MustTable("power_control", LittleEndian,
	RegisterDef{ID: "rrcr_state", Address: 61440, Type: Uint16, Required: true},
	RegisterDef{ID: ActivePowerLimit, Address: 61441, Type: Uint16, Required: true},
	RegisterDef{ID: "cosphi", Address: 61442, Type: Float32},
	RegisterDef{ID: CommitPowerControlSettings, Address: 61696, Type: Int16, Required: true},
	RegisterDef{ID: RestorePowerControlSettings, Address: 61697, Type: Int16, Required: true},
	RegisterDef{ID: ReactivePowerConfig, Address: 61700, Type: Int32, Required: true},
	RegisterDef{ID: "reactive_power_response_time", Address: 61702, Type: Uint32, Required: true},
	RegisterDef{ID: AdvancedPowerControlEnable, Address: 61762, Type: Int32, Required: true, PostDecode: decodeEnableFlag},
)

var SiteLimit = MustTable("site_limit", LittleEndian,
	RegisterDef{ID: ExportControlMode, Address: 57344, Type: Uint16, Required: true, PostDecode: decodeExportControlMode},
	RegisterDef{ID: "export_control_limit_mode", Address: 57345, Type: Uint16, Required: true},
	RegisterDef{ID: ExportControlSiteLimit, Address: 57346, Type: Float32, Required: true, PostDecode: decodeSiteLimit},
)

var errSiteLimitRange = errors.New("site limit is not a representable number")

func decodeEnableFlag(r *Register, out Payload) error {
	v, ok := out[r.ID()].(Int)
	out[r.ID()] = Bool(ok && v == 1)
	return nil
}

// decodeExportControlMode reports bit0+bit1+bit2 as the mode and splits
// bits 10 and 11 into flags.
func decodeExportControlMode(r *Register, out Payload) error {
	raw := out[r.ID()]
	out[r.ID()+"_raw"] = raw
	var bits uint64
	if v, ok := raw.(Uint); ok {
		bits = uint64(v)
	}
	out[r.ID()] = Uint(bits&0x1 + (bits&0x2)>>1 + (bits&0x4)>>2)
	out[ExportControlExternalProduction] = Bool(bits&0x0400 != 0)
	out[ExportControlNegativeSiteLimit] = Bool(bits&0x0800 != 0)
	return nil
}

func decodeSiteLimit(r *Register, out Payload) error {
	v, ok := out[r.ID()].(Float)
	if !ok {
		return nil
	}
	f := float64(v)
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64:
		return errSiteLimitRange
	case f < 0:
		out[r.ID()] = Int(0)
	default:
		out[r.ID()] = Int(int64(f))
	}
	return nil
}

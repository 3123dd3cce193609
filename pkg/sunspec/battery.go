package sunspec

const (
	StorageControlMode    = "control_mode"
	StorageACChargePolicy = "ac_charge_policy"
	StorageACChargeLimit  = "ac_charge_limit"
	StorageBackupReserve  = "backup_reserve"
	StorageDefaultMode    = "default_mode"
	StorageCommandTimeout = "command_timeout"
	StorageCommandMode    = "command_mode"
	StorageChargeLimit    = "charge_limit"
	StorageDischargeLimit = "discharge_limit"
)

// BatteryNotPresent is the device address reported for an empty battery slot.
const BatteryNotPresent = 255

var BatteryInfo = MustTable("battery_info", BigEndian,
	RegisterDef{ID: CommonManufacturer, Address: 57600, Type: String, Required: true, Length: 16},
	RegisterDef{ID: CommonModel, Address: 57616, Type: String, Required: true, Length: 16},
	RegisterDef{ID: CommonVersion, Address: 57632, Type: String, Required: true, Length: 16},
	RegisterDef{ID: CommonSerialNumber, Address: 57648, Type: String, Required: true, Length: 16},
	RegisterDef{ID: CommonDeviceAddress, Address: 57664, Type: Uint16, Required: true},
	RegisterDef{ID: CommonSunSpecDID, Address: 57665, Type: Uint16, Required: true},
)

var Battery = MustTable("battery", LittleEndian,
	RegisterDef{ID: "rated_energy", Address: 57666, Type: Float32},
	RegisterDef{ID: "maximum_charge_continuous_power", Address: 57668, Type: Float32},
	RegisterDef{ID: "maximum_discharge_continuous_power", Address: 57670, Type: Float32},
	RegisterDef{ID: "maximum_charge_peak_power", Address: 57672, Type: Float32},
	RegisterDef{ID: "maximum_discharge_peak_power", Address: 57674, Type: Float32},
	RegisterDef{ID: "average_temperature", Address: 57708, Type: Float32},
	RegisterDef{ID: "maximum_temperature", Address: 57710, Type: Float32},
	RegisterDef{ID: "instantaneous_voltage", Address: 57712, Type: Float32, Required: true},
	RegisterDef{ID: "instantaneous_current", Address: 57714, Type: Float32, Required: true},
	RegisterDef{ID: "instantaneous_power", Address: 57716, Type: Float32, Required: true},
	RegisterDef{ID: "lifetime_export_energy_counter", Address: 57718, Type: Uint64},
	RegisterDef{ID: "lifetime_import_energy_counter", Address: 57722, Type: Uint64},
	RegisterDef{ID: "maximum_energy", Address: 57726, Type: Float32},
	RegisterDef{ID: "available_energy", Address: 57728, Type: Float32},
	RegisterDef{ID: "soh", Address: 57730, Type: Float32, Required: true},
	RegisterDef{ID: "soe", Address: 57732, Type: Float32, Required: true},
	RegisterDef{ID: "status", Address: 57734, Type: Uint32, Required: true},
	RegisterDef{ID: "status_internal", Address: 57736, Type: Uint32},
	RegisterDef{ID: "event_log", Address: 57738, Type: Uint32},
	RegisterDef{ID: "event_log_internal", Address: 57746, Type: Uint32},
)

var StorageControl = MustTable("storage_control", LittleEndian,
	RegisterDef{ID: StorageControlMode, Address: 57348, Type: Uint16, Required: true},
	RegisterDef{ID: StorageACChargePolicy, Address: 57349, Type: Uint16, Required: true},
	RegisterDef{ID: StorageACChargeLimit, Address: 57350, Type: Float32, Required: true, PostDecode: decodeStorageLimit},
	RegisterDef{ID: StorageBackupReserve, Address: 57352, Type: Float32, Required: true, PostDecode: decodeStorageLimit},
	RegisterDef{ID: StorageDefaultMode, Address: 57354, Type: Uint16, Required: true},
	RegisterDef{ID: StorageCommandTimeout, Address: 57355, Type: Uint32, Required: true},
	RegisterDef{ID: StorageCommandMode, Address: 57357, Type: Uint16, Required: true},
	RegisterDef{ID: StorageChargeLimit, Address: 57358, Type: Float32, Required: true, PostDecode: decodeStorageLimit},
	RegisterDef{ID: StorageDischargeLimit, Address: 57360, Type: Float32, Required: true, PostDecode: decodeStorageLimit},
)

// decodeStorageLimit treats negative limits as not implemented.
func decodeStorageLimit(r *Register, out Payload) error {
	if v, ok := out[r.ID()].(Float); ok && v < 0 {
		out[r.ID()] = Bool(false)
	}
	return nil
}

package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE                  = "bridge"
	SENSOR_ID_INVERTER_AC_POWER             = "inverter_ac_power"
	SENSOR_ID_INVERTER_AC_CURRENT           = "inverter_ac_current"
	SENSOR_ID_INVERTER_AC_VOLTAGE           = "inverter_ac_voltage"
	SENSOR_ID_INVERTER_FREQUENCY            = "inverter_frequency"
	SENSOR_ID_INVERTER_DC_POWER             = "inverter_dc_power"
	SENSOR_ID_INVERTER_DC_VOLTAGE           = "inverter_dc_voltage"
	SENSOR_ID_INVERTER_DC_CURRENT           = "inverter_dc_current"
	SENSOR_ID_INVERTER_ENERGY_TOTAL         = "inverter_energy_total"
	SENSOR_ID_INVERTER_TEMPERATURE          = "inverter_temperature"
	SENSOR_ID_INVERTER_STATUS               = "inverter_status"
	SENSOR_ID_INVERTER_GRID_STATUS          = "inverter_grid_status"
	SENSOR_ID_INVERTER_POWER_LIMIT          = "inverter_power_limit"
	SENSOR_ID_INVERTER_EXPORT_LIMIT         = "inverter_export_limit"
	SENSOR_NAME_METER_POWER                 = "power"
	SENSOR_NAME_METER_IMPORT_ENERGY         = "import_energy"
	SENSOR_NAME_METER_EXPORT_ENERGY         = "export_energy"
	SENSOR_NAME_METER_FREQUENCY             = "frequency"
	SENSOR_NAME_METER_VOLTAGE               = "voltage"
	SENSOR_NAME_METER_CURRENT               = "current"
	SENSOR_NAME_BATTERY_POWER               = "power"
	SENSOR_NAME_BATTERY_VOLTAGE             = "voltage"
	SENSOR_NAME_BATTERY_CURRENT             = "current"
	SENSOR_NAME_BATTERY_SOE                 = "soe"
	SENSOR_NAME_BATTERY_SOH                 = "soh"
	SENSOR_NAME_BATTERY_STATUS              = "status"
	SENSOR_ID_STORAGE_CONTROL_MODE          = "storage_control_mode"
	SENSOR_ID_STORAGE_AC_CHARGE_POLICY      = "storage_ac_charge_policy"
	SENSOR_ID_STORAGE_DEFAULT_MODE          = "storage_default_mode"
	SENSOR_ID_STORAGE_COMMAND_MODE_NAME     = "storage_command_mode_name"
	SWITCH_ID_ADVANCED_POWER_CONTROL        = "advanced_power_control"
	INPUT_NUMBER_ID_STORAGE_CHARGE_LIMIT    = "storage_charge_limit"
	INPUT_NUMBER_ID_STORAGE_DISCHARGE_LIMIT = "storage_discharge_limit"
	INPUT_NUMBER_ID_STORAGE_COMMAND_MODE    = "storage_command_mode"
	INPUT_NUMBER_ID_STORAGE_COMMAND_TIMEOUT = "storage_command_timeout"
	INPUT_NUMBER_ID_STORAGE_BACKUP_RESERVE  = "storage_backup_reserve"
	STATE_CLASS_DURATION                    = "duration"
	STATE_CLASS_MEASUREMENT                 = "measurement"
	STATE_CLASS_TOTAL_INCREASING            = "total_increasing"
	DEVICE_CLASS_BATTERY                    = "battery"
	DEVICE_CLASS_CURRENT                    = "current"
	DEVICE_CLASS_ENERGY                     = "energy"
	DEVICE_CLASS_FREQUENCY                  = "frequency"
	DEVICE_CLASS_POWER                      = "power"
	DEVICE_CLASS_TEMPERATURE                = "temperature"
	DEVICE_CLASS_VOLTAGE                    = "voltage"
	DEVICE_CLASS_CONNECTIVITY               = "connectivity"
	DEVICE_CLASS_POWER_FACTOR               = "power_factor"
	ENTITY_CLASS_DIAGNOSTIC                 = "diagnostic"
	ENTITY_CLASS_CONFIG                     = "config"
	SENSOR_TYPE_SENSOR                      = "sensor"
	SENSOR_TYPE_BINARY                      = "binary_sensor"
	INPUT_NUMBER_MODE_BOX                   = "box"
	INPUT_NUMBER_MODE_SLIDER                = "slider"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("sunspec_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "SunSpec2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("SunSpec2MQTT %s", md5HashShort(baseTopic)),
	}
}

// SunSpecDevice describes an inverter, meter or battery. The device key is
// part of the id so sub-devices sharing a serial stay distinct.
func SunSpecDevice(info sunspec_modbus.DeviceInfo) Device {
	return Device{
		Id:           fmt.Sprintf("sunspec_%s_%s", info.Key, md5HashShort(info.Serial)),
		Version:      info.Version,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         fmt.Sprintf("%s %s %s", info.Manufacturer, info.Model, md5HashShort(info.Serial)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func InverterSensors(inverterDevice Device, checkGridStatus bool, advancedPowerControls bool) []GenericSensor {

	var sensors []GenericSensor

	// AC power
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_AC_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "AC power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "W",
		Icon:              "mdi:solar-power",
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_AC_POWER),
	})

	// AC current
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_AC_CURRENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "AC current",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_AC_CURRENT),
	})

	// AC voltage
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_AC_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "AC voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_AC_VOLTAGE),
	})

	// Frequency
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_FREQUENCY,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Frequency",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_FREQUENCY,
		UnitOfMeasurement: "Hz",
		Icon:              "mdi:sine-wave",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_FREQUENCY),
	})

	// DC power
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_DC_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "DC power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "W",
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_DC_POWER),
	})

	// DC voltage
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_DC_VOLTAGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "DC voltage",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_VOLTAGE,
		UnitOfMeasurement: "V",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_DC_VOLTAGE),
	})

	// DC current
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_DC_CURRENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "DC current",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_DC_CURRENT),
	})

	// Lifetime energy
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_ENERGY_TOTAL,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Total energy",
		StateClass:        STATE_CLASS_TOTAL_INCREASING,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "kWh",
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_ENERGY_TOTAL),
	})

	// Heat sink temperature
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_TEMPERATURE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Temperature",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_TEMPERATURE,
		UnitOfMeasurement: "°C",
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_TEMPERATURE),
	})

	// Operating status
	sensors = append(sensors, GenericSensor{
		Device:     inverterDevice,
		Id:         SENSOR_ID_INVERTER_STATUS,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Status",
		UniqueId:   uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_STATUS),
	})

	if checkGridStatus {
		sensors = append(sensors, GenericSensor{
			Device:      inverterDevice,
			Id:          SENSOR_ID_INVERTER_GRID_STATUS,
			SensorType:  SENSOR_TYPE_BINARY,
			Name:        "Grid status",
			DeviceClass: DEVICE_CLASS_CONNECTIVITY,
			UniqueId:    uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_GRID_STATUS),
		})
	}

	if advancedPowerControls {
		sensors = append(sensors, GenericSensor{
			Device:            inverterDevice,
			Id:                SENSOR_ID_INVERTER_POWER_LIMIT,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Active power limit",
			StateClass:        STATE_CLASS_MEASUREMENT,
			UnitOfMeasurement: "%",
			EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_POWER_LIMIT),
		})
		sensors = append(sensors, GenericSensor{
			Device:            inverterDevice,
			Id:                SENSOR_ID_INVERTER_EXPORT_LIMIT,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Export site limit",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_POWER,
			UnitOfMeasurement: "W",
			EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_EXPORT_LIMIT),
		})
	}

	return sensors
}

type deviceSensor struct {
	name        string
	label       string
	stateClass  string
	deviceClass string
	unit        string
	enabled     bool
}

var meterSensors = []deviceSensor{
	{SENSOR_NAME_METER_POWER, "Power", STATE_CLASS_MEASUREMENT, DEVICE_CLASS_POWER, "W", true},
	{SENSOR_NAME_METER_IMPORT_ENERGY, "Imported energy", STATE_CLASS_TOTAL_INCREASING, DEVICE_CLASS_ENERGY, "kWh", true},
	{SENSOR_NAME_METER_EXPORT_ENERGY, "Exported energy", STATE_CLASS_TOTAL_INCREASING, DEVICE_CLASS_ENERGY, "kWh", true},
	{SENSOR_NAME_METER_FREQUENCY, "Grid frequency", STATE_CLASS_MEASUREMENT, DEVICE_CLASS_FREQUENCY, "Hz", false},
	{SENSOR_NAME_METER_VOLTAGE, "Grid voltage", STATE_CLASS_MEASUREMENT, DEVICE_CLASS_VOLTAGE, "V", false},
	{SENSOR_NAME_METER_CURRENT, "Current", STATE_CLASS_MEASUREMENT, DEVICE_CLASS_CURRENT, "A", false},
}

var batterySensors = []deviceSensor{
	{SENSOR_NAME_BATTERY_POWER, "Power", STATE_CLASS_MEASUREMENT, DEVICE_CLASS_POWER, "W", true},
	{SENSOR_NAME_BATTERY_SOE, "State of energy", STATE_CLASS_MEASUREMENT, DEVICE_CLASS_BATTERY, "%", true},
	{SENSOR_NAME_BATTERY_SOH, "State of health", STATE_CLASS_MEASUREMENT, "", "%", true},
	{SENSOR_NAME_BATTERY_VOLTAGE, "Voltage", STATE_CLASS_MEASUREMENT, DEVICE_CLASS_VOLTAGE, "V", false},
	{SENSOR_NAME_BATTERY_CURRENT, "Current", STATE_CLASS_MEASUREMENT, DEVICE_CLASS_CURRENT, "A", false},
	{SENSOR_NAME_BATTERY_STATUS, "Status", "", "", "", true},
}

func MeterSensors(meterDevice Device, key string) []GenericSensor {
	return deviceSensors(meterDevice, key, meterSensors)
}

func BatterySensors(batteryDevice Device, key string) []GenericSensor {
	return deviceSensors(batteryDevice, key, batterySensors)
}

func deviceSensors(device Device, key string, catalog []deviceSensor) []GenericSensor {
	sensors := make([]GenericSensor, 0, len(catalog))
	for _, s := range catalog {
		id := DeviceSensorId(key, s.name)
		sensor := GenericSensor{
			Device:            device,
			Id:                id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              s.label,
			StateClass:        s.stateClass,
			DeviceClass:       s.deviceClass,
			UnitOfMeasurement: s.unit,
			UniqueId:          uniqueId(device.Id, id),
		}
		if !s.enabled {
			sensor.EnabledByDefault = optionalBool(false)
		}
		sensors = append(sensors, sensor)
	}
	return sensors
}

func StorageControlSensors(inverterDevice Device) []GenericSensor {

	var sensors []GenericSensor

	for _, s := range []struct{ id, name string }{
		{SENSOR_ID_STORAGE_CONTROL_MODE, "Storage control mode"},
		{SENSOR_ID_STORAGE_AC_CHARGE_POLICY, "Storage AC charge policy"},
		{SENSOR_ID_STORAGE_DEFAULT_MODE, "Storage default mode"},
		{SENSOR_ID_STORAGE_COMMAND_MODE_NAME, "Storage command mode name"},
	} {
		sensors = append(sensors, GenericSensor{
			Device:         inverterDevice,
			Id:             s.id,
			SensorType:     SENSOR_TYPE_SENSOR,
			Name:           s.name,
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:       uniqueId(inverterDevice.Id, s.id),
		})
	}

	return sensors
}

func StorageControlInputNumbers(inverterDevice Device) []GenericInputNumber {

	var inputNumbers []GenericInputNumber

	for _, in := range StorageControlInputs {
		inputNumbers = append(inputNumbers, GenericInputNumber{
			Device:            inverterDevice,
			Id:                in.Id,
			Name:              in.Name,
			UniqueId:          uniqueId(inverterDevice.Id, in.Id),
			Icon:              in.Icon,
			UnitOfMeasurement: in.Unit,
			Max:               in.Max,
			Min:               in.Min,
			Step:              in.Step,
			Mode:              INPUT_NUMBER_MODE_BOX,
		})
	}

	return inputNumbers
}

func AdvancedPowerControlSwitches(inverterDevice Device) []GenericSwitch {

	var switches []GenericSwitch

	// Advanced power control, can only be turned off
	switches = append(switches, GenericSwitch{
		Device:         inverterDevice,
		Id:             SWITCH_ID_ADVANCED_POWER_CONTROL,
		Name:           "Advanced power control",
		UniqueId:       uniqueId(inverterDevice.Id, SWITCH_ID_ADVANCED_POWER_CONTROL),
		Icon:           "mdi:tune-vertical",
		EntityCategory: ENTITY_CLASS_CONFIG,
	})

	return switches
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}

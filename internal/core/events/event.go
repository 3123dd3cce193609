package events

import (
	"maps"
	"slices"

	. "github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
)

// SnapshotToUpdateEvents converts every role of a poll snapshot. Meters
// and batteries are emitted in key order.
func SnapshotToUpdateEvents(snapshot *sunspec_modbus.Snapshot) []any {
	var events []any
	if snapshot == nil {
		return events
	}
	if snapshot.Inverter != nil {
		events = append(events, InverterToUpdateEvents(snapshot.Inverter)...)
	}
	for _, key := range slices.Sorted(maps.Keys(snapshot.Meters)) {
		events = append(events, MeterToUpdateEvents(key, snapshot.Meters[key])...)
	}
	for _, key := range slices.Sorted(maps.Keys(snapshot.Batteries)) {
		events = append(events, BatteryToUpdateEvents(key, snapshot.Batteries[key])...)
	}
	if snapshot.StorageControl != nil {
		events = append(events, StorageControlToUpdateEvents(snapshot.StorageControl)...)
	}
	return events
}

func InverterToUpdateEvents(p sunspec.Payload) []any {
	var events []any
	data := sunspec_modbus.NewInverterData(p)

	events = append(events,
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_AC_POWER, data.ACPowerWatt, 2),
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_AC_CURRENT, data.ACCurrent, 2),
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_AC_VOLTAGE, data.ACVoltage, 1),
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_FREQUENCY, data.FrequencyHz, 2),
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_DC_POWER, data.DCPowerWatt, 2),
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_DC_VOLTAGE, data.DCVoltage, 1),
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_DC_CURRENT, data.DCCurrent, 2),
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_ENERGY_TOTAL, data.EnergyTotalWh/1000, 3),
		NewFloatSensorUpdate(SENSOR_ID_INVERTER_TEMPERATURE, data.Temperature, 1),
	)

	// Operating status
	events = append(events, NewTextSensorUpdate(SENSOR_ID_INVERTER_STATUS, data.StatusStr))

	if data.GridStatus != nil {
		events = append(events, NewBinarySensorUpdate(SENSOR_ID_INVERTER_GRID_STATUS, *data.GridStatus))
	}
	if data.PowerLimitPct != nil {
		events = append(events, NewFloatSensorUpdate(SENSOR_ID_INVERTER_POWER_LIMIT, float64(*data.PowerLimitPct), 0))
	}
	if data.ExportLimitWatts != nil {
		events = append(events, NewFloatSensorUpdate(SENSOR_ID_INVERTER_EXPORT_LIMIT, float64(*data.ExportLimitWatts), 0))
	}
	if enabled, ok := p.Bool(sunspec.AdvancedPowerControlEnable); ok {
		events = append(events, AdvancedPowerControlSwitchUpdateEvent(enabled))
	}

	return events
}

func MeterToUpdateEvents(key string, p sunspec.Payload) []any {
	data := sunspec_modbus.NewMeterData(p)
	return []any{
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_METER_POWER), data.PowerWatt, 2),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_METER_IMPORT_ENERGY), data.ImportEnergyWh/1000, 3),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_METER_EXPORT_ENERGY), data.ExportEnergyWh/1000, 3),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_METER_FREQUENCY), data.FrequencyHz, 2),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_METER_VOLTAGE), data.VoltageV, 1),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_METER_CURRENT), data.CurrentA, 2),
	}
}

func BatteryToUpdateEvents(key string, p sunspec.Payload) []any {
	data := sunspec_modbus.NewBatteryData(p)
	return []any{
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_BATTERY_POWER), data.PowerWatt, 2),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_BATTERY_SOE), data.StateOfEnergy, 1),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_BATTERY_SOH), data.StateOfHealth, 1),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_BATTERY_VOLTAGE), data.VoltageV, 1),
		NewFloatSensorUpdate(DeviceSensorId(key, SENSOR_NAME_BATTERY_CURRENT), data.CurrentA, 2),
		NewTextSensorUpdate(DeviceSensorId(key, SENSOR_NAME_BATTERY_STATUS), data.StatusStr),
	}
}

// StorageControlToUpdateEvents reports the mode names as text sensors and
// the writable registers as input number states. Limits that are not set
// are left out.
func StorageControlToUpdateEvents(p sunspec.Payload) []any {
	var events []any
	data := sunspec_modbus.NewStorageControlData(p)

	for _, text := range []struct{ id, value string }{
		{SENSOR_ID_STORAGE_CONTROL_MODE, data.ControlMode},
		{SENSOR_ID_STORAGE_AC_CHARGE_POLICY, data.ACChargePolicy},
		{SENSOR_ID_STORAGE_DEFAULT_MODE, data.DefaultMode},
		{SENSOR_ID_STORAGE_COMMAND_MODE_NAME, data.CommandMode},
	} {
		events = append(events, NewTextSensorUpdate(text.id, text.value))
	}

	for _, in := range StorageControlInputs {
		v, ok := p.Float(in.Register)
		if !ok {
			continue
		}
		events = append(events, StorageControlInputUpdateEvent(in.Id, v))
	}

	return events
}

func StorageControlInputUpdateEvent(id string, value float64) InputNumberSensorUpdateEvent {
	return NewInputNumberUpdate(id, value)
}

func AdvancedPowerControlSwitchUpdateEvent(enabled bool) SwitchSensorUpdateEvent {
	return NewSwitchUpdate(SWITCH_ID_ADVANCED_POWER_CONTROL, enabled)
}

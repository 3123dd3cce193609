package events

import (
	"testing"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSnapshot(t *testing.T) *sunspec_modbus.Snapshot {
	options := sunspec_modbus.AllDevices()
	options.CheckGridStatus = true
	options.AdvancedPowerControls = true
	options.StorageControl = true
	device, _ := sunspec_modbus.CreateTestDevice(options, zap.Must(zap.NewDevelopment()))
	require.NoError(t, device.Initialize())
	snapshot, err := device.Poll()
	require.NoError(t, err)
	return snapshot
}

func eventsById(events []any) map[string]any {
	out := map[string]any{}
	for _, ev := range events {
		if sensor, ok := ev.(domain.SensorUpdateEvent); ok {
			out[sensor.SensorId()] = ev
		}
	}
	return out
}

func TestSnapshotToUpdateEvents(t *testing.T) {

	assert := assert.New(t)

	evs := eventsById(SnapshotToUpdateEvents(testSnapshot(t)))

	acPower, ok := evs[domain.SENSOR_ID_INVERTER_AC_POWER].(domain.FloatSensorUpdateEvent)
	require.True(t, ok)
	assert.Equal(3512.0, acPower.Value)

	energy := evs[domain.SENSOR_ID_INVERTER_ENERGY_TOTAL].(domain.FloatSensorUpdateEvent)
	assert.InDelta(12345.678, energy.Value, 1e-9)
	assert.Equal(uint(3), energy.Decimals)

	status := evs[domain.SENSOR_ID_INVERTER_STATUS].(domain.TextSensorUpdateEvent)
	assert.Equal("Inverter is ON and producing power", status.Value)

	grid := evs[domain.SENSOR_ID_INVERTER_GRID_STATUS].(domain.BinarySensorUpdateEvent)
	assert.False(grid.Value)

	exportLimit := evs[domain.SENSOR_ID_INVERTER_EXPORT_LIMIT].(domain.FloatSensorUpdateEvent)
	assert.Equal(4500.0, exportLimit.Value)

	apc := evs[domain.SWITCH_ID_ADVANCED_POWER_CONTROL].(domain.SwitchSensorUpdateEvent)
	assert.True(apc.Value)

	meterPower := evs["meter0_power"].(domain.FloatSensorUpdateEvent)
	assert.Equal(-1250.0, meterPower.Value)
	assert.NotContains(evs, "meter1_power")

	soe := evs["battery0_soe"].(domain.FloatSensorUpdateEvent)
	assert.Equal(56.5, soe.Value)
	batteryStatus := evs["battery0_status"].(domain.TextSensorUpdateEvent)
	assert.Equal("Discharge", batteryStatus.Value)

	controlMode := evs[domain.SENSOR_ID_STORAGE_CONTROL_MODE].(domain.TextSensorUpdateEvent)
	assert.Equal("Remote Control", controlMode.Value)

	chargeLimit := evs[domain.INPUT_NUMBER_ID_STORAGE_CHARGE_LIMIT].(domain.InputNumberSensorUpdateEvent)
	assert.Equal(5000.0, chargeLimit.Value)
	timeout := evs[domain.INPUT_NUMBER_ID_STORAGE_COMMAND_TIMEOUT].(domain.InputNumberSensorUpdateEvent)
	assert.Equal(3600.0, timeout.Value)
	// negative discharge limit is not set
	assert.NotContains(evs, domain.INPUT_NUMBER_ID_STORAGE_DISCHARGE_LIMIT)
}

func TestSnapshotToUpdateEventsSkipsMissingRoles(t *testing.T) {

	assert := assert.New(t)

	assert.Empty(SnapshotToUpdateEvents(nil))

	snapshot := testSnapshot(t)
	snapshot.Inverter = nil
	snapshot.StorageControl = nil
	evs := eventsById(SnapshotToUpdateEvents(snapshot))
	assert.NotContains(evs, domain.SENSOR_ID_INVERTER_AC_POWER)
	assert.NotContains(evs, domain.SENSOR_ID_STORAGE_CONTROL_MODE)
	assert.Contains(evs, "meter0_power")
	assert.Contains(evs, "battery0_power")
}

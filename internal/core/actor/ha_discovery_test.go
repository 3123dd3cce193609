package actor

import (
	"testing"

	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevicesInfo() *sunspec_modbus.DevicesInfo {
	return &sunspec_modbus.DevicesInfo{
		Inverter: sunspec_modbus.DeviceInfo{Key: "inverter", Manufacturer: "SolarEdge", Model: "SE5K", Serial: "7E1234AB"},
		Meters: []sunspec_modbus.DeviceInfo{
			{Key: "meter0", Manufacturer: "WattNode", Model: "WNC", Serial: "1"},
		},
		Batteries: []sunspec_modbus.DeviceInfo{
			{Key: "battery0", Manufacturer: "LG", Model: "BAT-10K1P", Serial: "2"},
		},
	}
}

func TestDiscoveryComponents(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	req := DiscoveryComponents(&cfg, testDevicesInfo())

	ids := map[string]domain.GenericSensor{}
	for _, s := range req.Sensors {
		assert.NotContains(ids, s.UniqueId)
		ids[s.UniqueId] = s
	}
	require.NotEmpty(t, req.Sensors)
	assert.Equal(domain.SENSOR_ID_BRIDGE_STATE, req.Sensors[0].Id)

	inverterDevice := domain.SunSpecDevice(testDevicesInfo().Inverter)
	var inverterSensors []domain.GenericSensor
	for _, s := range req.Sensors {
		if s.Device.Id == inverterDevice.Id {
			inverterSensors = append(inverterSensors, s)
		}
	}
	require.NotEmpty(t, inverterSensors)
	// only the first sensor carries the full device
	assert.Equal("SolarEdge", inverterSensors[0].Device.Manufacturer)
	assert.NotEmpty(inverterSensors[0].Device.ViaDevice)
	assert.Empty(inverterSensors[1].Device.Manufacturer)

	var hasMeter, hasBattery, hasStorageMode bool
	for _, s := range req.Sensors {
		switch s.Id {
		case "meter0_power":
			hasMeter = true
		case "battery0_soe":
			hasBattery = true
		case domain.SENSOR_ID_STORAGE_CONTROL_MODE:
			hasStorageMode = true
		}
	}
	assert.True(hasMeter)
	assert.True(hasBattery)
	assert.True(hasStorageMode)
	assert.Len(req.InputNumbers, len(domain.StorageControlInputs))
	require.Len(t, req.Switches, 1)
	assert.Equal(domain.SWITCH_ID_ADVANCED_POWER_CONTROL, req.Switches[0].Id)
}

func TestDiscoveryComponentsWithoutControls(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	cfg.Modbus.AdvancedPowerControls = config.ADVANCED_POWER_CONTROLS_DISABLE
	info := testDevicesInfo()
	info.Batteries = nil

	req := DiscoveryComponents(&cfg, info)
	assert.Empty(req.InputNumbers)
	assert.Empty(req.Switches)
	for _, s := range req.Sensors {
		assert.NotEqual(domain.SENSOR_ID_INVERTER_EXPORT_LIMIT, s.Id)
		assert.NotEqual(domain.SENSOR_ID_STORAGE_CONTROL_MODE, s.Id)
	}
}

package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *MQTTClient {
	cfg := util.LoadTestConfig()
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestHADiscoverySensor(t *testing.T) {

	assert := assert.New(t)

	client := testClient()
	device := domain.SunSpecDevice(sunspec_modbus.DeviceInfo{Key: "meter0", Manufacturer: "WattNode", Serial: "1"})
	sensor := domain.MeterSensors(device, "meter0")[0]

	msg := GenericSensorToHADiscoveryMessage(client, sensor)
	assert.Equal("sunspec/sensor/meter0_power/state", msg.StateTopic)
	assert.Equal("sunspec/bridge/state", msg.AvTopic)
	assert.Equal("W", msg.UnitOfMeasurement)
	assert.Equal("homeassistant/sensor/"+device.Id+"/meter0_power/config", client.HADiscoverySensorTopic(sensor))

	bridge := domain.BridgeSensors(domain.BridgeDevice("sunspec"))[0]
	msg = GenericSensorToHADiscoveryMessage(client, bridge)
	assert.Equal("sunspec/bridge/state", msg.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, msg.PayloadOn)

	grid := domain.InverterSensors(device, true, false)
	for _, s := range grid {
		if s.Id == domain.SENSOR_ID_INVERTER_GRID_STATUS {
			msg = GenericSensorToHADiscoveryMessage(client, s)
			assert.Equal("sunspec/binary_sensor/inverter_grid_status/state", msg.StateTopic)
			assert.Equal(MQTT_PAYLOAD_ON, msg.PayloadOn)
		}
	}
}

func TestHADiscoveryInputNumber(t *testing.T) {

	assert := assert.New(t)

	client := testClient()
	inputs := domain.StorageControlInputNumbers(domain.Device{Id: "dev"})
	require.NotEmpty(t, inputs)

	msg := GenericInputNumberToHADiscoveryMessage(client, inputs[0])
	assert.Equal("sunspec/number/storage_charge_limit/set", msg.CommandTopic)
	assert.Equal("homeassistant/number/dev/storage_charge_limit/config", client.HADiscoveryInputNumberTopic(inputs[0]))

	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.Equal(0.0, raw["min"])
	assert.Equal(1000000.0, raw["max"])
	assert.Equal("W", raw["unit_of_measurement"])
}

func TestHADiscoverySwitch(t *testing.T) {

	assert := assert.New(t)

	client := testClient()
	sw := domain.AdvancedPowerControlSwitches(domain.Device{Id: "dev"})[0]
	msg := GenericSwitchToHADiscoveryMessage(client, sw)
	assert.Equal("sunspec/switch/advanced_power_control/command", msg.CommandTopic)
	assert.Equal(domain.ENTITY_CLASS_CONFIG, msg.EntityCategory)
	assert.Equal(MQTT_PAYLOAD_OFF, msg.PayloadOff)
}

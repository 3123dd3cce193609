package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCheckMQTTTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := CheckMQTTTopic("SunSpec_2")
	assert.NoError(err)
	assert.Equal("sunspec_2", topic)

	_, err = CheckMQTTTopic("sun/spec")
	assert.Error(err)
	_, err = CheckMQTTTopic("")
	assert.Error(err)
}

func TestCheckAdvancedPowerControls(t *testing.T) {

	assert := assert.New(t)

	for _, v := range []string{"enabled", "Disable", "OFF"} {
		_, err := CheckAdvancedPowerControls(v)
		assert.NoError(err, v)
	}
	_, err := CheckAdvancedPowerControls("maybe")
	assert.Error(err)
}

func TestDeviceOptions(t *testing.T) {

	assert := assert.New(t)

	cfg := ModbusConfig{
		Host:                  "inverter",
		Port:                  1502,
		Unit:                  3,
		TimeoutMillis:         1500,
		Meters:                [3]bool{true, false, false},
		Batteries:             [2]bool{false, true},
		CheckGridStatus:       true,
		StorageControlEnable:  true,
		AdvancedPowerControls: ADVANCED_POWER_CONTROLS_DISABLE,
	}
	opts := cfg.DeviceOptions()
	assert.Equal([3]bool{true, false, false}, opts.Meters)
	assert.Equal([2]bool{false, true}, opts.Batteries)
	assert.True(opts.CheckGridStatus)
	assert.True(opts.StorageControl)
	assert.False(opts.AdvancedPowerControls)

	cfg.AdvancedPowerControls = ADVANCED_POWER_CONTROLS_ENABLED
	assert.True(cfg.DeviceOptions().AdvancedPowerControls)

	client := cfg.ClientConfig()
	assert.Equal(uint8(3), client.Unit)
	assert.Equal(1500*time.Millisecond, client.Timeout)
	assert.Equal("inverter", client.Host)
}

func TestLoadFromEnv(t *testing.T) {

	assert := assert.New(t)

	t.Setenv("SUNSPEC_MODBUS_HOST", "192.168.1.20")
	t.Setenv("SUNSPEC_MODBUS_ADVANCED_POWER_CONTROLS", "Enabled")
	t.Setenv("SUNSPEC_MQTT_BASE_TOPIC", "SolarEdge")
	t.Setenv("SUNSPEC_MQTT_PASSWORD", "secret")
	t.Setenv("SUNSPEC_LOG_LEVEL", "trace")
	t.Setenv("PORT", "9090")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal("192.168.1.20", cfg.Modbus.Host)
	assert.Equal(uint(1502), cfg.Modbus.Port)
	assert.Equal([3]bool{true, true, true}, cfg.Modbus.Meters)
	assert.Equal(ADVANCED_POWER_CONTROLS_ENABLED, cfg.Modbus.AdvancedPowerControls)
	assert.Equal("solaredge", cfg.MQTT.BaseTopic)
	assert.Equal(zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(uint(9090), cfg.Port)
	assert.Equal(uint32(5000), cfg.MonitorConfig.PollIntervalMillis)

	redacted := cfg.Redacted()
	assert.Equal("*redacted*", redacted.MQTT.Password)
	assert.Equal("", redacted.MQTT.Username)
	assert.Equal("secret", cfg.MQTT.Password)
}

func TestLoadValidation(t *testing.T) {

	assert := assert.New(t)

	_, err := Load(NewViper())
	assert.ErrorContains(err, "modbus.host")

	t.Setenv("SUNSPEC_MODBUS_HOST", "inverter")
	t.Setenv("SUNSPEC_MONITOR_POLL_INTERVAL_MILLIS", "500")
	_, err = Load(NewViper())
	assert.ErrorContains(err, "poll_interval_millis")

	t.Setenv("SUNSPEC_MONITOR_POLL_INTERVAL_MILLIS", "2000")
	t.Setenv("SUNSPEC_MQTT_BASE_TOPIC", "solar/edge")
	_, err = Load(NewViper())
	assert.ErrorContains(err, "mqtt.base_topic")
}

func TestLoadConfigFile(t *testing.T) {

	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
modbus:
  host: inverter.lan
  unit: 3
  batteries: [true, false]
mqtt:
  ha_discovery_enable: true
monitor:
  poll_interval_millis: 10000
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SUNSPEC_MODBUS_UNIT", "4")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal("inverter.lan", cfg.Modbus.Host)
	// env wins over the file
	assert.Equal(uint(4), cfg.Modbus.Unit)
	assert.Equal([2]bool{true, false}, cfg.Modbus.Batteries)
	assert.True(cfg.MQTT.HADiscoveryEnable)
	assert.Equal(uint32(10000), cfg.MonitorConfig.PollIntervalMillis)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load(NewViper())
	assert.Error(err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, ParseLogLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLogLevel("verbose"))
}

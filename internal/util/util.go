package util

import (
	"github.com/berfenger/sunspec2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Modbus: config.ModbusConfig{
			Host:                  "-.-.-.-",
			Port:                  1502,
			Unit:                  1,
			TimeoutMillis:         1000,
			Meters:                [3]bool{true, true, true},
			Batteries:             [2]bool{true, true},
			CheckGridStatus:       true,
			StorageControlEnable:  true,
			AdvancedPowerControls: config.ADVANCED_POWER_CONTROLS_ENABLED,
		},
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "sunspec",
			HADiscoveryTopic: "homeassistant",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 1000,
		},
		Port: 8080,
	}
}

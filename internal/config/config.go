package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"go.uber.org/zap/zapcore"
)

const (
	ADVANCED_POWER_CONTROLS_ENABLED = "enabled"
	ADVANCED_POWER_CONTROLS_DISABLE = "disable"
	ADVANCED_POWER_CONTROLS_OFF     = "off"
)

type Config struct {
	LogLevel      zapcore.Level `mapstructure:"-"`
	Modbus        ModbusConfig  `mapstructure:"modbus"`
	MQTT          MQTTConfig    `mapstructure:"mqtt"`
	MonitorConfig MonitorConfig `mapstructure:"monitor"`
	Port          uint          `mapstructure:"port"`
	HttpLog       bool          `mapstructure:"http_log"`
}

type ModbusConfig struct {
	Host                  string
	Port                  uint
	Unit                  uint    `mapstructure:"unit"`
	TimeoutMillis         uint32  `mapstructure:"timeout_millis"`
	Meters                [3]bool `mapstructure:"meters"`
	Batteries             [2]bool `mapstructure:"batteries"`
	CheckGridStatus       bool    `mapstructure:"check_grid_status"`
	StorageControlEnable  bool    `mapstructure:"storage_control_enable"`
	AdvancedPowerControls string  `mapstructure:"advanced_power_controls"`
}

type MonitorConfig struct {
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (c ModbusConfig) ClientConfig() sunspec_modbus.ClientConfig {
	return sunspec_modbus.ClientConfig{
		Host:    c.Host,
		Port:    c.Port,
		Unit:    uint8(c.Unit),
		Timeout: time.Duration(c.TimeoutMillis) * time.Millisecond,
	}
}

// DeviceOptions maps the modbus section to reader options. Advanced power
// controls are only read when set to "enabled".
func (c ModbusConfig) DeviceOptions() sunspec_modbus.Options {
	return sunspec_modbus.Options{
		Meters:                c.Meters,
		Batteries:             c.Batteries,
		CheckGridStatus:       c.CheckGridStatus,
		AdvancedPowerControls: c.AdvancedPowerControls == ADVANCED_POWER_CONTROLS_ENABLED,
		StorageControl:        c.StorageControlEnable,
	}
}

func CheckAdvancedPowerControls(value string) (string, error) {
	lower := strings.ToLower(value)
	switch lower {
	case ADVANCED_POWER_CONTROLS_ENABLED, ADVANCED_POWER_CONTROLS_DISABLE, ADVANCED_POWER_CONTROLS_OFF:
		return lower, nil
	}
	return "", fmt.Errorf("invalid advanced_power_controls %q. valid values: enabled, disable, off", value)
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "sunspec"

// NewViper returns a viper instance reading SUNSPEC_* variables, with the
// defaults of every key set so that Unmarshal sees env-only values.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("modbus.host", "")
	v.SetDefault("modbus.port", 1502)
	v.SetDefault("modbus.unit", 1)
	v.SetDefault("modbus.timeout_millis", 1000)
	v.SetDefault("modbus.meters", []bool{true, true, true})
	v.SetDefault("modbus.batteries", []bool{true, true})
	v.SetDefault("modbus.check_grid_status", false)
	v.SetDefault("modbus.storage_control_enable", false)
	v.SetDefault("modbus.advanced_power_controls", ADVANCED_POWER_CONTROLS_OFF)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.base_topic", "sunspec")
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("monitor.poll_interval_millis", 5000)
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
}

// Load reads the optional file named by CONFIG_FILE into v, then unmarshals
// and validates the configuration. PORT is an alias of SUNSPEC_PORT.
func Load(v *viper.Viper) (*Config, error) {
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SUNSPEC_PORT") == "" {
		v.Set("port", port)
	}

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.LogLevel = ParseLogLevel(v.GetString("log_level"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseLogLevel maps a level name to zap. trace is debug and unknown names
// are info.
func ParseLogLevel(level string) zapcore.Level {
	if strings.EqualFold(level, "trace") {
		return zapcore.DebugLevel
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Validate checks bounds and normalizes topics and enum values in place.
func (cfg *Config) Validate() error {
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return fmt.Errorf("mqtt.base_topic: %w", err)
	}
	cfg.MQTT.BaseTopic = baseTopic

	haTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return fmt.Errorf("mqtt.ha_discovery_topic: %w", err)
	}
	cfg.MQTT.HADiscoveryTopic = haTopic

	apc, err := CheckAdvancedPowerControls(cfg.Modbus.AdvancedPowerControls)
	if err != nil {
		return err
	}
	cfg.Modbus.AdvancedPowerControls = apc

	if cfg.Modbus.Host == "" {
		return errors.New("config param modbus.host is required")
	}
	if cfg.Modbus.Unit > 247 {
		return errors.New("config param modbus.unit should be <= 247")
	}
	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}
	return nil
}

// Redacted is a copy safe to log.
func (cfg Config) Redacted() Config {
	if cfg.MQTT.Username != "" {
		cfg.MQTT.Username = "*redacted*"
	}
	if cfg.MQTT.Password != "" {
		cfg.MQTT.Password = "*redacted*"
	}
	return cfg
}

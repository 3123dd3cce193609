package main

import (
	"fmt"
	"os"

	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	v      = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "sunspec",
	Short: "Inspect and write SunSpec registers of a SolarEdge inverter",
	Long: `Operator tool for the SunSpec register tables.
Connection settings use the same SUNSPEC_MODBUS_* variables as the bridge.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = initLogger(v.GetBool("verbose"))
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("host", "", "inverter host")
	flags.Uint("port", 1502, "modbus tcp port")
	flags.Uint("unit", 1, "modbus unit id")
	flags.Uint32("timeout-millis", 1000, "modbus request timeout")
	flags.BoolP("verbose", "v", false, "debug logging")
	_ = v.BindPFlag("modbus.host", flags.Lookup("host"))
	_ = v.BindPFlag("modbus.port", flags.Lookup("port"))
	_ = v.BindPFlag("modbus.unit", flags.Lookup("unit"))
	_ = v.BindPFlag("modbus.timeout_millis", flags.Lookup("timeout-millis"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))

	rootCmd.AddCommand(planCmd, readCmd, writeCmd)
}

func initLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func clientConfig() (sunspec_modbus.ClientConfig, error) {
	var mc config.ModbusConfig
	if err := v.UnmarshalKey("modbus", &mc); err != nil {
		return sunspec_modbus.ClientConfig{}, err
	}
	if mc.Host == "" {
		return sunspec_modbus.ClientConfig{}, fmt.Errorf("modbus host is required (--host or SUNSPEC_MODBUS_HOST)")
	}
	if mc.Unit > 247 {
		return sunspec_modbus.ClientConfig{}, fmt.Errorf("modbus unit %d out of range", mc.Unit)
	}
	return mc.ClientConfig(), nil
}

// openClient connects to the inverter. The caller closes the client.
func openClient() (*sunspec_modbus.ModbusClient, error) {
	cfg, err := clientConfig()
	if err != nil {
		return nil, err
	}
	client, err := sunspec_modbus.CreateModbusClient(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	if err := client.Open(); err != nil {
		return nil, fmt.Errorf("connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return client, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

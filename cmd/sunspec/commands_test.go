package main

import (
	"bytes"
	"testing"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseValue(t *testing.T) {

	assert := assert.New(t)

	v, err := parseValue(sunspec.StorageControl.MustRegister(sunspec.StorageChargeLimit), "2500.5")
	assert.NoError(err)
	assert.Equal(sunspec.Float(2500.5), v)

	v, err = parseValue(sunspec.StorageControl.MustRegister(sunspec.StorageCommandMode), "4")
	assert.NoError(err)
	assert.Equal(sunspec.Int(4), v)

	v, err = parseValue(sunspec.PowerControl.MustRegister(sunspec.AdvancedPowerControlEnable), "false")
	assert.NoError(err)
	assert.Equal(sunspec.Bool(false), v)

	v, err = parseValue(sunspec.InverterInfo.MustRegister(sunspec.CommonModel), "SE5K")
	assert.NoError(err)
	assert.Equal(sunspec.Text("SE5K"), v)

	_, err = parseValue(sunspec.StorageControl.MustRegister(sunspec.StorageCommandMode), "abc")
	assert.Error(err)
}

func TestPlanOutput(t *testing.T) {

	assert := assert.New(t)

	out := planOutput([]*sunspec.Table{sunspec.Inverter}, true)
	require.Len(t, out, 1)
	assert.Equal("inverter", out[0].Table)
	require.NotEmpty(t, out[0].Bundles)
	for _, b := range out[0].Bundles {
		assert.LessOrEqual(b.Span, uint16(sunspec.MaxBundleSpan))
		for _, r := range b.Registers {
			assert.True(r.Required)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, out))
	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal("inverter", decoded[0]["table"])

	_, err := tablesByName([]string{"nope"})
	assert.Error(err)
	all, err := tablesByName(nil)
	assert.NoError(err)
	assert.Len(all, len(sunspec.Tables()))
}

func TestReadTable(t *testing.T) {

	assert := assert.New(t)

	transport := sunspec_modbus.NewTestTransport()
	payload, err := readTable(transport, sunspec.InverterInfo, true, 0)
	require.NoError(t, err)
	out := payloadOutput(payload)
	assert.Equal("SolarEdge", out[sunspec.CommonManufacturer])

	transport.Fail(sunspec.InverterInfo.Bundles(true)[0].Address(), true)
	_, err = readTable(transport, sunspec.InverterInfo, true, 0)
	assert.Error(err)
}

func TestWriteDryRun(t *testing.T) {

	assert := assert.New(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"write", "storage_control", sunspec.StorageCommandMode, "4", "--dry-run"})
	require.NoError(t, rootCmd.Execute())

	var decoded writeOutput
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal("storage_control", decoded.Table)
	assert.Equal(sunspec.StorageControl.MustRegister(sunspec.StorageCommandMode).Address(), decoded.Address)
	assert.Equal([]uint16{4}, decoded.Words)

	rootCmd.SetArgs([]string{"write", "storage_control", sunspec.StorageCommandMode, "70000", "--dry-run"})
	assert.ErrorIs(rootCmd.Execute(), sunspec.ErrOutOfRange)
}

func TestClientConfig(t *testing.T) {

	assert := assert.New(t)

	t.Setenv("SUNSPEC_MODBUS_HOST", "")
	_, err := clientConfig()
	assert.Error(err)

	t.Setenv("SUNSPEC_MODBUS_HOST", "192.168.1.20")
	t.Setenv("SUNSPEC_MODBUS_UNIT", "2")
	cfg, err := clientConfig()
	require.NoError(t, err)
	assert.Equal("192.168.1.20", cfg.Host)
	assert.Equal(uint8(2), cfg.Unit)
	assert.Equal(uint(1502), cfg.Port)
}

package sunspec_modbus

import (
	"testing"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fullOptions() Options {
	options := AllDevices()
	options.CheckGridStatus = true
	options.AdvancedPowerControls = true
	options.StorageControl = true
	return options
}

func TestDetect(t *testing.T) {

	assert := assert.New(t)

	device, _ := CreateTestDevice(AllDevices(), zap.Must(zap.NewDevelopment()))
	require.NoError(t, device.Open())
	defer device.Close()

	_, err := device.Info()
	assert.ErrorIs(err, ErrNotInitialized)

	require.NoError(t, device.Initialize())

	info, err := device.Info()
	require.NoError(t, err)
	assert.Equal("SolarEdge", info.Inverter.Manufacturer)
	assert.Equal("SE5K-RWS48BEN4", info.Inverter.Model)
	assert.Equal("7E1234AB", info.Inverter.Serial)
	assert.Equal("Three Phase Inverter", info.Inverter.SunSpecType)

	require.Len(t, info.Meters, 1)
	assert.Equal("meter0", info.Meters[0].Key)
	assert.Equal("WattNode", info.Meters[0].Manufacturer)
	assert.Equal("Export+Import", info.Meters[0].Option)
	assert.Equal("Wye 3P1N Three Phase Meter", info.Meters[0].SunSpecType)

	require.Len(t, info.Batteries, 1)
	assert.Equal("battery0", info.Batteries[0].Key)
	assert.Equal("BAT-10K1P", info.Batteries[0].Model)
	assert.Equal("Lithium Ion Bank Battery", info.Batteries[0].SunSpecType)
	assert.Empty(device.UnreadableAddresses())
}

func TestDetectHonorsOptions(t *testing.T) {

	assert := assert.New(t)

	device, _ := CreateTestDevice(Options{}, zap.Must(zap.NewDevelopment()))
	require.NoError(t, device.Initialize())

	info, err := device.Info()
	require.NoError(t, err)
	assert.Empty(info.Meters)
	assert.Empty(info.Batteries)

	meters, err := device.ReadMeters()
	assert.NoError(err)
	assert.Empty(meters)
}

func TestPoll(t *testing.T) {

	assert := assert.New(t)

	device, _ := CreateTestDevice(fullOptions(), zap.Must(zap.NewDevelopment()))
	require.NoError(t, device.Initialize())

	snapshot, err := device.Poll()
	require.NoError(t, err)

	inverter := NewInverterData(snapshot.Inverter)
	assert.Equal(3512.0, inverter.ACPowerWatt)
	assert.InDelta(50.01, inverter.FrequencyHz, 1e-9)
	assert.InDelta(45.12, inverter.Temperature, 1e-9)
	assert.InDelta(12345678.0, inverter.EnergyTotalWh, 1e-9)
	assert.Equal("Inverter is ON and producing power", inverter.StatusStr)
	require.NotNil(t, inverter.GridStatus)
	assert.False(*inverter.GridStatus)
	require.NotNil(t, inverter.ExportLimitWatts)
	assert.Equal(int64(4500), *inverter.ExportLimitWatts)
	require.NotNil(t, inverter.PowerLimitPct)
	assert.Equal(uint64(100), *inverter.PowerLimitPct)
	assert.Equal(sunspec.Bool(true), snapshot.Inverter[sunspec.AdvancedPowerControlEnable])
	assert.Equal(sunspec.Uint(1), snapshot.Inverter[sunspec.ExportControlMode])
	assert.Equal(sunspec.Bool(true), snapshot.Inverter[sunspec.ExportControlExternalProduction])

	require.Contains(t, snapshot.Meters, "meter0")
	meterPayload := snapshot.Meters["meter0"]
	meter := NewMeterData(meterPayload)
	assert.Equal(-1250.0, meter.PowerWatt)
	assert.InDelta(49.99, meter.FrequencyHz, 1e-9)
	assert.Equal(2770340.0, meter.ExportEnergyWh)
	assert.Equal(sunspec.Int(-420), meterPayload["l1_power"])
	assert.Equal(sunspec.Bool(false), meterPayload["l2_current"])
	assert.NotContains(meterPayload, "export_energy_apparent")

	require.Contains(t, snapshot.Batteries, "battery0")
	battery := NewBatteryData(snapshot.Batteries["battery0"])
	assert.Equal(56.5, battery.StateOfEnergy)
	assert.Equal(-1015.5, battery.PowerWatt)
	assert.Equal("Discharge", battery.StatusStr)
	assert.Equal(sunspec.Uint(2034000), snapshot.Batteries["battery0"]["lifetime_import_energy_counter"])

	storage := snapshot.StorageControl
	require.NotNil(t, storage)
	assert.Equal(sunspec.Bool(false), storage[sunspec.StorageACChargeLimit])
	assert.Equal(sunspec.Bool(false), storage[sunspec.StorageDischargeLimit])
	assert.Equal(sunspec.Float(5000), storage[sunspec.StorageChargeLimit])
	control := NewStorageControlData(storage)
	assert.Equal("Remote Control", control.ControlMode)
	assert.Equal("Maximize self consumption", control.CommandMode)
	assert.Nil(control.DischargeLimitWatt)
	assert.Equal(uint64(3600), control.CommandTimeoutSec)
}

func TestUnreadableBundles(t *testing.T) {

	assert := assert.New(t)

	device, transport := CreateTestDevice(fullOptions(), zap.Must(zap.NewDevelopment()))
	gridStatus := sunspec.GridStatus.Bundles(true)[0].Address()
	transport.Fail(gridStatus, true)

	require.NoError(t, device.Initialize())
	assert.Equal([]uint16{gridStatus}, device.UnreadableAddresses())

	reads := transport.Reads()
	snapshot, err := device.Poll()
	require.NoError(t, err)
	assert.NotContains(snapshot.Inverter, sunspec.GridStatusOn)
	assert.Greater(transport.Reads(), reads)

	// failures after initialization are errors
	inverter := sunspec.Inverter.Bundles(true)[0].Address()
	transport.Fail(inverter, true)
	_, err = device.Poll()
	assert.Error(err)
	assert.Equal([]uint16{gridStatus}, device.UnreadableAddresses())
}

func TestMalformedRoleIsSkipped(t *testing.T) {

	assert := assert.New(t)

	device, transport := CreateTestDevice(fullOptions(), zap.Must(zap.NewDevelopment()))
	require.NoError(t, device.Initialize())

	// +Inf site limit
	transport.Set(sunspec.SiteLimit.MustRegister(sunspec.ExportControlSiteLimit).Address(), 0x0000, 0x7F80)

	snapshot, err := device.Poll()
	require.NoError(t, err)
	assert.Nil(snapshot.Inverter)
	assert.Contains(snapshot.Meters, "meter0")
	assert.Contains(snapshot.Batteries, "battery0")

	_, err = device.ReadInverter()
	assert.ErrorIs(err, sunspec.ErrMalformedData)
}

func TestWriteRegister(t *testing.T) {

	assert := assert.New(t)

	device, transport := CreateTestDevice(fullOptions(), zap.Must(zap.NewDevelopment()))
	require.NoError(t, device.Initialize())

	err := device.WriteRegister(sunspec.StorageControl, sunspec.StorageChargeLimit, sunspec.Float(2500), 0)
	require.NoError(t, err)

	writes := transport.Writes()
	require.Len(t, writes, 1)
	assert.Equal(uint16(57358), writes[0].Address)
	assert.Equal([]uint16{0x4000, 0x451C}, writes[0].Values)

	storage, err := device.ReadStorageControl()
	require.NoError(t, err)
	assert.Equal(sunspec.Float(2500), storage[sunspec.StorageChargeLimit])

	err = device.WriteRegister(sunspec.Meter, "current", sunspec.Int(5), sunspec.MeterOffsets[1].Delta)
	require.NoError(t, err)
	assert.Equal(uint16(40190+174), transport.Writes()[1].Address)

	err = device.WriteRegister(sunspec.StorageControl, "unknown", sunspec.Int(1), 0)
	assert.Error(err)

	err = device.WriteRegister(sunspec.StorageControl, sunspec.StorageCommandMode, sunspec.Text("on"), 0)
	assert.ErrorIs(err, sunspec.ErrTypeMismatch)
	assert.Len(transport.Writes(), 2)
}

func TestScaledValue(t *testing.T) {

	assert := assert.New(t)

	p := sunspec.Payload{
		"power":       sunspec.Int(1234),
		"power_scale": sunspec.Int(-1),
		"missing":     sunspec.Bool(false),
	}
	v, ok := ScaledValue(p, "power", "power_scale")
	assert.True(ok)
	assert.InDelta(123.4, v, 1e-9)

	_, ok = ScaledValue(p, "missing", "power_scale")
	assert.False(ok)
	_, ok = ScaledValue(p, "power", "missing")
	assert.False(ok)
	_, ok = ScaledValue(p, "absent", "power_scale")
	assert.False(ok)
}

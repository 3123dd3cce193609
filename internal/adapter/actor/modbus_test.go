package actor

import (
	"testing"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOptions() sunspec_modbus.Options {
	options := sunspec_modbus.AllDevices()
	options.CheckGridStatus = true
	options.AdvancedPowerControls = true
	options.StorageControl = true
	return options
}

func spawnTestModbusActor(t *testing.T) (*actor.ActorSystem, *actor.PID, *sunspec_modbus.MemoryTransport) {
	logger := zap.Must(zap.NewDevelopment())
	device, transport := sunspec_modbus.CreateTestDevice(testOptions(), logger)

	as := actorutil.NewActorSystemWithZapLogger(logger)
	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(device, logger) })
	pid := as.Root.Spawn(props)
	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})
	return as, pid, transport
}

func TestGetDevicesInfoModbusActor(t *testing.T) {

	assert := assert.New(t)

	as, pid, _ := spawnTestModbusActor(t)

	result, err := as.Root.RequestFuture(pid, domain.GetDevicesInfoRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.GetDevicesInfoResponse)

	require.False(t, resp.HasResponseError())
	assert.Equal("SolarEdge", resp.Info.Inverter.Manufacturer, "Inverter manufacturer")
	assert.Equal("SE5K-RWS48BEN4", resp.Info.Inverter.Model, "Inverter model")
	assert.Equal("0004.0020.0036", resp.Info.Inverter.Version, "Inverter version")
	require.Len(t, resp.Info.Meters, 1)
	assert.Equal("WattNode", resp.Info.Meters[0].Manufacturer, "Meter manufacturer")
	require.Len(t, resp.Info.Batteries, 1)
	assert.Equal("BAT-10K1P", resp.Info.Batteries[0].Model, "Battery model")
}

func TestPollDevicesModbusActor(t *testing.T) {

	assert := assert.New(t)

	as, pid, _ := spawnTestModbusActor(t)

	result, err := as.Root.RequestFuture(pid, domain.PollDevicesRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.PollDevicesResponse)

	require.False(t, resp.HasResponseError())
	inverter := sunspec_modbus.NewInverterData(resp.Snapshot.Inverter)
	assert.Equal(3512.0, inverter.ACPowerWatt, "ACPowerWatt")
	assert.Contains(resp.Snapshot.Meters, "meter0")
	assert.Contains(resp.Snapshot.Batteries, "battery0")
	assert.NotNil(resp.Snapshot.StorageControl)
}

func TestPollDevicesModbusActorError(t *testing.T) {

	as, pid, transport := spawnTestModbusActor(t)

	// wait for initialization before breaking the transport
	_, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	transport.Fail(sunspec.Inverter.Bundles(true)[0].Address(), true)

	result, err := as.Root.RequestFuture(pid, domain.PollDevicesRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.PollDevicesResponse)
	assert.True(t, resp.HasResponseError())
	assert.Nil(t, resp.Snapshot)
}

func TestWriteRegisterModbusActor(t *testing.T) {

	assert := assert.New(t)

	as, pid, transport := spawnTestModbusActor(t)

	result, err := as.Root.RequestFuture(pid, domain.WriteRegisterRequest{
		Table:    sunspec.StorageControl,
		Register: sunspec.StorageCommandMode,
		Value:    sunspec.Uint(3),
	}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.WriteRegisterResponse)
	assert.False(resp.HasResponseError())
	assert.Equal(sunspec.StorageCommandMode, resp.Register)

	writes := transport.Writes()
	require.Len(t, writes, 1)
	assert.Equal(sunspec.StorageControl.MustRegister(sunspec.StorageCommandMode).Address(), writes[0].Address)
	assert.Equal([]uint16{3}, writes[0].Values)

	result, err = as.Root.RequestFuture(pid, domain.WriteRegisterRequest{
		Table:    sunspec.StorageControl,
		Register: sunspec.StorageCommandMode,
		Value:    sunspec.Text("x"),
	}, 5*time.Second).Result()
	require.NoError(t, err)
	resp = result.(domain.WriteRegisterResponse)
	assert.ErrorIs(resp.GetResponseError(), sunspec.ErrTypeMismatch)
}

package actor

import (
	"errors"
	"testing"
	"time"

	adactor "github.com/berfenger/sunspec2mqtt/internal/adapter/actor"
	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util"
	"github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type controlFixture struct {
	context     *actor.RootContext
	control     *actor.PID
	transport   *sunspec_modbus.MemoryTransport
	eventStream *eventstream.EventStream
}

func spawnControl(t *testing.T, cfg config.Config) controlFixture {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	t.Cleanup(as.Shutdown)

	device, transport := sunspec_modbus.CreateTestDevice(cfg.Modbus.DeviceOptions(), logger)
	modbusPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewModbusActor(device, logger)
	}))

	es := &eventstream.EventStream{}
	controlPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewControlActor(&cfg, modbusPID, es, logger)
	}))
	return controlFixture{
		context:     as.Root,
		control:     controlPID,
		transport:   transport,
		eventStream: es,
	}
}

func TestControlStorageSet(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	f := spawnControl(t, cfg)

	var published []any
	updates := make(chan any, 16)
	f.eventStream.Subscribe(func(evt any) { updates <- evt })

	res, err := f.context.RequestFuture(f.control, domain.StorageControlSetRequest{
		Input: domain.INPUT_NUMBER_ID_STORAGE_COMMAND_MODE,
		Value: 4,
	}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := res.(domain.StorageControlSetResponse)
	assert.NoError(resp.GetResponseError())
	assert.Equal(domain.INPUT_NUMBER_ID_STORAGE_COMMAND_MODE, resp.Input)

	writes := f.transport.Writes()
	require.Len(t, writes, 1)
	assert.Equal(sunspec.StorageControl.MustRegister(sunspec.StorageCommandMode).Address(), writes[0].Address)
	assert.Equal([]uint16{4}, writes[0].Values)

	select {
	case evt := <-updates:
		published = append(published, evt)
	case <-time.After(time.Second):
	}
	require.Len(t, published, 1)
	update, ok := published[0].(domain.InputNumberSensorUpdateEvent)
	require.True(t, ok)
	assert.Equal(domain.INPUT_NUMBER_ID_STORAGE_COMMAND_MODE, update.Id)
	assert.Equal(4.0, update.Value)

	// out of range is rejected before anything is written
	res, err = f.context.RequestFuture(f.control, domain.StorageControlSetRequest{
		Input: domain.INPUT_NUMBER_ID_STORAGE_BACKUP_RESERVE,
		Value: 150,
	}, 5*time.Second).Result()
	require.NoError(t, err)
	resp = res.(domain.StorageControlSetResponse)
	assert.ErrorIs(resp.GetResponseError(), sunspec.ErrOutOfRange)

	res, err = f.context.RequestFuture(f.control, domain.StorageControlSetRequest{
		Input: "battery_hold",
		Value: 1,
	}, 5*time.Second).Result()
	require.NoError(t, err)
	resp = res.(domain.StorageControlSetResponse)
	assert.ErrorIs(resp.GetResponseError(), ErrUnknownControlInput)
	assert.Len(f.transport.Writes(), 1)

	hcr, err := healthCheck(f.context, f.control)
	require.NoError(t, err)
	assert.True(hcr.Healthy)
	assert.Equal("idle", hcr.State)
}

func TestControlStorageSetWithoutStorageControl(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.Modbus.StorageControlEnable = false
	f := spawnControl(t, cfg)

	res, err := f.context.RequestFuture(f.control, domain.StorageControlSetRequest{
		Input: domain.INPUT_NUMBER_ID_STORAGE_CHARGE_LIMIT,
		Value: 1000,
	}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := res.(domain.StorageControlSetResponse)
	assert.ErrorIs(t, resp.GetResponseError(), ErrStorageControlUnavailable)
	assert.Empty(t, f.transport.Writes())
}

func TestControlDisableAdvancedPowerControl(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	f := spawnControl(t, cfg)

	res, err := f.context.RequestFuture(f.control, domain.DisableAdvancedPowerControlRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := res.(domain.DisableAdvancedPowerControlResponse)
	assert.NoError(resp.GetResponseError())

	steps := DisableAdvancedPowerControlSteps()
	writes := f.transport.Writes()
	require.Len(t, writes, len(steps))
	for i, step := range steps {
		assert.Equal(sunspec.PowerControl.MustRegister(step.Register).Address(), writes[i].Address, step.Register)
	}
	// little endian int32 zero, then commit
	assert.Equal([]uint16{0, 0}, writes[1].Values)
	assert.Equal([]uint16{1}, writes[2].Values)
}

func TestControlDisableAdvancedPowerControlStopsOnError(t *testing.T) {

	cfg := util.LoadTestConfig()
	f := spawnControl(t, cfg)

	// fail the second step
	f.transport.Fail(sunspec.PowerControl.MustRegister(sunspec.AdvancedPowerControlEnable).Address(), true)

	res, err := f.context.RequestFuture(f.control, domain.DisableAdvancedPowerControlRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := res.(domain.DisableAdvancedPowerControlResponse)
	assert.Error(t, resp.GetResponseError())
	// commit is never written
	assert.Len(t, f.transport.Writes(), 1)
}

func TestControlDisableAdvancedPowerControlOnStart(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.Modbus.AdvancedPowerControls = config.ADVANCED_POWER_CONTROLS_DISABLE
	f := spawnControl(t, cfg)

	assert.Eventually(t, func() bool {
		return len(f.transport.Writes()) == 3
	}, 5*time.Second, 50*time.Millisecond)
}

func TestControlAdvancedPowerControlOff(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.Modbus.AdvancedPowerControls = config.ADVANCED_POWER_CONTROLS_OFF
	f := spawnControl(t, cfg)

	res, err := f.context.RequestFuture(f.control, domain.DisableAdvancedPowerControlRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := res.(domain.DisableAdvancedPowerControlResponse)
	assert.ErrorIs(t, resp.GetResponseError(), ErrAdvancedPowerControlsOff)
	assert.Empty(t, f.transport.Writes())
}

func healthCheck(ctx *actor.RootContext, pid *actor.PID) (*domain.ActorHealthResponse, error) {
	resp, err := ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	if err != nil {
		return nil, err
	}
	hcr, ok := resp.(domain.ActorHealthResponse)
	if !ok {
		return nil, errors.New("unexpected response type")
	}
	return &hcr, nil
}

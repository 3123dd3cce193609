package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type HADiscoveryActor struct {
	config             *config.Config
	behavior           actor.Behavior
	stash              *actorutil.Stash
	modbusActor        *actor.PID
	mqttActor          *actor.PID
	modbusActorHealthy bool
	mqttActorHealthy   bool
	healthyRecv        int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, modbusActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:      config,
		modbusActor: modbusActor,
		mqttActor:   mqttActor,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check Modbus and MQTT actor healthy
		state.healthyRecv = 0
		state.modbusActorHealthy = false
		state.mqttActorHealthy = false
		// Modbus Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.modbusActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MODBUS,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_MODBUS:
				state.modbusActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.modbusActorHealthy && state.mqttActorHealthy {
				// Ask Modbus GetDevicesInfoRequest
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.modbusActor, domain.GetDevicesInfoRequest{}, 2*time.Second), func(err error) any {
					return domain.GetDevicesInfoResponse{
						ActorResponseMixIn: domain.WithError(err),
					}
				})
				state.behavior.Become(state.WaitingInfoReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Modbus Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetDevicesInfoResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@info: GetDevicesInfoResponse", zap.Any("response", msg))

		ctx.Send(state.mqttActor, DiscoveryComponents(state.config, msg.Info))
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@info: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// DiscoveryComponents lists the Home Assistant entities of the bridge and
// every detected device. Sub-devices are linked to the bridge, and only
// the first sensor of a device carries the full device description.
func DiscoveryComponents(cfg *config.Config, info *sunspec_modbus.DevicesInfo) domain.PublishDiscoveryRequest {
	var sensors []domain.GenericSensor
	var switches []domain.GenericSwitch
	var inputNumbers []domain.GenericInputNumber

	bridgeDevice := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

	advancedPowerControls := cfg.Modbus.AdvancedPowerControls == config.ADVANCED_POWER_CONTROLS_ENABLED
	inverterDevice := domain.SunSpecDevice(info.Inverter)
	inverterDevice.ViaDevice = bridgeDevice.Id
	sensors = append(sensors, linkDevice(inverterDevice,
		domain.InverterSensors(inverterDevice, cfg.Modbus.CheckGridStatus, advancedPowerControls))...)

	for _, meter := range info.Meters {
		meterDevice := domain.SunSpecDevice(meter)
		meterDevice.ViaDevice = bridgeDevice.Id
		sensors = append(sensors, linkDevice(meterDevice, domain.MeterSensors(meterDevice, meter.Key))...)
	}
	for _, battery := range info.Batteries {
		batteryDevice := domain.SunSpecDevice(battery)
		batteryDevice.ViaDevice = bridgeDevice.Id
		sensors = append(sensors, linkDevice(batteryDevice, domain.BatterySensors(batteryDevice, battery.Key))...)
	}

	if cfg.Modbus.StorageControlEnable && len(info.Batteries) > 0 {
		sensors = append(sensors, domain.StorageControlSensors(domain.IdDevice(inverterDevice))...)
		inputNumbers = append(inputNumbers, domain.StorageControlInputNumbers(domain.IdDevice(inverterDevice))...)
	}
	if advancedPowerControls {
		switches = append(switches, domain.AdvancedPowerControlSwitches(domain.IdDevice(inverterDevice))...)
	}

	return domain.PublishDiscoveryRequest{
		Sensors:      sensors,
		Switches:     switches,
		InputNumbers: inputNumbers,
	}
}

func linkDevice(device domain.Device, sensors []domain.GenericSensor) []domain.GenericSensor {
	for i := range sensors {
		if i > 0 {
			sensors[i].Device = domain.IdDevice(device)
		}
	}
	return sensors
}

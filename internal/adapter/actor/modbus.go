package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	MODBUS_TASK_TIMEOUT = 5 * time.Second
)

type ModbusActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	reader   sunspec_modbus.SunSpecReader
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewModbusActor(reader sunspec_modbus.SunSpecReader, logger *zap.Logger) *ModbusActor {
	act := &ModbusActor{
		reader:   reader,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MODBUS, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *ModbusActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ModbusActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("modbus@starting started")
		if err := state.reader.Open(); err != nil {
			panic(err)
		}
		// detect devices and run the first read cycle
		if err := state.reader.Initialize(); err != nil {
			state.logger.Error("modbus@starting initialize error", zap.Error(err))
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.reader.Close()
	default:
		state.logger.Debug("modbus@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ModbusActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("modbus@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MODBUS,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetDevicesInfoRequest:
		state.logger.Debug("modbus@default: GetDevicesInfoRequest")
		info, err := state.reader.Info()
		actorutil.ForRequest(msg).Respond(ctx, domain.GetDevicesInfoResponse{
			ActorResponseMixIn: domain.WithError(err),
			Info:               info,
		})
	case domain.PollDevicesRequest:
		state.logger.Debug("modbus@default: PollDevicesRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.poll),
			mapTaskResult[domain.PollDevicesResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.PollDevicesResponse{
					ActorResponseMixIn: domain.WithError(err),
				},
				replyTo: sender,
			}
		}).WithTimeout(MODBUS_TASK_TIMEOUT).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.WriteRegisterRequest:
		state.logger.Debug("modbus@default: WriteRegisterRequest", zap.String("register", msg.Register))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTaskNoError(ctx, func() *domain.WriteRegisterResponse {
			a := state.writeRegister(msg)
			return &a
		}),
			mapTaskResult[domain.WriteRegisterResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.WriteRegisterResponse{
					ActorResponseMixIn: domain.WithError(err),
					Register:           msg.Register,
				},
				replyTo: sender,
			}
		}).WithTimeout(MODBUS_TASK_TIMEOUT).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("modbus@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ModbusActor) WaitingModbus(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("modbus@WaitingModbus backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("modbus@WaitingModbus stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *ModbusActor) poll() (*domain.PollDevicesResponse, error) {
	snapshot, err := a.reader.Poll()
	if err != nil {
		a.logger.Error("modbus poll error", zap.Error(err))
		return nil, err
	}
	return &domain.PollDevicesResponse{
		Snapshot: snapshot,
	}, nil
}

func (a *ModbusActor) writeRegister(req domain.WriteRegisterRequest) domain.WriteRegisterResponse {
	err := a.reader.WriteRegister(req.Table, req.Register, req.Value, req.Offset)
	if err != nil {
		a.logger.Error("modbus write error", zap.String("register", req.Register), zap.Error(err))
	}
	return domain.WriteRegisterResponse{
		ActorResponseMixIn: domain.WithError(err),
		Register:           req.Register,
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}

package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/core/events"
	. "github.com/berfenger/sunspec2mqtt/internal/util/actorutil"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const (
	CONTROL_WRITE_TIMEOUT = 6 * time.Second
)

var (
	ErrStorageControlUnavailable = errors.New("storage control is not available")
	ErrAdvancedPowerControlsOff  = errors.New("advanced power controls are off")
	ErrUnknownControlInput       = errors.New("unknown control input")
)

type ControlActor struct {
	ActorWithStates
	stash          *Stash
	modbusActor    *actor.PID
	config         *config.Config
	eventStream    *eventstream.EventStream
	storageControl bool

	logger *zap.Logger
}

func NewControlActor(config *config.Config, modbusActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *ControlActor {
	act := &ControlActor{
		config:      config,
		modbusActor: modbusActor,
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_CONTROL, logger),
		eventStream: eventStream,
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(ControlStartingState{
		actor: act,
	})
	return act
}

func (state *ControlActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

func (state *ControlActor) health() domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_CONTROL,
		Healthy: true,
		State:   state.StateName(),
	}
}

// Starting state

type ControlStartingState struct {
	ActorState
	actor *ControlActor
}

func (state ControlStartingState) Name() string {
	return "starting"
}

func (state ControlStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("control@starting started")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.modbusActor, domain.GetDevicesInfoRequest{}, 2*time.Second), func(err error) any {
			return domain.GetDevicesInfoResponse{
				ActorResponseMixIn: domain.WithError(err),
			}
		})
		state.actor.Become(ControlWaitingInfoState{
			actor: state.actor,
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("control@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Waiting info state

type ControlWaitingInfoState struct {
	ActorState
	actor *ControlActor
}

func (state ControlWaitingInfoState) Name() string {
	return "waitingInfo"
}

func (state ControlWaitingInfoState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetDevicesInfoResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("control@waitingInfo GetDevicesInfoResponse error", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.actor.storageControl = state.actor.config.Modbus.StorageControlEnable && len(msg.Info.Batteries) > 0
		state.actor.logger.Debug("control@waitingInfo GetDevicesInfoResponse", zap.Bool("storage_control", state.actor.storageControl))
		if state.actor.config.Modbus.AdvancedPowerControls == config.ADVANCED_POWER_CONTROLS_DISABLE {
			state.actor.logger.Info("control: disabling advanced power controls")
			ctx.Send(ctx.Self(), domain.DisableAdvancedPowerControlRequest{})
		}
		state.actor.Become(ControlIdleState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control@waitingInfo: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type ControlIdleState struct {
	ActorState
	actor *ControlActor
}

func (state ControlIdleState) Name() string {
	return "idle"
}

func (state ControlIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("control@idle: ActorHealthRequest")
		ctx.Respond(state.actor.health())
	case domain.StorageControlSetRequest:
		state.actor.logger.Sugar().Debugf("control@idle: cmd storage set %s=%v", msg.Input, msg.Value)
		replyTo := ForRequest(msg).ReplyTo(ctx)
		steps, err := state.actor.storageControlSteps(msg)
		if err != nil {
			state.actor.logger.Warn("control@idle: storage set rejected", zap.Error(err))
			reply(ctx, replyTo, domain.StorageControlSetResponse{
				ActorResponseMixIn: domain.WithError(err),
				Input:              msg.Input,
				Value:              msg.Value,
			})
			return
		}
		state.actor.BecomeStacked(ControlWritingState{
			actor:   state.actor,
			steps:   steps,
			replyTo: replyTo,
			onSuccess: func() {
				state.actor.eventStream.Publish(events.StorageControlInputUpdateEvent(msg.Input, msg.Value))
			},
			response: func(err error) domain.ActorResponse {
				return domain.StorageControlSetResponse{
					ActorResponseMixIn: domain.WithError(err),
					Input:              msg.Input,
					Value:              msg.Value,
				}
			},
		}.OnEnterAction(ctx))
	case domain.DisableAdvancedPowerControlRequest:
		state.actor.logger.Debug("control@idle: cmd disable advanced power control")
		replyTo := ForRequest(msg).ReplyTo(ctx)
		if state.actor.config.Modbus.AdvancedPowerControls == config.ADVANCED_POWER_CONTROLS_OFF {
			reply(ctx, replyTo, domain.DisableAdvancedPowerControlResponse{
				ActorResponseMixIn: domain.WithError(ErrAdvancedPowerControlsOff),
			})
			return
		}
		state.actor.BecomeStacked(ControlWritingState{
			actor:   state.actor,
			steps:   DisableAdvancedPowerControlSteps(),
			replyTo: replyTo,
			onSuccess: func() {
				state.actor.eventStream.Publish(events.AdvancedPowerControlSwitchUpdateEvent(false))
			},
			response: func(err error) domain.ActorResponse {
				return domain.DisableAdvancedPowerControlResponse{
					ActorResponseMixIn: domain.WithError(err),
				}
			},
		}.OnEnterAction(ctx))
	default:
		state.actor.logger.Debug("control@idle: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Writing state, runs register writes in order and stops at the first
// failure.

type ControlWritingState struct {
	ActorState
	actor     *ControlActor
	steps     []domain.WriteRegisterRequest
	step      int
	replyTo   *actor.PID
	onSuccess func()
	response  func(error) domain.ActorResponse
}

func (state ControlWritingState) Name() string {
	return "writing"
}

func (state ControlWritingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(state.actor.health())
	case domain.WriteRegisterResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("control@writing: WriteRegisterResponse error", zap.String("register", msg.Register), zap.Error(msg.GetResponseError()))
			state.finish(ctx, msg.GetResponseError())
			return
		}
		state.actor.logger.Debug("control@writing: WriteRegisterResponse", zap.String("register", msg.Register))
		if state.step+1 >= len(state.steps) {
			state.finish(ctx, nil)
			return
		}
		next := state
		next.step++
		state.actor.UnbecomeStacked()
		state.actor.BecomeStacked(next.OnEnterAction(ctx))
	default:
		state.actor.logger.Debug("control@writing: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state ControlWritingState) OnEnterAction(ctx actor.Context) ControlWritingState {
	req := state.steps[state.step]
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.modbusActor, req, CONTROL_WRITE_TIMEOUT),
		func(err error) any {
			return domain.WriteRegisterResponse{
				ActorResponseMixIn: domain.WithError(err),
				Register:           req.Register,
			}
		})
	return state
}

func (state ControlWritingState) finish(ctx actor.Context, err error) {
	state.actor.UnbecomeStacked()
	if err == nil && state.onSuccess != nil {
		state.onSuccess()
	}
	if state.response != nil {
		reply(ctx, state.replyTo, state.response(err))
	}
	state.actor.stash.UnstashAll(ctx)
}

// Other actor function helpers

func (state *ControlActor) storageControlSteps(req domain.StorageControlSetRequest) ([]domain.WriteRegisterRequest, error) {
	if !state.storageControl {
		return nil, ErrStorageControlUnavailable
	}
	in, ok := domain.StorageControlInputById(req.Input)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownControlInput, req.Input)
	}
	value, err := in.Value(req.Value)
	if err != nil {
		return nil, err
	}
	return []domain.WriteRegisterRequest{
		{Table: sunspec.StorageControl, Register: in.Register, Value: value},
	}, nil
}

// DisableAdvancedPowerControlSteps resets the reactive power config,
// clears the enable flag and commits the power control settings.
func DisableAdvancedPowerControlSteps() []domain.WriteRegisterRequest {
	return []domain.WriteRegisterRequest{
		{Table: sunspec.PowerControl, Register: sunspec.ReactivePowerConfig, Value: sunspec.Int(0)},
		{Table: sunspec.PowerControl, Register: sunspec.AdvancedPowerControlEnable, Value: sunspec.Bool(false)},
		{Table: sunspec.PowerControl, Register: sunspec.CommitPowerControlSettings, Value: sunspec.Int(1)},
	}
}

func reply(ctx actor.Context, pid *actor.PID, resp domain.ActorResponse) {
	if pid != nil {
		ctx.Send(pid, resp)
	}
}

package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/internal/core/events"
	. "github.com/berfenger/sunspec2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	POLL_REQUEST_TIMEOUT = 10 * time.Second
)

type PollerActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	modbusActor *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	lastPoll    time.Time
	lastError   error

	logger *zap.Logger
}

type pollTick struct {
}

func NewPollerActor(config *config.Config, modbusActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		config:      config,
		modbusActor: modbusActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_POLLER, logger),
		eventStream: eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) pollInterval() time.Duration {
	return time.Duration(state.config.MonitorConfig.PollIntervalMillis) * time.Millisecond
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		// first poll right away, then every interval
		ctx.Send(ctx.Self(), pollTick{})
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default: ActorHealthRequest")
		ctx.Respond(state.health("idle"))
	case pollTick:
		state.logger.Debug("poller@default tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.modbusActor, domain.PollDevicesRequest{}, POLL_REQUEST_TIMEOUT), func(err error) any {
			return domain.PollDevicesResponse{
				ActorResponseMixIn: domain.WithError(err),
			}
		})
		state.behavior.BecomeStacked(state.WaitingPollReceive)
	default:
		state.logger.Debug("poller@default: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PollerActor) WaitingPollReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(state.health("polling"))
	case domain.PollDevicesResponse:
		state.lastPoll = time.Now()
		state.lastError = msg.GetResponseError()
		if msg.HasResponseError() {
			state.logger.Error("poller@waiting PollDevicesResponse error", zap.Error(msg.GetResponseError()))
		} else {
			evs := events.SnapshotToUpdateEvents(msg.Snapshot)
			state.logger.Debug("poller@waiting PollDevicesResponse", zap.Int("events", len(evs)))
			for _, ev := range evs {
				state.eventStream.Publish(ev)
			}
		}

		// schedule next tick
		state.scheduler.RequestOnce(state.pollInterval(), ctx.Self(), pollTick{})
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("poller@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// health is unhealthy when the last poll failed or polls stopped arriving.
func (state *PollerActor) health(stateName string) domain.ActorHealthResponse {
	healthy := state.lastError == nil
	if !state.lastPoll.IsZero() && time.Since(state.lastPoll) > 3*state.pollInterval()+POLL_REQUEST_TIMEOUT {
		healthy = false
	}
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_POLLER,
		Healthy: healthy,
		State:   stateName,
	}
}

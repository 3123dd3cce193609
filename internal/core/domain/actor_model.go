package domain

import (
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_MODBUS       = "modbus"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_CONTROL      = "control"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetDevicesInfoRequest struct {
	ActorRequestMixIn
}

type GetDevicesInfoResponse struct {
	ActorResponseMixIn
	Info *sunspec_modbus.DevicesInfo
}

type PollDevicesRequest struct {
	ActorRequestMixIn
}

type PollDevicesResponse struct {
	ActorResponseMixIn
	Snapshot *sunspec_modbus.Snapshot
}

type WriteRegisterRequest struct {
	ActorRequestMixIn
	Table    *sunspec.Table
	Register string
	Value    sunspec.Value
	Offset   uint16
}

type WriteRegisterResponse struct {
	ActorResponseMixIn
	Register string
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id       string                `json:"id"`
	Healthy  bool                  `json:"healthy"`
	State    string                `json:"state,omitempty"`
	Children []ActorHealthResponse `json:"children,omitempty"`
}

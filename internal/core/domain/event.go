package domain

import (
	"fmt"
	"strconv"
)

const (
	STATE_ON      = "on"
	STATE_OFF     = "off"
	STATE_ONLINE  = "online"
	STATE_OFFLINE = "offline"
)

type SensorUpdateEventMixIn struct {
	Id string
}

// SensorUpdateEvent is a new state of one entity. StatePayload is the text
// published on the entity state topic.
type SensorUpdateEvent interface {
	SensorId() string
	StatePayload() string
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

func sensorUpdate(id string) SensorUpdateEventMixIn {
	return SensorUpdateEventMixIn{Id: id}
}

// DeviceSensorId prefixes a sensor name with the key of the device it
// belongs to, e.g. meter0_power.
func DeviceSensorId(deviceKey, name string) string {
	return fmt.Sprintf("%s_%s", deviceKey, name)
}

func onOff(v bool) string {
	if v {
		return STATE_ON
	}
	return STATE_OFF
}

type FloatSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

func NewFloatSensorUpdate(id string, value float64, decimals uint) FloatSensorUpdateEvent {
	return FloatSensorUpdateEvent{SensorUpdateEventMixIn: sensorUpdate(id), Value: value, Decimals: decimals}
}

func (e FloatSensorUpdateEvent) StatePayload() string {
	return strconv.FormatFloat(e.Value, 'f', int(e.Decimals), 64)
}

type BinarySensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

func NewBinarySensorUpdate(id string, value bool) BinarySensorUpdateEvent {
	return BinarySensorUpdateEvent{SensorUpdateEventMixIn: sensorUpdate(id), Value: value}
}

func (e BinarySensorUpdateEvent) StatePayload() string {
	return onOff(e.Value)
}

type SwitchSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

func NewSwitchUpdate(id string, value bool) SwitchSensorUpdateEvent {
	return SwitchSensorUpdateEvent{SensorUpdateEventMixIn: sensorUpdate(id), Value: value}
}

func (e SwitchSensorUpdateEvent) StatePayload() string {
	return onOff(e.Value)
}

type TextSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

func NewTextSensorUpdate(id string, value string) TextSensorUpdateEvent {
	return TextSensorUpdateEvent{SensorUpdateEventMixIn: sensorUpdate(id), Value: value}
}

func (e TextSensorUpdateEvent) StatePayload() string {
	return e.Value
}

// BridgeStateUpdateEvent reports the bridge availability.
type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

func (e BridgeStateUpdateEvent) StatePayload() string {
	if e.Value {
		return STATE_ONLINE
	}
	return STATE_OFFLINE
}

// InputNumberSensorUpdateEvent is the current value of a writable number.
// Zero decimals keep the shortest representation of the value.
type InputNumberSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

func NewInputNumberUpdate(id string, value float64) InputNumberSensorUpdateEvent {
	return InputNumberSensorUpdateEvent{SensorUpdateEventMixIn: sensorUpdate(id), Value: value}
}

func (e InputNumberSensorUpdateEvent) StatePayload() string {
	if e.Decimals == 0 {
		return strconv.FormatFloat(e.Value, 'f', -1, 64)
	}
	return strconv.FormatFloat(e.Value, 'f', int(e.Decimals), 64)
}

package mqtt

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/config"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = domain.STATE_ONLINE
	MQTT_PAYLOAD_OFFLINE = domain.STATE_OFFLINE
	MQTT_PAYLOAD_ON      = domain.STATE_ON
	MQTT_PAYLOAD_OFF     = domain.STATE_OFF

	COMMAND_SWITCH = "switch"
	COMMAND_NUMBER = "number"
)

var (
	ErrNotACommand    = errors.New("not a command topic")
	ErrInvalidPayload = errors.New("invalid command payload")
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("sunspec2mqtt_%04x", rand.IntN(0x10000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetWill(NewTopics(cfg.MQTT.BaseTopic).BridgeStateTopic(), MQTT_PAYLOAD_OFFLINE, 0, true)
	return opts
}

// Topics builds the state and command topics of the bridge entities.
type Topics struct {
	base string
}

func NewTopics(baseTopic string) Topics {
	return Topics{base: strings.TrimSuffix(baseTopic, "/")}
}

func (t Topics) BridgeStateTopic() string {
	return t.base + "/bridge/state"
}

func (t Topics) SensorStateTopic(sensorId string) string {
	return t.entityTopic("sensor", sensorId, "state")
}

func (t Topics) BinarySensorStateTopic(sensorId string) string {
	return t.entityTopic("binary_sensor", sensorId, "state")
}

func (t Topics) SwitchStateTopic(switchId string) string {
	return t.entityTopic(COMMAND_SWITCH, switchId, "state")
}

func (t Topics) SwitchCommandTopic(switchId string) string {
	return t.entityTopic(COMMAND_SWITCH, switchId, "command")
}

func (t Topics) InputNumberStateTopic(id string) string {
	return t.entityTopic(COMMAND_NUMBER, id, "state")
}

func (t Topics) InputNumberCommandTopic(id string) string {
	return t.entityTopic(COMMAND_NUMBER, id, "set")
}

// CommandFilters are the subscriptions that receive entity commands.
func (t Topics) CommandFilters() map[string]byte {
	return map[string]byte{
		t.SwitchCommandTopic("+"):      1,
		t.InputNumberCommandTopic("+"): 1,
	}
}

func (t Topics) entityTopic(component, id, suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.base, component, id, suffix)
}

type ParsedMQTTCommand struct {
	DeviceId string
	Command  string
	Payload  string
}

// CommandParser extracts entity commands from topics under one base topic.
type CommandParser struct {
	re *regexp.Regexp
}

func NewCommandParser(baseTopic string) CommandParser {
	base := regexp.QuoteMeta(strings.TrimSuffix(baseTopic, "/"))
	return CommandParser{
		re: regexp.MustCompile(fmt.Sprintf(`^%s/(?:(switch)/([a-zA-Z0-9_]+)/command|(number)/([a-zA-Z0-9_]+)/set)$`, base)),
	}
}

// Parse returns ErrNotACommand for topics that are not command topics.
// Switch payloads are normalized to lower case on/off and number payloads
// must parse as a float.
func (p CommandParser) Parse(topic string, payload []byte) (*ParsedMQTTCommand, error) {
	m := p.re.FindStringSubmatch(topic)
	if m == nil {
		return nil, ErrNotACommand
	}
	value := strings.TrimSpace(string(payload))
	if m[1] == COMMAND_SWITCH {
		value = strings.ToLower(value)
		if value != MQTT_PAYLOAD_ON && value != MQTT_PAYLOAD_OFF {
			return nil, fmt.Errorf("%w: switch %s: %q", ErrInvalidPayload, m[2], value)
		}
		return &ParsedMQTTCommand{DeviceId: m[2], Command: COMMAND_SWITCH, Payload: value}, nil
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return nil, fmt.Errorf("%w: number %s: %q", ErrInvalidPayload, m[4], value)
	}
	return &ParsedMQTTCommand{DeviceId: m[4], Command: COMMAND_NUMBER, Payload: value}, nil
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		Topics: NewTopics(cfg.MQTT.BaseTopic),
		client: mqtt.NewClient(opts),
		cfg:    cfg.MQTT,
		parser: NewCommandParser(cfg.MQTT.BaseTopic),
	}
}

type MQTTClient struct {
	Topics
	client mqtt.Client
	cfg    config.MQTTConfig
	parser CommandParser
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return c.parser.Parse(msg.Topic(), msg.Payload())
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	await(c.client.Publish(topic, qos, retain, payload), "publish", timeout, continuation)
}

func (c *MQTTClient) SubscribeToCommandTopics(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	await(c.client.SubscribeMultiple(c.CommandFilters(), handler), "subscribe", timeout, continuation)
}

func (c *MQTTClient) UnsubscribeFromCommandTopics(continuation func(error), timeout time.Duration) {
	filters := make([]string, 0, 2)
	for f := range c.CommandFilters() {
		filters = append(filters, f)
	}
	await(c.client.Unsubscribe(filters...), "unsubscribe", timeout, continuation)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	await(c.client.Connect(), "connect", timeout, continuation)
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

// await calls continuation from a new goroutine once the token completes.
func await(token mqtt.Token, op string, timeout time.Duration, continuation func(error)) {
	go func() {
		if !token.WaitTimeout(timeout) {
			continuation(fmt.Errorf("MQTT %s timed out", op))
			return
		}
		continuation(token.Error())
	}()
}

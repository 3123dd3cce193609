package sunspec_modbus

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// RegisterTransport moves raw holding register words to and from a device.
type RegisterTransport interface {
	Open() error
	Close() error
	ReadRegisters(addr uint16, quantity uint16) ([]uint16, error)
	WriteRegisters(addr uint16, values []uint16) error
}

// ModbusClient is the Modbus TCP transport.
type ModbusClient struct {
	client     *modbus.ModbusClient
	instrument []ModbusInstrument
}

type ModbusInstrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

type ClientConfig struct {
	Host    string
	Port    uint
	Unit    uint8
	Timeout time.Duration
}

func (reader ModbusClient) Open() error {
	return reader.client.Open()
}

func (reader ModbusClient) Close() error {
	return reader.client.Close()
}

func (reader ModbusClient) ReadRegisters(addr uint16, quantity uint16) ([]uint16, error) {
	defer RecordTimer("ReadRegisters", reader.instrument)()
	return reader.client.ReadRegisters(addr, quantity, modbus.HOLDING_REGISTER)
}

func (reader ModbusClient) WriteRegisters(addr uint16, values []uint16) error {
	defer RecordTimer("WriteRegisters", reader.instrument)()
	return reader.client.WriteRegisters(addr, values)
}

func RecordTimer(name string, instrument []ModbusInstrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}

func debugLoggerInstrumentation(logger *zap.Logger) *ModbusInstrument {
	return &ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus call", zap.String("fn", fnName), zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

func CreateModbusClient(config ClientConfig, logger *zap.Logger, instrumentation *ModbusInstrument) (*ModbusClient, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", config.Host, config.Port),
		Timeout: config.Timeout,
	})
	if err != nil {
		return nil, err
	}

	// instrumentation
	inst := []ModbusInstrument{*debugLoggerInstrumentation(logger.With(zap.Uint8("unit", config.Unit)))}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	if config.Unit > 0 {
		if err := client.SetUnitId(config.Unit); err != nil {
			return nil, err
		}
	}

	return &ModbusClient{
		client:     client,
		instrument: inst,
	}, nil
}

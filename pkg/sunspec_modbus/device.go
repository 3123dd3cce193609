package sunspec_modbus

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"go.uber.org/zap"
)

var ErrNotInitialized = errors.New("sunspec: device not initialized")

type Options struct {
	// Meters and Batteries restrict detection to the enabled slots.
	Meters                [3]bool
	Batteries             [2]bool
	CheckGridStatus       bool
	AdvancedPowerControls bool
	StorageControl        bool
}

func AllDevices() Options {
	return Options{
		Meters:    [3]bool{true, true, true},
		Batteries: [2]bool{true, true},
	}
}

// Device reads and writes a SunSpec inverter with its meters and batteries
// through table read plans.
type Device struct {
	transport RegisterTransport
	options   Options
	logger    *zap.Logger

	mu          sync.Mutex
	initialized bool
	unreadable  map[uint16]bool
	info        *DevicesInfo
	meters      []sunspec.Offset
	batteries   []sunspec.Offset
}

func NewDevice(transport RegisterTransport, options Options, logger *zap.Logger) *Device {
	return &Device{
		transport:  transport,
		options:    options,
		logger:     logger,
		unreadable: map[uint16]bool{},
	}
}

func (d *Device) Open() error {
	return d.transport.Open()
}

func (d *Device) Close() error {
	return d.transport.Close()
}

// Initialize detects the attached devices and runs a first read cycle.
// Bundles that cannot be read until it returns are skipped from then on.
func (d *Device) Initialize() error {
	d.mu.Lock()
	d.initialized = false
	d.unreadable = map[uint16]bool{}
	d.mu.Unlock()

	if err := d.Detect(); err != nil {
		return err
	}
	if _, err := d.Poll(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	if len(d.unreadable) > 0 {
		d.logger.Warn("registers not readable", zap.Uint16s("addresses", d.unreadableAddresses()))
	}
	return nil
}

func (d *Device) unreadableAddresses() []uint16 {
	addrs := make([]uint16, 0, len(d.unreadable))
	for addr := range d.unreadable {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	return addrs
}

// UnreadableAddresses lists the bundle start addresses skipped by reads.
func (d *Device) UnreadableAddresses() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unreadableAddresses()
}

// skip reports whether addr has been blocked.
func (d *Device) skip(addr uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unreadable[addr]
}

// block marks addr unreadable while the device is initializing.
func (d *Device) block(addr uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return false
	}
	d.unreadable[addr] = true
	return true
}

// ReadTable reads the required-only plan of table shifted by offset and
// decodes all bundles into one payload.
func (d *Device) ReadTable(table *sunspec.Table, offset uint16) (sunspec.Payload, error) {
	out := sunspec.Payload{}
	for _, b := range table.Bundles(true) {
		addr := b.Address() + offset
		if d.skip(addr) {
			d.logger.Debug("skip unreadable registers", zap.String("table", table.Name()), zap.Uint16("address", addr))
			continue
		}
		raw, err := d.transport.ReadRegisters(addr, b.Span())
		if err != nil {
			if d.block(addr) {
				d.logger.Info("block unreadable registers", zap.String("table", table.Name()), zap.Uint16("address", addr), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("read %s at %d: %w", table.Name(), addr, err)
		}
		if _, err := b.Decode(raw, out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", table.Name(), err)
		}
	}
	return out, nil
}

// Detect reads the inverter info block and the info blocks of every
// meter and battery it reports.
func (d *Device) Detect() error {
	inverter, err := d.ReadTable(sunspec.InverterInfo, 0)
	if err != nil {
		return err
	}
	info := &DevicesInfo{Inverter: newDeviceInfo("inverter", inverter)}
	d.logger.Info("found inverter", deviceFields(info.Inverter)...)

	var meters, batteries []sunspec.Offset
	for _, o := range sunspec.MeterOffsets {
		if !d.options.Meters[o.Index] {
			continue
		}
		if did, ok := inverter.Int(o.ID); !ok || did <= 0 {
			continue
		}
		p, err := d.ReadTable(sunspec.MeterInfo, o.Delta)
		if err != nil {
			return err
		}
		meter := newDeviceInfo(o.ID, p)
		d.logger.Info("found meter", deviceFields(meter)...)
		info.Meters = append(info.Meters, meter)
		meters = append(meters, o)
	}
	for _, o := range sunspec.BatteryOffsets {
		if !d.options.Batteries[o.Index] {
			continue
		}
		if addr, ok := inverter.Uint(o.ID); !ok || addr == sunspec.BatteryNotPresent {
			continue
		}
		p, err := d.ReadTable(sunspec.BatteryInfo, o.Delta)
		if err != nil {
			return err
		}
		battery := newDeviceInfo(o.ID, p)
		d.logger.Info("found battery", deviceFields(battery)...)
		info.Batteries = append(info.Batteries, battery)
		batteries = append(batteries, o)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.info = info
	d.meters = meters
	d.batteries = batteries
	return nil
}

func deviceFields(info DeviceInfo) []zap.Field {
	return []zap.Field{
		zap.String("key", info.Key),
		zap.String("manufacturer", info.Manufacturer),
		zap.String("model", info.Model),
		zap.String("serial", info.Serial),
		zap.String("type", info.SunSpecType),
	}
}

func (d *Device) Info() (*DevicesInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.info == nil {
		return nil, ErrNotInitialized
	}
	info := *d.info
	info.Meters = slices.Clone(d.info.Meters)
	info.Batteries = slices.Clone(d.info.Batteries)
	return &info, nil
}

func (d *Device) detected() ([]sunspec.Offset, []sunspec.Offset) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meters, d.batteries
}

func (d *Device) ReadInverter() (sunspec.Payload, error) {
	p, err := d.ReadTable(sunspec.Inverter, 0)
	if err != nil {
		return nil, err
	}
	var extra []*sunspec.Table
	if d.options.CheckGridStatus {
		extra = append(extra, sunspec.GridStatus)
	}
	if d.options.AdvancedPowerControls {
		extra = append(extra, sunspec.PowerControl, sunspec.SiteLimit)
	}
	for _, table := range extra {
		more, err := d.ReadTable(table, 0)
		if err != nil {
			return nil, err
		}
		p.Merge(more)
	}
	return p, nil
}

func (d *Device) ReadMeters() (map[string]sunspec.Payload, error) {
	meters, _ := d.detected()
	return d.readOffsets(sunspec.Meter, meters)
}

func (d *Device) ReadBatteries() (map[string]sunspec.Payload, error) {
	_, batteries := d.detected()
	return d.readOffsets(sunspec.Battery, batteries)
}

func (d *Device) readOffsets(table *sunspec.Table, offsets []sunspec.Offset) (map[string]sunspec.Payload, error) {
	out := make(map[string]sunspec.Payload, len(offsets))
	for _, o := range offsets {
		p, err := d.ReadTable(table, o.Delta)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.ID, err)
		}
		out[o.ID] = p
	}
	return out, nil
}

func (d *Device) ReadStorageControl() (sunspec.Payload, error) {
	return d.ReadTable(sunspec.StorageControl, 0)
}

// Poll reads every enabled role. A role whose data cannot be decoded is
// logged and left out of the snapshot.
func (d *Device) Poll() (*Snapshot, error) {
	snapshot := &Snapshot{}

	inverter, err := d.ReadInverter()
	if err := d.roleError("inverter", err); err != nil {
		return nil, err
	}
	snapshot.Inverter = inverter

	meters, batteries := d.detected()
	snapshot.Meters = map[string]sunspec.Payload{}
	for _, o := range meters {
		p, err := d.ReadTable(sunspec.Meter, o.Delta)
		if err := d.roleError(o.ID, err); err != nil {
			return nil, err
		}
		if p != nil {
			snapshot.Meters[o.ID] = p
		}
	}
	snapshot.Batteries = map[string]sunspec.Payload{}
	for _, o := range batteries {
		p, err := d.ReadTable(sunspec.Battery, o.Delta)
		if err := d.roleError(o.ID, err); err != nil {
			return nil, err
		}
		if p != nil {
			snapshot.Batteries[o.ID] = p
		}
	}

	if d.options.StorageControl && len(batteries) > 0 {
		p, err := d.ReadStorageControl()
		if err := d.roleError("storage_control", err); err != nil {
			return nil, err
		}
		snapshot.StorageControl = p
	}
	return snapshot, nil
}

// roleError swallows decode failures after logging them.
func (d *Device) roleError(role string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sunspec.ErrMalformedData) {
		d.logger.Error("invalid data, skipping role", zap.String("role", role), zap.Error(err))
		return nil
	}
	return fmt.Errorf("%s: %w", role, err)
}

// WriteRegister encodes value for register id of table and writes it at
// the register address shifted by offset.
func (d *Device) WriteRegister(table *sunspec.Table, id string, value sunspec.Value, offset uint16) error {
	r, ok := table.Register(id)
	if !ok {
		return fmt.Errorf("table %s has no register %s", table.Name(), id)
	}
	words, err := r.Encode(value)
	if err != nil {
		return err
	}
	addr := r.Address() + offset
	d.logger.Info("write register", zap.String("table", table.Name()), zap.String("register", id), zap.Uint16("address", addr), zap.Uint16s("words", words))
	if err := d.transport.WriteRegisters(addr, words); err != nil {
		return fmt.Errorf("write %s at %d: %w", id, addr, err)
	}
	return nil
}

var _ SunSpecReader = (*Device)(nil)

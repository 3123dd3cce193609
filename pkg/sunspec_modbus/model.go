package sunspec_modbus

import (
	"math"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
)

type DeviceInfo struct {
	Key          string `json:"key"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Option       string `json:"option,omitempty"`
	Version      string `json:"version"`
	Serial       string `json:"serial"`
	SunSpecType  string `json:"sunspec_type"`
}

type DevicesInfo struct {
	Inverter  DeviceInfo   `json:"inverter"`
	Meters    []DeviceInfo `json:"meters"`
	Batteries []DeviceInfo `json:"batteries"`
}

func newDeviceInfo(key string, p sunspec.Payload) DeviceInfo {
	info := DeviceInfo{Key: key, SunSpecType: sunspec.LookupName(sunspec.DIDNames, p, sunspec.CommonSunSpecDID)}
	info.Manufacturer, _ = p.Text(sunspec.CommonManufacturer)
	info.Model, _ = p.Text(sunspec.CommonModel)
	info.Option, _ = p.Text(sunspec.CommonOption)
	info.Version, _ = p.Text(sunspec.CommonVersion)
	info.Serial, _ = p.Text(sunspec.CommonSerialNumber)
	return info
}

// Snapshot is the result of one poll cycle. Roles that failed to decode
// are missing.
type Snapshot struct {
	Inverter       sunspec.Payload
	Meters         map[string]sunspec.Payload
	Batteries      map[string]sunspec.Payload
	StorageControl sunspec.Payload
}

// ScaledValue returns value * 10^scale. ok is false when either register
// is missing or not implemented.
func ScaledValue(p sunspec.Payload, id string, scaleID string) (float64, bool) {
	if !p.Supported(id) || !p.Supported(scaleID) {
		return 0, false
	}
	v, ok := p.Float(id)
	if !ok {
		return 0, false
	}
	scale, ok := p.Int(scaleID)
	if !ok {
		return 0, false
	}
	return v * math.Pow(10, float64(scale)), true
}

type InverterData struct {
	ACPowerWatt      float64
	ACCurrent        float64
	ACVoltage        float64
	FrequencyHz      float64
	DCPowerWatt      float64
	DCVoltage        float64
	DCCurrent        float64
	EnergyTotalWh    float64
	Temperature      float64
	Status           uint64
	StatusStr        string
	GridStatus       *bool
	PowerLimitPct    *uint64
	ExportLimitWatts *int64
}

func NewInverterData(p sunspec.Payload) InverterData {
	data := InverterData{}
	data.ACPowerWatt, _ = ScaledValue(p, "power_ac", "power_ac_scale")
	data.ACCurrent, _ = ScaledValue(p, "current", "current_scale")
	data.ACVoltage, _ = ScaledValue(p, "l1n_voltage", "voltage_scale")
	data.FrequencyHz, _ = ScaledValue(p, "frequency", "frequency_scale")
	data.DCPowerWatt, _ = ScaledValue(p, "power_dc", "power_dc_scale")
	data.DCVoltage, _ = ScaledValue(p, "voltage_dc", "voltage_dc_scale")
	data.DCCurrent, _ = ScaledValue(p, "current_dc", "current_dc_scale")
	data.EnergyTotalWh, _ = ScaledValue(p, "energy_total", "energy_total_scale")
	data.Temperature, _ = ScaledValue(p, "temperature", "temperature_scale")
	data.Status, _ = p.Uint("status")
	data.StatusStr = sunspec.LookupName(sunspec.InverterStatusNames, p, "status")
	if v, ok := p.Uint(sunspec.GridStatusOn); ok {
		on := v != 0
		data.GridStatus = &on
	}
	if v, ok := p.Uint(sunspec.ActivePowerLimit); ok {
		data.PowerLimitPct = &v
	}
	if v, ok := p.Int(sunspec.ExportControlSiteLimit); ok {
		data.ExportLimitWatts = &v
	}
	return data
}

type MeterData struct {
	PowerWatt      float64
	ImportEnergyWh float64
	ExportEnergyWh float64
	FrequencyHz    float64
	VoltageV       float64
	CurrentA       float64
}

func NewMeterData(p sunspec.Payload) MeterData {
	data := MeterData{}
	data.PowerWatt, _ = ScaledValue(p, "power", "power_scale")
	data.ImportEnergyWh, _ = ScaledValue(p, "import_energy_active", "energy_active_scale")
	data.ExportEnergyWh, _ = ScaledValue(p, "export_energy_active", "energy_active_scale")
	data.FrequencyHz, _ = ScaledValue(p, "frequency", "frequency_scale")
	data.VoltageV, _ = ScaledValue(p, "voltage_ln", "voltage_scale")
	data.CurrentA, _ = ScaledValue(p, "current", "current_scale")
	return data
}

type BatteryData struct {
	PowerWatt     float64
	VoltageV      float64
	CurrentA      float64
	StateOfEnergy float64
	StateOfHealth float64
	Status        uint64
	StatusStr     string
}

func NewBatteryData(p sunspec.Payload) BatteryData {
	data := BatteryData{}
	data.PowerWatt, _ = p.Float("instantaneous_power")
	data.VoltageV, _ = p.Float("instantaneous_voltage")
	data.CurrentA, _ = p.Float("instantaneous_current")
	data.StateOfEnergy, _ = p.Float("soe")
	data.StateOfHealth, _ = p.Float("soh")
	data.Status, _ = p.Uint("status")
	data.StatusStr = sunspec.LookupName(sunspec.BatteryStatusNames, p, "status")
	return data
}

type StorageControlData struct {
	ControlMode        string
	ACChargePolicy     string
	DefaultMode        string
	CommandMode        string
	CommandTimeoutSec  uint64
	ChargeLimitWatt    *float64
	DischargeLimitWatt *float64
	BackupReservePct   *float64
}

func NewStorageControlData(p sunspec.Payload) StorageControlData {
	data := StorageControlData{
		ControlMode:    sunspec.LookupName(sunspec.StorageControlModeNames, p, sunspec.StorageControlMode),
		ACChargePolicy: sunspec.LookupName(sunspec.StorageACChargePolicyNames, p, sunspec.StorageACChargePolicy),
		DefaultMode:    sunspec.LookupName(sunspec.StorageModeNames, p, sunspec.StorageDefaultMode),
		CommandMode:    sunspec.LookupName(sunspec.StorageModeNames, p, sunspec.StorageCommandMode),
	}
	data.CommandTimeoutSec, _ = p.Uint(sunspec.StorageCommandTimeout)
	if v, ok := p.Float(sunspec.StorageChargeLimit); ok {
		data.ChargeLimitWatt = &v
	}
	if v, ok := p.Float(sunspec.StorageDischargeLimit); ok {
		data.DischargeLimitWatt = &v
	}
	if v, ok := p.Float(sunspec.StorageBackupReserve); ok {
		data.BackupReservePct = &v
	}
	return data
}

type SunSpecReader interface {
	Open() error
	Close() error
	Initialize() error
	Info() (*DevicesInfo, error)
	Poll() (*Snapshot, error)
	ReadInverter() (sunspec.Payload, error)
	ReadMeters() (map[string]sunspec.Payload, error)
	ReadBatteries() (map[string]sunspec.Payload, error)
	ReadStorageControl() (sunspec.Payload, error)
	WriteRegister(table *sunspec.Table, id string, value sunspec.Value, offset uint16) error
}

package sunspec

import "fmt"

var DIDNames = map[uint64]string{
	101: "Single Phase Inverter",
	102: "Split Phase Inverter",
	103: "Three Phase Inverter",
	201: "Single Phase Meter",
	202: "Split Phase Meter",
	203: "Wye 3P1N Three Phase Meter",
	204: "Delta 3P Three Phase Meter",
	802: "Battery",
	803: "Lithium Ion Bank Battery",
	804: "Lithium Ion String Battery",
	805: "Lithium Ion Module Battery",
	806: "Flow Battery",
	807: "Flow String Battery",
	808: "Flow Module Battery",
	809: "Flow Stack Battery",
}

var InverterStatusNames = map[uint64]string{
	1: "Off",
	2: "Sleeping (auto-shutdown) - Night mode",
	3: "Grid Monitoring/wake-up",
	4: "Inverter is ON and producing power",
	5: "Production (curtailed)",
	6: "Shutting down",
	7: "Fault",
	8: "Maintenance/setup",
}

var BatteryStatusNames = map[uint64]string{
	0:  "Off",
	1:  "Standby",
	2:  "Initializing",
	3:  "Charge",
	4:  "Discharge",
	5:  "Fault",
	6:  "Preserve Charge",
	7:  "Idle",
	10: "Power Saving",
}

var ExportControlModeNames = map[uint64]string{
	0: "Disabled",
	1: "Direct Export Limitation",
	2: "Indirect Export Limitation",
	3: "Production Limitation",
}

var ReactivePowerConfigNames = map[uint64]string{
	0: "Fixed CosPhi",
	1: "Fixed Q",
	2: "CosPhi(P)",
	3: "Q(U) + Q(P)",
	4: "RRCR Mode",
}

var StorageControlModeNames = map[uint64]string{
	0: "Disabled",
	1: "Maximize Self Consumption",
	2: "Time of Use",
	3: "Backup Only",
	4: "Remote Control",
}

var StorageACChargePolicyNames = map[uint64]string{
	0: "Disabled",
	1: "Always Allowed",
	2: "Fixed Energy Limit",
	3: "Percent of Production",
}

// StorageModeNames covers both the default and the command mode registers.
var StorageModeNames = map[uint64]string{
	0: "Off",
	1: "Charge excess PV power only",
	2: "Charge from PV first",
	3: "Charge from PV and AC",
	4: "Maximize export",
	5: "Discharge to match load",
	7: "Maximize self consumption",
}

// LookupName maps a decoded code to its label. Unknown or unsupported
// codes yield "Unknown (<code>)" or "Unknown".
func LookupName(names map[uint64]string, p Payload, id string) string {
	code, ok := p.Uint(id)
	if !ok {
		return "Unknown"
	}
	if name, found := names[code]; found {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// Tables lists every register table in catalog order.
func Tables() []*Table {
	return []*Table{
		InverterInfo, Inverter, GridStatus, PowerControl, SiteLimit,
		MeterInfo, Meter, BatteryInfo, Battery, StorageControl,
	}
}

func TableByName(name string) (*Table, bool) {
	for _, t := range Tables() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

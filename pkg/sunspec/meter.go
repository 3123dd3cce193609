package sunspec

var MeterInfo = MustTable("meter_info", BigEndian,
	RegisterDef{ID: CommonManufacturer, Address: 40123, Type: String, Required: true, Length: 16},
	RegisterDef{ID: CommonModel, Address: 40139, Type: String, Required: true, Length: 16},
	RegisterDef{ID: CommonOption, Address: 40155, Type: String, Required: true, Length: 8},
	RegisterDef{ID: CommonVersion, Address: 40163, Type: String, Required: true, Length: 8},
	RegisterDef{ID: CommonSerialNumber, Address: 40171, Type: String, Required: true, Length: 16},
	RegisterDef{ID: CommonDeviceAddress, Address: 40187, Type: Uint16, Required: true},
	RegisterDef{ID: CommonSunSpecDID, Address: 40188, Type: Uint16, Required: true},
	RegisterDef{ID: CommonSunSpecLength, Address: 40189, Type: Uint16},
)

var Meter = MustTable("meter", BigEndian,
	RegisterDef{ID: "current", Address: 40190, Type: Int16, Required: true},
	RegisterDef{ID: "l1_current", Address: 40191, Type: Int16},
	RegisterDef{ID: "l2_current", Address: 40192, Type: Int16},
	RegisterDef{ID: "l3_current", Address: 40193, Type: Int16},
	RegisterDef{ID: "current_scale", Address: 40194, Type: Int16, Required: true},

	RegisterDef{ID: "voltage_ln", Address: 40195, Type: Int16, Required: true},
	RegisterDef{ID: "l1n_voltage", Address: 40196, Type: Int16},
	RegisterDef{ID: "l2n_voltage", Address: 40197, Type: Int16},
	RegisterDef{ID: "l3n_voltage", Address: 40198, Type: Int16},
	RegisterDef{ID: "voltage_lln", Address: 40199, Type: Int16, Required: true},
	RegisterDef{ID: "l12_voltage", Address: 40200, Type: Int16},
	RegisterDef{ID: "l23_voltage", Address: 40201, Type: Int16},
	RegisterDef{ID: "l31_voltage", Address: 40202, Type: Int16},
	RegisterDef{ID: "voltage_scale", Address: 40203, Type: Int16, Required: true},

	RegisterDef{ID: "frequency", Address: 40204, Type: Uint16, Required: true},
	RegisterDef{ID: "frequency_scale", Address: 40205, Type: Int16, Required: true},

	RegisterDef{ID: "power", Address: 40206, Type: Int16, Required: true},
	RegisterDef{ID: "l1_power", Address: 40207, Type: Int16},
	RegisterDef{ID: "l2_power", Address: 40208, Type: Int16},
	RegisterDef{ID: "l3_power", Address: 40209, Type: Int16},
	RegisterDef{ID: "power_scale", Address: 40210, Type: Int16, Required: true},

	RegisterDef{ID: "power_apparent", Address: 40211, Type: Int16, Required: true},
	RegisterDef{ID: "l1_power_apparent", Address: 40212, Type: Int16},
	RegisterDef{ID: "l2_power_apparent", Address: 40213, Type: Int16},
	RegisterDef{ID: "l3_power_apparent", Address: 40214, Type: Int16},
	RegisterDef{ID: "power_apparent_scale", Address: 40215, Type: Int16, Required: true},

	RegisterDef{ID: "power_reactive", Address: 40216, Type: Int16, Required: true},
	RegisterDef{ID: "l1_power_reactive", Address: 40217, Type: Int16},
	RegisterDef{ID: "l2_power_reactive", Address: 40218, Type: Int16},
	RegisterDef{ID: "l3_power_reactive", Address: 40219, Type: Int16},
	RegisterDef{ID: "power_reactive_scale", Address: 40220, Type: Int16, Required: true},

	RegisterDef{ID: "power_factor", Address: 40221, Type: Int16, Required: true},
	RegisterDef{ID: "l1_power_factor", Address: 40222, Type: Int16},
	RegisterDef{ID: "l2_power_factor", Address: 40223, Type: Int16},
	RegisterDef{ID: "l3_power_factor", Address: 40224, Type: Int16},
	RegisterDef{ID: "power_factor_scale", Address: 40225, Type: Int16, Required: true},

	RegisterDef{ID: "export_energy_active", Address: 40226, Type: Uint32, Required: true},
	RegisterDef{ID: "l1_export_energy_active", Address: 40228, Type: Uint32},
	RegisterDef{ID: "l2_export_energy_active", Address: 40230, Type: Uint32},
	RegisterDef{ID: "l3_export_energy_active", Address: 40232, Type: Uint32},
	RegisterDef{ID: "import_energy_active", Address: 40234, Type: Uint32, Required: true},
	RegisterDef{ID: "l1_import_energy_active", Address: 40236, Type: Uint32},
	RegisterDef{ID: "l2_import_energy_active", Address: 40238, Type: Uint32},
	RegisterDef{ID: "l3_import_energy_active", Address: 40240, Type: Uint32},
	RegisterDef{ID: "energy_active_scale", Address: 40242, Type: Int16, Required: true},

	RegisterDef{ID: "export_energy_apparent", Address: 40243, Type: Uint32},
	RegisterDef{ID: "l1_export_energy_apparent", Address: 40245, Type: Uint32},
	RegisterDef{ID: "l2_export_energy_apparent", Address: 40247, Type: Uint32},
	RegisterDef{ID: "l3_export_energy_apparent", Address: 40249, Type: Uint32},
	RegisterDef{ID: "import_energy_apparent", Address: 40251, Type: Uint32},
	RegisterDef{ID: "l1_import_energy_apparent", Address: 40253, Type: Uint32},
	RegisterDef{ID: "l2_import_energy_apparent", Address: 40255, Type: Uint32},
	RegisterDef{ID: "l3_import_energy_apparent", Address: 40257, Type: Uint32},
	RegisterDef{ID: "energy_apparent_scale", Address: 40259, Type: Int16},

	RegisterDef{ID: "import_energy_reactive_q1", Address: 40260, Type: Uint32},
	RegisterDef{ID: "l1_import_energy_reactive_q1", Address: 40262, Type: Uint32},
	RegisterDef{ID: "l2_import_energy_reactive_q1", Address: 40264, Type: Uint32},
	RegisterDef{ID: "l3_import_energy_reactive_q1", Address: 40266, Type: Uint32},
	RegisterDef{ID: "import_energy_reactive_q2", Address: 40268, Type: Uint32},
	RegisterDef{ID: "l1_import_energy_reactive_q2", Address: 40270, Type: Uint32},
	RegisterDef{ID: "l2_import_energy_reactive_q2", Address: 40272, Type: Uint32},
	RegisterDef{ID: "l3_import_energy_reactive_q2", Address: 40274, Type: Uint32},
	RegisterDef{ID: "export_energy_reactive_q3", Address: 40276, Type: Uint32},
	RegisterDef{ID: "l1_export_energy_reactive_q3", Address: 40278, Type: Uint32},
	RegisterDef{ID: "l2_export_energy_reactive_q3", Address: 40280, Type: Uint32},
	RegisterDef{ID: "l3_export_energy_reactive_q3", Address: 40282, Type: Uint32},
	RegisterDef{ID: "export_energy_reactive_q4", Address: 40284, Type: Uint32},
	RegisterDef{ID: "l1_export_energy_reactive_q4", Address: 40286, Type: Uint32},
	RegisterDef{ID: "l2_export_energy_reactive_q4", Address: 40288, Type: Uint32},
	RegisterDef{ID: "l3_export_energy_reactive_q4", Address: 40290, Type: Uint32},
	RegisterDef{ID: "energy_reactive_scale", Address: 40292, Type: Int16},
)

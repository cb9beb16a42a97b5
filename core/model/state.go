package model

// BaseloadState is the current output of the baseload device.
type BaseloadState struct {
	PBase float64 // [kW]
}

// PVState is the current output of the PV system.
type PVState struct {
	PPV float64 // [kW], negative while generating
}

// BatteryState is the current state of the home battery.
type BatteryState struct {
	PBat      float64 // charge (+) or discharge (-) power [kW]
	SoC       float64 // state of charge [kWh]
	FillLevel float64 // fill level applied in this step [kW]
	PLoadPred float64 // head of the net load prediction window [kW]
}

// HeatingState is the current state of the heating system and building.
type HeatingState struct {
	TIn       float64 // indoor temperature [K]
	TEn       float64 // envelope temperature [K]
	PHeatTh   float64 // thermal heating power [kW]
	PHeatEl   float64 // electrical heating power [kW]
	PHeatGain float64 // internal heat gains [kW]
}

package storage

import (
	"strconv"

	"github.com/KevinKickass/PlantDeck/internal/query"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

// Query field names understood by the plant and RTU listings.
const (
	FieldType         = "type"
	FieldStatus       = "status"
	FieldRegion       = "region"
	FieldContractType = "contractType"
	FieldCapacity     = "capacity"

	FieldManufacturer = "manufacturer"
	FieldProtocol     = "protocol"
	FieldPlantID      = "plant_id"
	FieldBattery      = "battery"
	FieldSignal       = "signal"
)

var PlantSchema = query.Schema[types.Plant]{
	Text: []func(types.Plant) string{
		func(p types.Plant) string { return p.Infra.Name },
		func(p types.Plant) string { return p.Infra.Address },
	},
	Strings: map[string]func(types.Plant) string{
		FieldType:         func(p types.Plant) string { return string(p.Infra.Type) },
		FieldStatus:       func(p types.Plant) string { return string(p.Status) },
		FieldRegion:       func(p types.Plant) string { return p.Infra.Address },
		FieldContractType: func(p types.Plant) string { return p.Contract.ContractType },
	},
	Numbers: map[string]func(types.Plant) (float64, bool){
		FieldCapacity: query.Present(func(p types.Plant) float64 { return p.Infra.Capacity }),
	},
}

var RTUSchema = query.Schema[types.RTU]{
	Text: []func(types.RTU) string{
		func(r types.RTU) string { return r.Name },
		func(r types.RTU) string { return r.ID },
		func(r types.RTU) string { return r.Model },
		func(r types.RTU) string { return r.SerialNumber },
		func(r types.RTU) string { return r.Location },
	},
	Strings: map[string]func(types.RTU) string{
		FieldStatus:       func(r types.RTU) string { return string(r.Status) },
		FieldManufacturer: func(r types.RTU) string { return r.Manufacturer },
		FieldProtocol:     func(r types.RTU) string { return string(r.CommunicationProtocol) },
		FieldPlantID: func(r types.RTU) string {
			if r.PlantID == nil {
				return ""
			}
			return strconv.Itoa(*r.PlantID)
		},
	},
	Numbers: map[string]func(types.RTU) (float64, bool){
		FieldBattery: query.Optional(func(r types.RTU) *float64 { return r.BatteryLevel }),
		FieldSignal:  query.Optional(func(r types.RTU) *float64 { return r.SignalStrength }),
	},
}

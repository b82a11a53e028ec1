package types

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	DefaultLatitude     = 36.5
	DefaultLongitude    = 127.5
	DefaultCapacity     = 1000.0
	DefaultAzimuth      = 180.0
	DefaultContractType = "general"
	DefaultRTUType      = "generation-monitoring"
	DefaultFirmware     = "v1.0.0"
	DefaultDataInterval = 60
)

// NewPlant builds a complete plant for a freshly allocated id. Nested
// section ids derive from the plant id; everything the request leaves out
// gets a default.
func NewPlant(id int, in PlantPatch, now time.Time) (Plant, error) {
	if in.Infra == nil || in.Infra.Name == nil || strings.TrimSpace(*in.Infra.Name) == "" {
		return Plant{}, Invalid("infra.name", "is required")
	}
	if in.Infra.Type == nil {
		return Plant{}, Invalid("infra.type", "is required")
	}
	if err := in.Validate(); err != nil {
		return Plant{}, err
	}

	capacity := DefaultCapacity
	if in.Infra.Capacity != nil {
		capacity = *in.Infra.Capacity
	}
	rtuID := ""
	if in.Monitoring != nil && in.Monitoring.RTUID != nil {
		rtuID = *in.Monitoring.RTUID
	}

	base := Plant{
		ID:     id,
		Status: PlantStatusNormal,
		Infra: Infra{
			ID:            id,
			CarrierFK:     10000 + id,
			Latitude:      DefaultLatitude,
			Longitude:     DefaultLongitude,
			Capacity:      capacity,
			KPXIdentifier: KPXIdentifier{ID: id},
			Inverter: []Inverter{
				{ID: id, Capacity: capacity, Azimuth: DefaultAzimuth},
			},
			ESS: []json.RawMessage{},
		},
		Monitoring: Monitoring{ID: 200 + id, Company: 1, RTUID: rtuID, Resource: id},
		Control: []ControlChannel{{
			ID:                    50 + id,
			Company:               1,
			ControlType:           1,
			ControllableCapacity:  capacity,
			RTUID:                 rtuID,
			OnOffInverterCapacity: map[string]any{},
			Priority:              1,
			Resource:              id,
		}},
		Contract: Contract{
			ID:           id,
			ModifiedAt:   now,
			Resource:     id,
			ContractType: DefaultContractType,
			Weight:       1.0,
		},
		Substation: 1,
		DL:         1,
	}

	out := in.Apply(base, now)
	out.ID = id
	out.Infra.ID = id
	out.Infra.KPXIdentifier.ID = id
	return out, nil
}

// NewRTU builds a complete RTU for a freshly issued id and validates it.
func NewRTU(id string, in RTUPatch, now time.Time) (RTU, error) {
	base := RTU{
		ID:                    id,
		Type:                  DefaultRTUType,
		FirmwareVersion:       DefaultFirmware,
		SerialNumber:          strings.ToUpper(id),
		InstallationDate:      now.Format(time.DateOnly),
		CommunicationProtocol: ProtocolModbus,
		Status:                RTUStatusActive,
		LastConnection:        Ptr(now),
		DataInterval:          DefaultDataInterval,
	}

	out := in.Apply(base)
	out.ID = id
	if err := out.Validate(); err != nil {
		return RTU{}, err
	}
	return out, nil
}

package types

import (
	"encoding/json"
	"strings"
	"time"
)

type PlantType string

const (
	PlantTypeSolar      PlantType = "solar"
	PlantTypeWind       PlantType = "wind"
	PlantTypeHydro      PlantType = "hydro"
	PlantTypeBiomass    PlantType = "biomass"
	PlantTypeGeothermal PlantType = "geothermal"
)

var PlantTypes = []PlantType{
	PlantTypeSolar, PlantTypeWind, PlantTypeHydro, PlantTypeBiomass, PlantTypeGeothermal,
}

func (t PlantType) Valid() bool {
	switch t {
	case PlantTypeSolar, PlantTypeWind, PlantTypeHydro, PlantTypeBiomass, PlantTypeGeothermal:
		return true
	default:
		return false
	}
}

func (t PlantType) Label() string {
	switch t {
	case PlantTypeSolar:
		return "Solar"
	case PlantTypeWind:
		return "Wind"
	case PlantTypeHydro:
		return "Hydro"
	case PlantTypeBiomass:
		return "Biomass"
	case PlantTypeGeothermal:
		return "Geothermal"
	default:
		return "Unknown"
	}
}

type PlantStatus string

const (
	PlantStatusNormal     PlantStatus = "normal"
	PlantStatusOperating  PlantStatus = "operating"
	PlantStatusInspection PlantStatus = "inspection"
	PlantStatusRepair     PlantStatus = "repair"
	PlantStatusFaulted    PlantStatus = "faulted"
	PlantStatusStopped    PlantStatus = "stopped"
)

var PlantStatuses = []PlantStatus{
	PlantStatusNormal, PlantStatusOperating, PlantStatusInspection,
	PlantStatusRepair, PlantStatusFaulted, PlantStatusStopped,
}

func (s PlantStatus) Valid() bool {
	switch s {
	case PlantStatusNormal, PlantStatusOperating, PlantStatusInspection,
		PlantStatusRepair, PlantStatusFaulted, PlantStatusStopped:
		return true
	default:
		return false
	}
}

func (s PlantStatus) Label() string {
	switch s {
	case PlantStatusNormal:
		return "Normal"
	case PlantStatusOperating:
		return "Operating"
	case PlantStatusInspection:
		return "Under inspection"
	case PlantStatusRepair:
		return "Under repair"
	case PlantStatusFaulted:
		return "Faulted"
	case PlantStatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Healthy reports whether the plant is producing or able to produce.
func (s PlantStatus) Healthy() bool {
	switch s {
	case PlantStatusNormal, PlantStatusOperating:
		return true
	case PlantStatusInspection, PlantStatusRepair, PlantStatusFaulted, PlantStatusStopped:
		return false
	default:
		return false
	}
}

type Plant struct {
	ID                 int              `json:"id"`
	ModifiedAt         time.Time        `json:"modified_at"`
	Status             PlantStatus      `json:"status"`
	Infra              Infra            `json:"infra"`
	Monitoring         Monitoring       `json:"monitoring"`
	Control            []ControlChannel `json:"control"`
	Contract           Contract         `json:"contract"`
	Substation         int              `json:"substation"`
	DL                 int              `json:"dl"`
	FixedContractPrice *float64         `json:"fixed_contract_price"`
	GuaranteedCapacity float64          `json:"guaranteed_capacity"`
}

type Infra struct {
	ID            int               `json:"id"`
	CarrierFK     int               `json:"carrier_fk"`
	Name          string            `json:"name"`
	Type          PlantType         `json:"type"`
	Address       string            `json:"address"`
	Latitude      float64           `json:"latitude"`
	Longitude     float64           `json:"longitude"`
	Altitude      *float64          `json:"altitude"`
	Capacity      float64           `json:"capacity"` // kW
	InstallDate   *string           `json:"install_date"`
	KPXIdentifier KPXIdentifier     `json:"kpx_identifier"`
	Inverter      []Inverter        `json:"inverter"`
	ESS           []json.RawMessage `json:"ess"`
}

type KPXIdentifier struct {
	ID          int    `json:"id"`
	KPXCBPGenID string `json:"kpx_cbp_gen_id"`
}

type Inverter struct {
	ID          int     `json:"id"`
	Capacity    float64 `json:"capacity"`
	Tilt        float64 `json:"tilt"`
	Azimuth     float64 `json:"azimuth"`
	InstallType *string `json:"install_type"`
	ModuleType  *string `json:"module_type"`
}

type Monitoring struct {
	ID       int    `json:"id"`
	Company  int    `json:"company"`
	RTUID    string `json:"rtu_id"`
	Resource int    `json:"resource"`
}

type ControlChannel struct {
	ID                    int            `json:"id"`
	Company               int            `json:"company"`
	ControlType           int            `json:"control_type"`
	ControllableCapacity  float64        `json:"controllable_capacity"`
	RTUID                 string         `json:"rtu_id"`
	OnOffInverterCapacity map[string]any `json:"onoff_inverter_capacity"`
	Priority              int            `json:"priority"`
	Resource              int            `json:"resource"`
}

type Contract struct {
	ID                         int       `json:"id"`
	ModifiedAt                 time.Time `json:"modified_at"`
	Resource                   int       `json:"resource"`
	ContractType               string    `json:"contract_type"`
	ContractDate               string    `json:"contract_date"`
	Weight                     float64   `json:"weight"`
	FixedContractType          *string   `json:"fixed_contract_type"`
	FixedContractPrice         *float64  `json:"fixed_contract_price"`
	FixedContractAgreementDate *string   `json:"fixed_contract_agreement_date"`
}

// Clone returns a deep copy; stores never hand out shared slices or maps.
func (p Plant) Clone() Plant {
	out := p
	out.FixedContractPrice = clonePtr(p.FixedContractPrice)
	out.Infra.Altitude = clonePtr(p.Infra.Altitude)
	out.Infra.InstallDate = clonePtr(p.Infra.InstallDate)
	if p.Infra.Inverter != nil {
		out.Infra.Inverter = make([]Inverter, len(p.Infra.Inverter))
		for i, inv := range p.Infra.Inverter {
			inv.InstallType = clonePtr(inv.InstallType)
			inv.ModuleType = clonePtr(inv.ModuleType)
			out.Infra.Inverter[i] = inv
		}
	}
	if p.Infra.ESS != nil {
		out.Infra.ESS = make([]json.RawMessage, len(p.Infra.ESS))
		for i, raw := range p.Infra.ESS {
			out.Infra.ESS[i] = append(json.RawMessage(nil), raw...)
		}
	}
	if p.Control != nil {
		out.Control = make([]ControlChannel, len(p.Control))
		for i, ch := range p.Control {
			if ch.OnOffInverterCapacity != nil {
				m := make(map[string]any, len(ch.OnOffInverterCapacity))
				for k, v := range ch.OnOffInverterCapacity {
					m[k] = v
				}
				ch.OnOffInverterCapacity = m
			}
			out.Control[i] = ch
		}
	}
	out.Contract.FixedContractType = clonePtr(p.Contract.FixedContractType)
	out.Contract.FixedContractPrice = clonePtr(p.Contract.FixedContractPrice)
	out.Contract.FixedContractAgreementDate = clonePtr(p.Contract.FixedContractAgreementDate)
	return out
}

// PlantPatch is a partial update. Each top-level section merges on its
// own; a nil section leaves the stored one untouched.
type PlantPatch struct {
	Status             *PlantStatus      `json:"status"`
	Infra              *InfraPatch       `json:"infra"`
	Monitoring         *MonitoringPatch  `json:"monitoring"`
	Contract           *ContractPatch    `json:"contract"`
	Control            *[]ControlChannel `json:"control"`
	Substation         *int              `json:"substation"`
	DL                 *int              `json:"dl"`
	FixedContractPrice Nullable[float64] `json:"fixed_contract_price"`
	GuaranteedCapacity *float64          `json:"guaranteed_capacity"`
}

type InfraPatch struct {
	CarrierFK     *int               `json:"carrier_fk"`
	Name          *string            `json:"name"`
	Type          *PlantType         `json:"type"`
	Address       *string            `json:"address"`
	Latitude      *float64           `json:"latitude"`
	Longitude     *float64           `json:"longitude"`
	Altitude      Nullable[float64]  `json:"altitude"`
	Capacity      *float64           `json:"capacity"`
	InstallDate   Nullable[string]   `json:"install_date"`
	KPXIdentifier *KPXIdentifier     `json:"kpx_identifier"`
	Inverter      *[]Inverter        `json:"inverter"`
	ESS           *[]json.RawMessage `json:"ess"`
}

type MonitoringPatch struct {
	Company  *int    `json:"company"`
	RTUID    *string `json:"rtu_id"`
	Resource *int    `json:"resource"`
}

type ContractPatch struct {
	ContractType               *string           `json:"contract_type"`
	ContractDate               *string           `json:"contract_date"`
	Weight                     *float64          `json:"weight"`
	FixedContractType          Nullable[string]  `json:"fixed_contract_type"`
	FixedContractPrice         Nullable[float64] `json:"fixed_contract_price"`
	FixedContractAgreementDate Nullable[string]  `json:"fixed_contract_agreement_date"`
}

// Validate checks every supplied field before anything is applied.
func (p PlantPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return Invalid("status", "unknown plant status %q", *p.Status)
	}
	if p.Infra != nil {
		in := p.Infra
		if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
			return Invalid("infra.name", "must not be empty")
		}
		if in.Type != nil && !in.Type.Valid() {
			return Invalid("infra.type", "unknown plant type %q", *in.Type)
		}
		if in.Capacity != nil && *in.Capacity <= 0 {
			return Invalid("infra.capacity", "must be positive")
		}
		if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
			return Invalid("infra.latitude", "out of range")
		}
		if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
			return Invalid("infra.longitude", "out of range")
		}
	}
	return nil
}

// Apply returns a copy of base with the patch merged in. Array fields
// (inverter, ess, control) are replaced wholesale, never merged element-wise.
func (p PlantPatch) Apply(base Plant, now time.Time) Plant {
	out := base.Clone()
	out.ModifiedAt = now

	if p.Status != nil {
		out.Status = *p.Status
	}
	if in := p.Infra; in != nil {
		if in.CarrierFK != nil {
			out.Infra.CarrierFK = *in.CarrierFK
		}
		if in.Name != nil {
			out.Infra.Name = *in.Name
		}
		if in.Type != nil {
			out.Infra.Type = *in.Type
		}
		if in.Address != nil {
			out.Infra.Address = *in.Address
		}
		if in.Latitude != nil {
			out.Infra.Latitude = *in.Latitude
		}
		if in.Longitude != nil {
			out.Infra.Longitude = *in.Longitude
		}
		in.Altitude.ApplyTo(&out.Infra.Altitude)
		if in.Capacity != nil {
			out.Infra.Capacity = *in.Capacity
		}
		in.InstallDate.ApplyTo(&out.Infra.InstallDate)
		if in.KPXIdentifier != nil {
			out.Infra.KPXIdentifier = *in.KPXIdentifier
		}
		if in.Inverter != nil {
			out.Infra.Inverter = Plant{Infra: Infra{Inverter: *in.Inverter}}.Clone().Infra.Inverter
		}
		if in.ESS != nil {
			out.Infra.ESS = Plant{Infra: Infra{ESS: *in.ESS}}.Clone().Infra.ESS
		}
	}
	if m := p.Monitoring; m != nil {
		if m.Company != nil {
			out.Monitoring.Company = *m.Company
		}
		if m.RTUID != nil {
			out.Monitoring.RTUID = *m.RTUID
		}
		if m.Resource != nil {
			out.Monitoring.Resource = *m.Resource
		}
	}
	if c := p.Contract; c != nil {
		if c.ContractType != nil {
			out.Contract.ContractType = *c.ContractType
		}
		if c.ContractDate != nil {
			out.Contract.ContractDate = *c.ContractDate
		}
		if c.Weight != nil {
			out.Contract.Weight = *c.Weight
		}
		c.FixedContractType.ApplyTo(&out.Contract.FixedContractType)
		c.FixedContractPrice.ApplyTo(&out.Contract.FixedContractPrice)
		c.FixedContractAgreementDate.ApplyTo(&out.Contract.FixedContractAgreementDate)
		out.Contract.ModifiedAt = now
	}
	if p.Control != nil {
		out.Control = Plant{Control: *p.Control}.Clone().Control
	}
	if p.Substation != nil {
		out.Substation = *p.Substation
	}
	if p.DL != nil {
		out.DL = *p.DL
	}
	p.FixedContractPrice.ApplyTo(&out.FixedContractPrice)
	if p.GuaranteedCapacity != nil {
		out.GuaranteedCapacity = *p.GuaranteedCapacity
	}
	return out
}

package types

import (
	"strings"
	"time"
)

type RTUStatus string

const (
	RTUStatusActive      RTUStatus = "active"
	RTUStatusInactive    RTUStatus = "inactive"
	RTUStatusMaintenance RTUStatus = "maintenance"
	RTUStatusError       RTUStatus = "error"
)

var RTUStatuses = []RTUStatus{RTUStatusActive, RTUStatusInactive, RTUStatusMaintenance, RTUStatusError}

func (s RTUStatus) Valid() bool {
	switch s {
	case RTUStatusActive, RTUStatusInactive, RTUStatusMaintenance, RTUStatusError:
		return true
	default:
		return false
	}
}

func (s RTUStatus) Label() string {
	switch s {
	case RTUStatusActive:
		return "Active"
	case RTUStatusInactive:
		return "Inactive"
	case RTUStatusMaintenance:
		return "Maintenance"
	case RTUStatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

type Protocol string

const (
	ProtocolModbus   Protocol = "Modbus"
	ProtocolDNP3     Protocol = "DNP3"
	ProtocolIEC61850 Protocol = "IEC 61850"
	ProtocolMQTT     Protocol = "MQTT"
	ProtocolHTTPREST Protocol = "HTTP/REST"
	ProtocolLoRaWAN  Protocol = "LoRaWAN"
	ProtocolZigbee   Protocol = "Zigbee"
	ProtocolCustom   Protocol = "Custom"
)

var Protocols = []Protocol{
	ProtocolModbus, ProtocolDNP3, ProtocolIEC61850, ProtocolMQTT,
	ProtocolHTTPREST, ProtocolLoRaWAN, ProtocolZigbee, ProtocolCustom,
}

func (p Protocol) Valid() bool {
	switch p {
	case ProtocolModbus, ProtocolDNP3, ProtocolIEC61850, ProtocolMQTT,
		ProtocolHTTPREST, ProtocolLoRaWAN, ProtocolZigbee, ProtocolCustom:
		return true
	default:
		return false
	}
}

// Wireless reports whether the link has a radio signal worth showing.
func (p Protocol) Wireless() bool {
	switch p {
	case ProtocolLoRaWAN, ProtocolZigbee, ProtocolMQTT:
		return true
	case ProtocolModbus, ProtocolDNP3, ProtocolIEC61850, ProtocolHTTPREST, ProtocolCustom:
		return false
	default:
		return false
	}
}

type RTU struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Type                  string     `json:"type"`
	Model                 string     `json:"model"`
	Manufacturer          string     `json:"manufacturer"`
	FirmwareVersion       string     `json:"firmware_version"`
	SerialNumber          string     `json:"serial_number"`
	InstallationDate      string     `json:"installation_date"`
	LastMaintenanceDate   *string    `json:"last_maintenance_date"`
	CommunicationProtocol Protocol   `json:"communication_protocol"`
	IPAddress             *string    `json:"ip_address"`
	Port                  *int       `json:"port"`
	Status                RTUStatus  `json:"status"`
	PlantID               *int       `json:"plant_id"`
	PlantName             *string    `json:"plant_name"`
	Location              string     `json:"location"`
	Description           *string    `json:"description"`
	LastConnection        *time.Time `json:"last_connection"`
	DataInterval          int        `json:"data_interval"` // seconds
	BatteryLevel          *float64   `json:"battery_level"`
	SignalStrength        *float64   `json:"signal_strength"` // dBm
	Notes                 *string    `json:"notes"`
}

func (r RTU) Clone() RTU {
	out := r
	out.LastMaintenanceDate = clonePtr(r.LastMaintenanceDate)
	out.IPAddress = clonePtr(r.IPAddress)
	out.Port = clonePtr(r.Port)
	out.PlantID = clonePtr(r.PlantID)
	out.PlantName = clonePtr(r.PlantName)
	out.Description = clonePtr(r.Description)
	out.LastConnection = clonePtr(r.LastConnection)
	out.BatteryLevel = clonePtr(r.BatteryLevel)
	out.SignalStrength = clonePtr(r.SignalStrength)
	out.Notes = clonePtr(r.Notes)
	return out
}

// Validate checks field domains shared by create and update.
func (r RTU) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return Invalid("name", "is required")
	}
	if strings.TrimSpace(r.Model) == "" {
		return Invalid("model", "is required")
	}
	if strings.TrimSpace(r.Manufacturer) == "" {
		return Invalid("manufacturer", "is required")
	}
	if !r.Status.Valid() {
		return Invalid("status", "unknown RTU status %q", r.Status)
	}
	if !r.CommunicationProtocol.Valid() {
		return Invalid("communication_protocol", "unknown protocol %q", r.CommunicationProtocol)
	}
	if r.Port != nil && (*r.Port < 1 || *r.Port > 65535) {
		return Invalid("port", "must be between 1 and 65535")
	}
	if r.DataInterval <= 0 {
		return Invalid("data_interval", "must be positive")
	}
	if r.BatteryLevel != nil && (*r.BatteryLevel < 0 || *r.BatteryLevel > 100) {
		return Invalid("battery_level", "must be between 0 and 100")
	}
	if r.SignalStrength != nil && *r.SignalStrength >= 0 {
		return Invalid("signal_strength", "must be negative dBm")
	}
	return nil
}

// RTUPatch overrides fields independently. Plain pointers keep the stored
// value when nil; Nullable fields additionally clear it on explicit null.
type RTUPatch struct {
	Name                  *string             `json:"name"`
	Type                  *string             `json:"type"`
	Model                 *string             `json:"model"`
	Manufacturer          *string             `json:"manufacturer"`
	FirmwareVersion       *string             `json:"firmware_version"`
	SerialNumber          *string             `json:"serial_number"`
	InstallationDate      *string             `json:"installation_date"`
	LastMaintenanceDate   Nullable[string]    `json:"last_maintenance_date"`
	CommunicationProtocol *Protocol           `json:"communication_protocol"`
	IPAddress             Nullable[string]    `json:"ip_address"`
	Port                  Nullable[int]       `json:"port"`
	Status                *RTUStatus          `json:"status"`
	PlantID               Nullable[int]       `json:"plant_id"`
	PlantName             Nullable[string]    `json:"plant_name"`
	Location              *string             `json:"location"`
	Description           Nullable[string]    `json:"description"`
	LastConnection        Nullable[time.Time] `json:"last_connection"`
	DataInterval          *int                `json:"data_interval"`
	BatteryLevel          Nullable[float64]   `json:"battery_level"`
	SignalStrength        Nullable[float64]   `json:"signal_strength"`
	Notes                 Nullable[string]    `json:"notes"`
}

// Apply merges the patch into a copy of base. The result still has to pass
// RTU.Validate before it is committed.
func (p RTUPatch) Apply(base RTU) RTU {
	out := base.Clone()
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&out.Name, p.Name)
	setString(&out.Type, p.Type)
	setString(&out.Model, p.Model)
	setString(&out.Manufacturer, p.Manufacturer)
	setString(&out.FirmwareVersion, p.FirmwareVersion)
	setString(&out.SerialNumber, p.SerialNumber)
	setString(&out.InstallationDate, p.InstallationDate)
	setString(&out.Location, p.Location)
	p.LastMaintenanceDate.ApplyTo(&out.LastMaintenanceDate)
	if p.CommunicationProtocol != nil {
		out.CommunicationProtocol = *p.CommunicationProtocol
	}
	p.IPAddress.ApplyTo(&out.IPAddress)
	p.Port.ApplyTo(&out.Port)
	if p.Status != nil {
		out.Status = *p.Status
	}
	p.PlantID.ApplyTo(&out.PlantID)
	p.PlantName.ApplyTo(&out.PlantName)
	p.Description.ApplyTo(&out.Description)
	p.LastConnection.ApplyTo(&out.LastConnection)
	if p.DataInterval != nil {
		out.DataInterval = *p.DataInterval
	}
	p.BatteryLevel.ApplyTo(&out.BatteryLevel)
	p.SignalStrength.ApplyTo(&out.SignalStrength)
	p.Notes.ApplyTo(&out.Notes)
	return out
}

package types

import "time"

type TelemetryStatus string

const (
	TelemetryOnline  TelemetryStatus = "online"
	TelemetryOffline TelemetryStatus = "offline"
	TelemetryWarning TelemetryStatus = "warning"
	TelemetryError   TelemetryStatus = "error"
)

var TelemetryStatuses = []TelemetryStatus{TelemetryOnline, TelemetryOffline, TelemetryWarning, TelemetryError}

func (s TelemetryStatus) Valid() bool {
	switch s {
	case TelemetryOnline, TelemetryOffline, TelemetryWarning, TelemetryError:
		return true
	default:
		return false
	}
}

// Reachable is false only for offline devices, which report no battery
// or signal readings.
func (s TelemetryStatus) Reachable() bool {
	switch s {
	case TelemetryOffline:
		return false
	case TelemetryOnline, TelemetryWarning, TelemetryError:
		return true
	default:
		return false
	}
}

// Snapshot is the current simulated reading-set of one device.
type Snapshot struct {
	ID             string             `json:"id"`
	Timestamp      time.Time          `json:"timestamp"`
	Status         TelemetryStatus    `json:"status"`
	BatteryLevel   *float64           `json:"batteryLevel"`
	SignalStrength *float64           `json:"signalStrength"`
	Values         map[string]float64 `json:"values"`
}

func (s Snapshot) Clone() Snapshot {
	out := s
	out.BatteryLevel = clonePtr(s.BatteryLevel)
	out.SignalStrength = clonePtr(s.SignalStrength)
	if s.Values != nil {
		out.Values = make(map[string]float64, len(s.Values))
		for k, v := range s.Values {
			out.Values[k] = v
		}
	}
	return out
}

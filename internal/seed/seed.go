// Package seed fabricates demo plants and RTUs from a seedable source.
package seed

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

var (
	installTypes  = []string{"ground", "floating", "rooftop", "agrivoltaic"}
	moduleTypes   = []string{"mono", "poly", "thin-film", "PERC", "TOPCon"}
	contractTypes = []string{"spot", "forward", "renewable", "private-ppa", "new-business"}
	contractDates = []string{"1st (24-06)", "2nd (24-07)", "3rd (24-08)", "4th (24-09)", "1st (25-01)"}
	namePrefixes  = []string{"Sun", "Haneul", "Baram", "Pureun", "Green", "Malgeun", "Mirae", "Renew", "Eco", "Bright"}
	nameSuffixes  = []string{"Energy", "Power", "Plant", "Green", "Solar", "Light", "Industry", "Flex", "House", "Farm"}
	regions       = []string{
		"Seoul Gangnam", "Gyeonggi Suwon", "Gangwon Gangneung", "Chungbuk Cheongju", "Chungnam Dangjin",
		"Jeonbuk Gunsan", "Jeonnam Haenam", "Gyeongbuk Andong", "Gyeongnam Changwon", "Jeju Seogwipo",
	}

	manufacturers = []string{
		"Siemens", "ABB", "Schneider Electric", "General Electric", "Honeywell",
		"Emerson", "Yokogawa", "Rockwell Automation", "Mitsubishi Electric", "Phoenix Contact",
	}
	modelPrefixes = []string{"RTU", "REM", "CTRL", "XTR", "SYS", "MON"}
	modelSuffixes = []string{"1000", "2000", "3000", "PRO", "LITE", "MAX", "PLUS"}
	rtuTypes      = []string{"generation-monitoring", "environment-sensor", "integrated-control", "power-quality", "security-monitoring"}
	dataIntervals = []int{5, 10, 15, 30, 60, 300, 600}
)

// Generator draws records from one random source. Not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// New returns a generator; the same seed always yields the same dataset.
func New(seed uint64, now time.Time) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now.UTC(),
	}
}

// Plants generates n plants with ids 1..n.
func (g *Generator) Plants(n int) []types.Plant {
	out := make([]types.Plant, 0, n)
	for id := 1; id <= n; id++ {
		out = append(out, g.plant(id))
	}
	return out
}

func (g *Generator) plant(id int) types.Plant {
	kind := pick(g.rng, types.PlantTypes)

	var status types.PlantStatus
	if g.chance(0.7) {
		status = pick(g.rng, []types.PlantStatus{types.PlantStatusNormal, types.PlantStatusOperating})
	} else {
		status = pick(g.rng, []types.PlantStatus{
			types.PlantStatusInspection, types.PlantStatusRepair, types.PlantStatusFaulted, types.PlantStatusStopped,
		})
	}

	var capacity float64
	switch kind {
	case types.PlantTypeSolar:
		capacity = float64(g.between(500, 5000))
	case types.PlantTypeWind:
		capacity = float64(g.between(2000, 8000))
	case types.PlantTypeHydro, types.PlantTypeBiomass, types.PlantTypeGeothermal:
		capacity = float64(g.between(1000, 3000))
	}

	name := pick(g.rng, namePrefixes) + " " + pick(g.rng, nameSuffixes)
	rtuID := g.digits(4)

	p := types.Plant{
		ID:         id,
		ModifiedAt: g.now.Add(-time.Duration(g.rng.IntN(30*24)) * time.Hour),
		Status:     status,
		Infra: types.Infra{
			ID:        id,
			CarrierFK: 10000 + id,
			Name:      name,
			Type:      kind,
			Address:   fmt.Sprintf("%s %d-%d", pick(g.rng, regions), g.between(1, 999), g.between(1, 99)),
			Latitude:  round(33+g.rng.Float64()*5, 4),
			Longitude: round(125+g.rng.Float64()*5, 4),
			Capacity:  capacity,
			KPXIdentifier: types.KPXIdentifier{
				ID:          id,
				KPXCBPGenID: g.digits(4),
			},
			Inverter: []types.Inverter{{
				ID:          id,
				Capacity:    capacity,
				Tilt:        float64(g.between(0, 45)),
				Azimuth:     float64(g.between(90, 270)),
				InstallType: g.maybe(0.8, installTypes),
				ModuleType:  g.maybe(0.85, moduleTypes),
			}},
			ESS: []json.RawMessage{},
		},
		Monitoring: types.Monitoring{
			ID:       200 + id,
			Company:  g.between(1, 5),
			RTUID:    rtuID,
			Resource: id,
		},
		Control: []types.ControlChannel{{
			ID:                    50 + id,
			Company:               g.between(1, 5),
			ControlType:           g.between(1, 3),
			ControllableCapacity:  capacity,
			RTUID:                 rtuID,
			OnOffInverterCapacity: map[string]any{},
			Priority:              g.between(1, 5),
			Resource:              id,
		}},
		Contract: types.Contract{
			ID:           id,
			ModifiedAt:   g.now.Add(-time.Duration(g.rng.IntN(7*24)) * time.Hour),
			Resource:     id,
			ContractType: pick(g.rng, contractTypes),
			ContractDate: pick(g.rng, contractDates),
			Weight:       round(1+g.rng.Float64()*0.2, 3),
		},
		Substation:         g.between(1, 20),
		DL:                 g.between(20, 50),
		GuaranteedCapacity: -round(10000+g.rng.Float64()*20000, 3),
	}

	if g.chance(0.6) {
		p.Infra.Altitude = types.Ptr(float64(g.between(0, 1000)))
	}
	if g.chance(0.7) {
		p.Infra.InstallDate = types.Ptr(g.pastDate(5 * 365))
	}
	if g.chance(0.3) {
		p.Contract.FixedContractType = types.Ptr("fixed-price")
	}
	if g.chance(0.3) {
		p.Contract.FixedContractPrice = types.Ptr(float64(g.between(100, 200)))
	}
	if g.chance(0.3) {
		p.Contract.FixedContractAgreementDate = types.Ptr(g.pastDate(365))
	}
	if g.chance(0.3) {
		p.FixedContractPrice = types.Ptr(float64(g.between(100, 200)))
	}

	return p
}

// RTUs generates n RTUs with zero-padded ids. About 70% are linked to a
// random plant from plants.
func (g *Generator) RTUs(n int, plants []types.Plant) []types.RTU {
	out := make([]types.RTU, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, g.rtu(fmt.Sprintf("%04d", i), plants))
	}
	return out
}

func (g *Generator) rtu(id string, plants []types.Plant) types.RTU {
	var plant *types.Plant
	if len(plants) > 0 && g.chance(0.7) {
		plant = &plants[g.rng.IntN(len(plants))]
	}

	status := types.RTUStatusActive
	if !g.chance(0.7) {
		status = pick(g.rng, []types.RTUStatus{types.RTUStatusInactive, types.RTUStatusMaintenance, types.RTUStatusError})
	}

	r := types.RTU{
		ID:                    id,
		Type:                  pick(g.rng, rtuTypes),
		Model:                 pick(g.rng, modelPrefixes) + "-" + pick(g.rng, modelSuffixes),
		Manufacturer:          pick(g.rng, manufacturers),
		FirmwareVersion:       fmt.Sprintf("v%d.%d.%d", g.between(0, 9), g.between(0, 20), g.between(0, 30)),
		SerialNumber:          g.alnum(10),
		InstallationDate:      g.pastDate(5 * 365),
		CommunicationProtocol: pick(g.rng, types.Protocols),
		Status:                status,
		DataInterval:          pick(g.rng, dataIntervals),
	}

	if plant != nil {
		r.Name = fmt.Sprintf("%s RTU-%s", plant.Infra.Name, id)
		r.PlantID = types.Ptr(plant.ID)
		r.PlantName = types.Ptr(plant.Infra.Name)
		r.Location = plant.Infra.Address
	} else {
		region := pick(g.rng, regions)
		r.Name = fmt.Sprintf("%s RTU-%s", strings.Fields(region)[1], id)
		r.Location = fmt.Sprintf("%s %d-%d", region, g.between(1, 999), g.between(1, 99))
	}

	if g.chance(0.8) {
		r.LastMaintenanceDate = types.Ptr(g.pastDate(365))
	}
	if g.chance(0.8) {
		r.IPAddress = types.Ptr(fmt.Sprintf("10.%d.%d.%d", g.between(0, 255), g.between(0, 255), g.between(1, 254)))
		r.Port = types.Ptr(g.between(1024, 65535))
	}

	switch status {
	case types.RTUStatusActive:
		r.LastConnection = types.Ptr(g.now.Add(-time.Duration(g.rng.IntN(3600)) * time.Second))
	case types.RTUStatusInactive:
		r.LastConnection = types.Ptr(g.now.Add(-time.Duration(g.rng.IntN(30*24)) * time.Hour))
	case types.RTUStatusMaintenance, types.RTUStatusError:
		if g.chance(0.5) {
			r.LastConnection = types.Ptr(g.now.Add(-time.Duration(g.rng.IntN(11*24)) * time.Hour))
		}
	}

	if g.chance(0.7) {
		r.BatteryLevel = types.Ptr(float64(g.between(5, 100)))
	}
	if g.chance(0.7) {
		r.SignalStrength = types.Ptr(float64(g.between(-120, -30)))
	}
	if g.chance(0.7) {
		r.Description = types.Ptr(fmt.Sprintf("%s unit reporting every %ds", r.Type, r.DataInterval))
	}
	if g.chance(0.3) {
		r.Notes = types.Ptr("Installed by field crew " + g.alnum(3))
	}

	return r
}

func (g *Generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

// between returns an int in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) maybe(p float64, values []string) *string {
	if !g.chance(p) {
		return nil
	}
	return types.Ptr(pick(g.rng, values))
}

func (g *Generator) pastDate(maxDays int) string {
	return g.now.AddDate(0, 0, -g.rng.IntN(maxDays)).Format(time.DateOnly)
}

func (g *Generator) digits(n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(byte('0' + g.rng.IntN(10)))
	}
	return b.String()
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (g *Generator) alnum(n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(alphanumeric[g.rng.IntN(len(alphanumeric))])
	}
	return b.String()
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.IntN(len(values))]
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/query"
	"github.com/KevinKickass/PlantDeck/internal/schema"
	"github.com/KevinKickass/PlantDeck/internal/storage"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

type rtuStats struct {
	Total          int                     `json:"total"`
	Linked         int                     `json:"linked"`
	Unlinked       int                     `json:"unlinked"`
	ByStatus       map[types.RTUStatus]int `json:"byStatus"`
	ByProtocol     map[types.Protocol]int  `json:"byProtocol"`
	ByManufacturer map[string]int          `json:"byManufacturer"`
	AverageBattery *float64                `json:"averageBattery"`
	AverageSignal  *float64                `json:"averageSignal"`
}

var (
	rtuBattery = query.Optional(func(r types.RTU) *float64 { return r.BatteryLevel })
	rtuSignal  = query.Optional(func(r types.RTU) *float64 { return r.SignalStrength })
)

// GET /api/rtus
func (s *Server) listRTUs(c *gin.Context) {
	term := c.Query("search")
	status := c.Query("status")
	manufacturer := c.Query("manufacturer")
	protocol := c.Query("protocol")

	if err := enumFilter("status", status, func(v string) bool { return types.RTUStatus(v).Valid() }); err != nil {
		s.fail(c, err)
		return
	}
	if err := enumFilter("protocol", protocol, func(v string) bool { return types.Protocol(v).Valid() }); err != nil {
		s.fail(c, err)
		return
	}

	plantID := ""
	if _, ok := c.GetQuery("plant_id"); ok {
		id, err := intQuery(c, "plant_id", 0, 1)
		if err != nil {
			s.fail(c, err)
			return
		}
		if id > 0 {
			plantID = strconv.Itoa(id)
		}
	}

	floor, ceil := 0.0, 100.0
	battery, err := rangeQuery(c, "minBattery", "maxBattery", &floor, &ceil)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, limit, err := paging(c, s.cfg.Query.RTUPageSize, s.cfg.Query.MaxPageSize)
	if err != nil {
		s.fail(c, err)
		return
	}

	spec := query.Spec{
		Term: term,
		Equals: map[string]string{
			storage.FieldStatus:   status,
			storage.FieldProtocol: protocol,
			storage.FieldPlantID:  plantID,
		},
		Contains: map[string]string{storage.FieldManufacturer: manufacturer},
		Ranges:   map[string]query.Bounds{storage.FieldBattery: battery},
		Page:     page,
		PageSize: limit,
	}

	result, err := query.Run(s.deps.RTUs.List(), storage.RTUSchema, spec)
	if err != nil {
		s.fail(c, err)
		return
	}

	meta := metaOf(result)
	meta.Filters = map[string]any{}
	echo := map[string]string{
		"search":       term,
		"status":       status,
		"manufacturer": manufacturer,
		"protocol":     protocol,
		"plant_id":     plantID,
	}
	for k, v := range echo {
		if v != "" {
			meta.Filters[k] = v
		}
	}
	if battery.Min != nil {
		meta.Filters["minBattery"] = *battery.Min
	}
	if battery.Max != nil {
		meta.Filters["maxBattery"] = *battery.Max
	}

	respond(c, http.StatusOK, result.Items, meta)
}

// GET /api/rtus/stats
func (s *Server) rtuStats(c *gin.Context) {
	rtus := s.deps.RTUs.List()

	linked := 0
	for _, r := range rtus {
		if r.PlantID != nil {
			linked++
		}
	}

	respond(c, http.StatusOK, rtuStats{
		Total:          len(rtus),
		Linked:         linked,
		Unlinked:       len(rtus) - linked,
		ByStatus:       query.CountByKey(rtus, func(r types.RTU) types.RTUStatus { return r.Status }),
		ByProtocol:     query.CountByKey(rtus, func(r types.RTU) types.Protocol { return r.CommunicationProtocol }),
		ByManufacturer: query.CountByKey(rtus, func(r types.RTU) string { return r.Manufacturer }),
		AverageBattery: average(rtus, rtuBattery),
		AverageSignal:  average(rtus, rtuSignal),
	}, nil)
}

// average is nil when no record carries the value.
func average(rtus []types.RTU, value func(types.RTU) (float64, bool)) *float64 {
	n := 0
	for _, r := range rtus {
		if _, ok := value(r); ok {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := query.Sum(rtus, value) / float64(n)
	return &avg
}

// POST /api/rtus
func (s *Server) createRTU(c *gin.Context) {
	var in types.RTUPatch
	if err := s.bindBody(c, schema.RTUCreate, &in); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.linkPlant(&in); err != nil {
		s.fail(c, err)
		return
	}

	rtu, err := s.deps.RTUs.Create(in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, rtu, nil)
}

// GET /api/rtus/:id
func (s *Server) getRTU(c *gin.Context) {
	rtu, err := s.deps.RTUs.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, rtu, nil)
}

// PATCH /api/rtus/:id
func (s *Server) updateRTU(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.deps.RTUs.Get(id); err != nil {
		s.fail(c, err)
		return
	}

	var patch types.RTUPatch
	if err := s.bindBody(c, schema.RTUPatch, &patch); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.linkPlant(&patch); err != nil {
		s.fail(c, err)
		return
	}

	rtu, err := s.deps.RTUs.Update(id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, rtu, nil)
}

// DELETE /api/rtus/:id
func (s *Server) deleteRTU(c *gin.Context) {
	rtu, err := s.deps.RTUs.Delete(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, rtu, nil)
}

// linkPlant checks a plant reference in patch and fills plant_name from
// the plant unless the client sent one. Unlinking clears the name too.
func (s *Server) linkPlant(patch *types.RTUPatch) error {
	if !patch.PlantID.Set {
		return nil
	}
	if patch.PlantID.Value == nil {
		if !patch.PlantName.Set {
			patch.PlantName = types.Null[string]()
		}
		return nil
	}

	plant, err := s.deps.Plants.Get(*patch.PlantID.Value)
	if err != nil {
		return types.Invalid("plant_id", "plant %d does not exist", *patch.PlantID.Value)
	}
	if !patch.PlantName.Set || patch.PlantName.Value == nil {
		patch.PlantName = types.Some(plant.Infra.Name)
	}
	return nil
}

package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/auth"
	"github.com/KevinKickass/PlantDeck/internal/query"
	"github.com/KevinKickass/PlantDeck/internal/schema"
	"github.com/KevinKickass/PlantDeck/internal/storage"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

type typeStat struct {
	Type          types.PlantType `json:"type"`
	Label         string          `json:"label"`
	Count         int             `json:"count"`
	TotalCapacity float64         `json:"totalCapacity"`
}

type plantStats struct {
	ByType         []typeStat                `json:"byType"`
	Total          totalStat                 `json:"total"`
	ByContractType map[string]int            `json:"byContractType"`
	ByStatus       map[types.PlantStatus]int `json:"byStatus"`
}

type totalStat struct {
	Count    int     `json:"count"`
	Capacity float64 `json:"capacity"`
}

var plantCapacity = query.Present(func(p types.Plant) float64 { return p.Infra.Capacity })

// runAll answers with every match on one page unless the client asked
// for page or limit explicitly.
func runAll[T any](c *gin.Context, records []T, sch query.Schema[T], spec query.Spec, defaultLimit, maxLimit int) (query.Page[T], error) {
	_, hasPage := c.GetQuery("page")
	_, hasLimit := c.GetQuery("limit")
	if !hasPage && !hasLimit {
		spec.Page = 1
		spec.PageSize = max(len(records), 1)
		return query.Run(records, sch, spec)
	}

	page, limit, err := paging(c, defaultLimit, maxLimit)
	if err != nil {
		return query.Page[T]{}, err
	}
	spec.Page, spec.PageSize = page, limit
	return query.Run(records, sch, spec)
}

// GET /api/plants
func (s *Server) listPlants(c *gin.Context) {
	page, err := runAll(c, s.deps.Plants.List(), storage.PlantSchema, query.Spec{},
		s.cfg.Query.PlantPageSize, s.cfg.Query.MaxPageSize)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, page.Items, metaOf(page))
}

// GET /api/plants/search
func (s *Server) searchPlants(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		term = c.Query("search")
	}
	plantType := c.Query("type")
	status := c.Query("status")
	region := c.Query("region")
	contractType := c.Query("contractType")

	if err := enumFilter("type", plantType, func(v string) bool { return types.PlantType(v).Valid() }); err != nil {
		s.fail(c, err)
		return
	}
	if err := enumFilter("status", status, func(v string) bool { return types.PlantStatus(v).Valid() }); err != nil {
		s.fail(c, err)
		return
	}

	zero := 0.0
	capacity, err := rangeQuery(c, "minCapacity", "maxCapacity", &zero, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, limit, err := paging(c, s.cfg.Query.PlantPageSize, s.cfg.Query.MaxPageSize)
	if err != nil {
		s.fail(c, err)
		return
	}

	spec := query.Spec{
		Term: term,
		Equals: map[string]string{
			storage.FieldType:         plantType,
			storage.FieldStatus:       status,
			storage.FieldContractType: contractType,
		},
		Ranges:   map[string]query.Bounds{storage.FieldCapacity: capacity},
		Prefixes: map[string]string{storage.FieldRegion: region},
		Page:     page,
		PageSize: limit,
	}

	result, err := query.Run(s.deps.Plants.List(), storage.PlantSchema, spec)
	if err != nil {
		s.fail(c, err)
		return
	}

	meta := metaOf(result)
	meta.Filters = map[string]any{}
	echo := map[string]string{
		"search":       term,
		"type":         plantType,
		"status":       status,
		"region":       region,
		"contractType": contractType,
	}
	for k, v := range echo {
		if v != "" {
			meta.Filters[k] = v
		}
	}
	if capacity.Min != nil {
		meta.Filters["minCapacity"] = *capacity.Min
	}
	if capacity.Max != nil {
		meta.Filters["maxCapacity"] = *capacity.Max
	}

	respond(c, http.StatusOK, result.Items, meta)
}

// GET /api/plants/stats
func (s *Server) plantStats(c *gin.Context) {
	plants := s.deps.Plants.List()

	groups := query.AggregateByKey(plants, func(p types.Plant) types.PlantType { return p.Infra.Type }, plantCapacity)
	byType := make([]typeStat, 0, len(groups))
	for _, g := range groups {
		byType = append(byType, typeStat{
			Type:          g.Key,
			Label:         g.Key.Label(),
			Count:         g.Count,
			TotalCapacity: g.Total,
		})
	}

	respond(c, http.StatusOK, plantStats{
		ByType: byType,
		Total: totalStat{
			Count:    len(plants),
			Capacity: query.Sum(plants, plantCapacity),
		},
		ByContractType: query.CountByKey(plants, func(p types.Plant) string { return p.Contract.ContractType }),
		ByStatus:       query.CountByKey(plants, func(p types.Plant) types.PlantStatus { return p.Status }),
	}, nil)
}

// GET /api/plants/by-type/:type
func (s *Server) plantsByType(c *gin.Context) {
	plantType := strings.ToLower(c.Param("type"))
	if !types.PlantType(plantType).Valid() {
		s.fail(c, types.Invalid("type", "unknown plant type %q", plantType))
		return
	}

	spec := query.Spec{Equals: map[string]string{storage.FieldType: plantType}}
	page, err := runAll(c, s.deps.Plants.List(), storage.PlantSchema, spec,
		s.cfg.Query.PlantPageSize, s.cfg.Query.MaxPageSize)
	if err != nil {
		s.fail(c, err)
		return
	}

	meta := metaOf(page)
	meta.FilterType = plantType
	respond(c, http.StatusOK, page.Items, meta)
}

// POST /api/plants
func (s *Server) createPlant(c *gin.Context) {
	var in types.PlantPatch
	if err := s.bindBody(c, schema.PlantCreate, &in); err != nil {
		s.fail(c, err)
		return
	}

	plant, err := s.deps.Plants.Create(in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.deps.History.Created(c.Request.Context(), plant, auth.CurrentUser(c))

	respond(c, http.StatusCreated, plant, nil)
}

// GET /api/plants/:id
func (s *Server) getPlant(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}

	plant, err := s.deps.Plants.Get(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, plant, nil)
}

// PATCH /api/plants/:id
func (s *Server) updatePlant(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if !s.deps.Plants.Exists(id) {
		s.fail(c, types.NotFound("plant", id))
		return
	}

	var patch types.PlantPatch
	if err := s.bindBody(c, schema.PlantPatch, &patch); err != nil {
		s.fail(c, err)
		return
	}

	before, after, err := s.deps.Plants.Update(id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.deps.History.Updated(c.Request.Context(), before, after, auth.CurrentUser(c))

	respond(c, http.StatusOK, after, nil)
}

// DELETE /api/plants/:id
func (s *Server) deletePlant(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}

	removed, err := s.deps.Plants.Delete(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	unlinked := s.deps.RTUs.UnlinkPlant(id)
	s.deps.History.Deleted(c.Request.Context(), removed, auth.CurrentUser(c))

	respond(c, http.StatusOK, removed, gin.H{"unlinkedRtus": unlinked})
}

// GET /api/plants/:id/rtus
func (s *Server) plantRTUs(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if !s.deps.Plants.Exists(id) {
		s.fail(c, types.NotFound("plant", id))
		return
	}

	rtus := s.deps.RTUs.ByPlant(id)
	respond(c, http.StatusOK, rtus, gin.H{"total": len(rtus), "plantId": id})
}

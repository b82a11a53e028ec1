package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/query"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

// listMeta is the meta block of every paginated response.
type listMeta struct {
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
	Filters    map[string]any `json:"filters,omitempty"`
	FilterType string         `json:"filterType,omitempty"`
}

func metaOf[T any](page query.Page[T]) listMeta {
	return listMeta{
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.PageSize,
		TotalPages: page.TotalPages,
	}
}

// intQuery parses an optional integer parameter. Present but
// non-numeric, or below min, is a validation error.
func intQuery(c *gin.Context, name string, def, min int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, types.Invalid(name, "must be an integer, got %q", raw)
	}
	if v < min {
		return 0, types.Invalid(name, "must be at least %d, got %d", min, v)
	}
	return v, nil
}

// floatQuery parses an optional finite number; nil when absent.
func floatQuery(c *gin.Context, name string) (*float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, types.Invalid(name, "must be a number, got %q", raw)
	}
	return &v, nil
}

// paging reads page and limit. limit is capped by maxLimit.
func paging(c *gin.Context, defaultLimit, maxLimit int) (page, limit int, err error) {
	page, err = intQuery(c, "page", 1, 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err = intQuery(c, "limit", defaultLimit, 1)
	if err != nil {
		return 0, 0, err
	}
	if maxLimit > 0 && limit > maxLimit {
		return 0, 0, types.Invalid("limit", "must not exceed %d, got %d", maxLimit, limit)
	}
	return page, limit, nil
}

// rangeQuery reads a min/max pair into Bounds, checking lo..hi and the
// optional domain [floor, ceil].
func rangeQuery(c *gin.Context, minName, maxName string, floor, ceil *float64) (query.Bounds, error) {
	lo, err := floatQuery(c, minName)
	if err != nil {
		return query.Bounds{}, err
	}
	hi, err := floatQuery(c, maxName)
	if err != nil {
		return query.Bounds{}, err
	}
	bounds := []struct {
		name string
		v    *float64
	}{{minName, lo}, {maxName, hi}}
	for _, b := range bounds {
		if b.v == nil {
			continue
		}
		if floor != nil && *b.v < *floor {
			return query.Bounds{}, types.Invalid(b.name, "must be at least %g", *floor)
		}
		if ceil != nil && *b.v > *ceil {
			return query.Bounds{}, types.Invalid(b.name, "must be at most %g", *ceil)
		}
	}
	if lo != nil && hi != nil && *lo > *hi {
		return query.Bounds{}, types.Invalid(minName, "must not exceed %s", maxName)
	}
	return query.Bounds{Min: lo, Max: hi}, nil
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int, error) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, types.Invalid(name, "must be a positive integer, got %q", raw)
	}
	return id, nil
}

func readBody(c *gin.Context) ([]byte, error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, types.Invalid("body", "failed to read request body")
	}
	return data, nil
}

// bindBody validates the request body against the named schema and
// decodes it into dst. Fields the target type does not know are
// rejected rather than dropped.
func (s *Server) bindBody(c *gin.Context, schemaName string, dst any) error {
	data, err := readBody(c)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return types.Invalid("body", "request body is empty")
	}
	if err := s.deps.Validator.Validate(schemaName, data); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return types.Invalid("body", "%v", err)
	}
	return nil
}

func enumFilter(name, value string, valid func(string) bool) error {
	if value == "" || strings.EqualFold(value, query.AllValues) || valid(value) {
		return nil
	}
	return types.Invalid(name, "unknown value %q", value)
}

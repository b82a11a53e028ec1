// Package query filters, paginates and summarises in-memory record
// collections. Everything here is pure: inputs are never mutated and the
// same collection and Spec always produce the same Page.
package query

import (
	"fmt"
	"sort"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

// Spec is the normalized search/filter/pagination request.
type Spec struct {
	Term     string
	Equals   map[string]string
	Ranges   map[string]Bounds
	Prefixes map[string]string
	Contains map[string]string
	Page     int
	PageSize int
}

// Schema binds Spec field names to accessors on T.
type Schema[T any] struct {
	Text    []func(T) string
	Strings map[string]func(T) string
	Numbers map[string]func(T) (float64, bool)
}

// Page is one slice of a filtered collection.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func (s Spec) validatePaging() error {
	if s.PageSize <= 0 {
		return types.Invalid("page_size", "must be a positive integer, got %d", s.PageSize)
	}
	if s.Page < 1 {
		return types.Invalid("page", "must be at least 1, got %d", s.Page)
	}
	return nil
}

// Build turns spec into an active predicate set. Field names that schema
// does not know are rejected rather than ignored.
func Build[T any](schema Schema[T], spec Spec) (*Set[T], error) {
	set := &Set[T]{}
	set.Add(Text(spec.Term, schema.Text...))

	for _, name := range sortedKeys(spec.Equals) {
		field, ok := schema.Strings[name]
		if !ok {
			return nil, types.Invalid(name, "unknown filter field")
		}
		set.Add(Equal(name, spec.Equals[name], field))
	}

	for _, name := range sortedKeys(spec.Ranges) {
		field, ok := schema.Numbers[name]
		if !ok {
			return nil, types.Invalid(name, "unknown range field")
		}
		set.Add(Range(name, spec.Ranges[name], field))
	}

	for _, name := range sortedKeys(spec.Prefixes) {
		field, ok := schema.Strings[name]
		if !ok {
			return nil, types.Invalid(name, "unknown prefix field")
		}
		set.Add(Prefix(name, spec.Prefixes[name], field))
	}

	for _, name := range sortedKeys(spec.Contains) {
		field, ok := schema.Strings[name]
		if !ok {
			return nil, types.Invalid(name, "unknown search field")
		}
		set.Add(Contains(name, spec.Contains[name], field))
	}

	return set, nil
}

// Filter keeps records matching set, preserving input order.
func Filter[T any](records []T, set *Set[T]) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if set.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Paginate slices [(page-1)*size, page*size) out of matches. Pages past
// the end yield no items but keep Total and TotalPages.
func Paginate[T any](matches []T, page, size int) (Page[T], error) {
	if err := (Spec{Page: page, PageSize: size}).validatePaging(); err != nil {
		return Page[T]{}, err
	}

	total := len(matches)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	result := Page[T]{
		Items:      []T{},
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}

	if page-1 > total/size {
		return result, nil
	}
	start := (page - 1) * size
	if start >= total {
		return result, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	result.Items = append(result.Items, matches[start:end]...)
	return result, nil
}

// Run filters records with spec and returns the requested page.
func Run[T any](records []T, schema Schema[T], spec Spec) (Page[T], error) {
	if err := spec.validatePaging(); err != nil {
		return Page[T]{}, err
	}

	set, err := Build(schema, spec)
	if err != nil {
		return Page[T]{}, fmt.Errorf("build predicates: %w", err)
	}

	return Paginate(Filter(records, set), spec.Page, spec.PageSize)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

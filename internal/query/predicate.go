package query

import (
	"math"
	"sort"
	"strings"
)

// Cost orders predicate evaluation: cheap checks run first so the
// substring scan only sees records that survived them.
type Cost int

const (
	CostEquality Cost = iota
	CostRange
	CostPrefix
	CostText
)

// Predicate is a pure record test. A Predicate with a nil match is a
// no-op and never added to a Set.
type Predicate[T any] struct {
	Name  string
	Cost  Cost
	match func(T) bool
}

func (p Predicate[T]) Active() bool {
	return p.match != nil
}

func (p Predicate[T]) Match(rec T) bool {
	return p.match == nil || p.match(rec)
}

// Text matches when any of fields contains term, case-insensitively.
func Text[T any](term string, fields ...func(T) string) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" || len(fields) == 0 {
		return Predicate[T]{Name: "text"}
	}
	return Predicate[T]{
		Name: "text",
		Cost: CostText,
		match: func(rec T) bool {
			for _, field := range fields {
				if strings.Contains(strings.ToLower(field(rec)), needle) {
					return true
				}
			}
			return false
		},
	}
}

// Contains is Text restricted to a single named field.
func Contains[T any](name, term string, field func(T) string) Predicate[T] {
	p := Text(term, field)
	p.Name = name
	return p
}

// AllValues is the sentinel a client sends for "no filter" on a closed set.
const AllValues = "all"

// Equal matches an exact field value. Empty or "all" disables it.
func Equal[T any](name, value string, field func(T) string) Predicate[T] {
	if value == "" || strings.EqualFold(value, AllValues) {
		return Predicate[T]{Name: name}
	}
	return Predicate[T]{
		Name: name,
		Cost: CostEquality,
		match: func(rec T) bool {
			return field(rec) == value
		},
	}
}

// Bounds is an inclusive numeric interval; a nil side is unbounded.
type Bounds struct {
	Min *float64
	Max *float64
}

func (b Bounds) IsZero() bool {
	return b.Min == nil && b.Max == nil
}

func (b Bounds) lo() float64 {
	if b.Min == nil {
		return math.Inf(-1)
	}
	return *b.Min
}

func (b Bounds) hi() float64 {
	if b.Max == nil {
		return math.Inf(1)
	}
	return *b.Max
}

// Range matches field values inside b. Records whose field is missing
// (ok == false) never match an active range.
func Range[T any](name string, b Bounds, field func(T) (float64, bool)) Predicate[T] {
	if b.IsZero() {
		return Predicate[T]{Name: name}
	}
	lo, hi := b.lo(), b.hi()
	return Predicate[T]{
		Name: name,
		Cost: CostRange,
		match: func(rec T) bool {
			v, ok := field(rec)
			if !ok || math.IsNaN(v) {
				return false
			}
			return v >= lo && v <= hi
		},
	}
}

// Prefix matches hierarchical text such as "province city district".
func Prefix[T any](name, prefix string, field func(T) string) Predicate[T] {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Predicate[T]{Name: name}
	}
	return Predicate[T]{
		Name: name,
		Cost: CostPrefix,
		match: func(rec T) bool {
			return strings.HasPrefix(strings.TrimSpace(field(rec)), prefix)
		},
	}
}

// Set is the logical AND of its active predicates.
type Set[T any] struct {
	preds []Predicate[T]
}

func (s *Set[T]) Add(p Predicate[T]) {
	if !p.Active() {
		return
	}
	s.preds = append(s.preds, p)
	sort.SliceStable(s.preds, func(i, j int) bool {
		return s.preds[i].Cost < s.preds[j].Cost
	})
}

func (s *Set[T]) Len() int {
	return len(s.preds)
}

// Names lists active predicates in evaluation order.
func (s *Set[T]) Names() []string {
	names := make([]string, len(s.preds))
	for i, p := range s.preds {
		names[i] = p.Name
	}
	return names
}

func (s *Set[T]) Match(rec T) bool {
	for _, p := range s.preds {
		if !p.match(rec) {
			return false
		}
	}
	return true
}

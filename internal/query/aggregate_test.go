package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateByKeyFirstSeenOrder(t *testing.T) {
	data := []row{
		{kind: "wind", power: 10},
		{kind: "solar", power: 5},
		{kind: "wind", power: 2.5},
		{kind: "hydro", power: math.NaN()},
	}

	groups := AggregateByKey(data,
		func(r row) string { return r.kind },
		Present(func(r row) float64 { return r.power }))

	assert.Equal(t, []Group[string]{
		{Key: "wind", Count: 2, Total: 12.5},
		{Key: "solar", Count: 1, Total: 5},
		{Key: "hydro", Count: 1, Total: 0},
	}, groups)
}

func TestAggregateTotalsMatchCollection(t *testing.T) {
	data := rows(40, "solar")
	for i := range data {
		if i%3 == 0 {
			data[i].kind = "wind"
		}
		if i%4 == 0 {
			data[i].battery = battery(float64(i))
		}
	}
	value := Optional(func(r row) *float64 { return r.battery })

	groups := AggregateByKey(data, func(r row) string { return r.kind }, value)

	count, total := 0, 0.0
	for _, g := range groups {
		count += g.Count
		total += g.Total
	}
	assert.Equal(t, len(data), count)
	assert.InDelta(t, Sum(data, value), total, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	groups := AggregateByKey([]row{}, func(r row) string { return r.kind }, Present(func(r row) float64 { return r.power }))
	assert.NotNil(t, groups)
	assert.Empty(t, groups)

	assert.Empty(t, CountByKey([]row(nil), func(r row) string { return r.kind }))
}

func TestCountByKey(t *testing.T) {
	data := []row{{kind: "a"}, {kind: "b"}, {kind: "a"}}
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, CountByKey(data, func(r row) string { return r.kind }))
}

package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPlantsAreValid(t *testing.T) {
	plants := New(42, epoch).Plants(30)
	require.Len(t, plants, 30)

	for i, p := range plants {
		assert.Equal(t, i+1, p.ID)
		assert.True(t, p.Status.Valid(), "plant %d status %q", p.ID, p.Status)
		assert.True(t, p.Infra.Type.Valid())
		assert.Positive(t, p.Infra.Capacity)
		assert.GreaterOrEqual(t, p.Infra.Latitude, 33.0)
		assert.LessOrEqual(t, p.Infra.Latitude, 38.0)
		assert.NotEmpty(t, p.Infra.Name)
		assert.Equal(t, 200+p.ID, p.Monitoring.ID)
		require.Len(t, p.Control, 1)
		assert.Equal(t, p.Monitoring.RTUID, p.Control[0].RTUID)
		assert.GreaterOrEqual(t, p.Contract.Weight, 1.0)
		assert.LessOrEqual(t, p.Contract.Weight, 1.2)
	}
}

func TestRTUsAreValidAndLinked(t *testing.T) {
	g := New(7, epoch)
	plants := g.Plants(10)
	rtus := g.RTUs(100, plants)
	require.Len(t, rtus, 100)

	assert.Equal(t, "0001", rtus[0].ID)
	assert.Equal(t, "0100", rtus[99].ID)

	names := make(map[int]string, len(plants))
	for _, p := range plants {
		names[p.ID] = p.Infra.Name
	}

	linked := 0
	for _, r := range rtus {
		require.NoError(t, r.Validate(), "rtu %s", r.ID)
		if r.PlantID != nil {
			linked++
			require.NotNil(t, r.PlantName)
			assert.Equal(t, names[*r.PlantID], *r.PlantName)
		}
	}
	assert.Greater(t, linked, 40)
	assert.Less(t, linked, 100)
}

func TestSameSeedSameData(t *testing.T) {
	a := New(99, epoch).Plants(5)
	b := New(99, epoch).Plants(5)
	assert.Equal(t, a, b)

	c := New(100, epoch).Plants(5)
	assert.NotEqual(t, a, c)
}

func TestRTUsWithoutPlants(t *testing.T) {
	rtus := New(1, epoch).RTUs(10, nil)
	for _, r := range rtus {
		assert.Nil(t, r.PlantID)
	}
}

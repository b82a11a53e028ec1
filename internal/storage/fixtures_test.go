package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/PlantDeck/internal/query"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

const fixtureYAML = `
plants:
  - id: 4
    status: normal
    infra:
      name: Jeju Wind Park
      type: wind
      address: Jeju Hallim
      capacity: 3000
    contract:
      contract_type: general
      weight: 1.0
  - id: 7
    status: faulted
    infra:
      name: Andong Hydro
      type: hydro
      address: Gyeongbuk Andong
      capacity: 800
rtus:
  - id: "0001"
    name: Hallim RTU
    model: RTU-5000
    manufacturer: ABB
    communication_protocol: LoRaWAN
    status: active
    data_interval: 30
    plant_id: 4
    battery_level: 55
    signal_strength: -70
`

func TestParseFixtures(t *testing.T) {
	fx, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)

	require.Len(t, fx.Plants, 2)
	assert.Equal(t, types.PlantTypeWind, fx.Plants[0].Infra.Type)
	assert.Equal(t, 3000.0, fx.Plants[0].Infra.Capacity)
	assert.NotNil(t, fx.Plants[1].Control)

	require.Len(t, fx.RTUs, 1)
	assert.Equal(t, "0001", fx.RTUs[0].ID)
	require.NotNil(t, fx.RTUs[0].PlantID)
	assert.Equal(t, 4, *fx.RTUs[0].PlantID)
}

func TestParseFixturesRejectsUnknownEnum(t *testing.T) {
	_, err := ParseFixtures([]byte("plants:\n  - id: 1\n    status: exploded\n    infra: {type: solar}\n"))
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestPlantSchemaSearch(t *testing.T) {
	fx, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)

	lo := 1000.0
	page, err := query.Run(fx.Plants, PlantSchema, query.Spec{
		Term:     "jeju",
		Equals:   map[string]string{FieldType: "wind", FieldStatus: "all"},
		Prefixes: map[string]string{FieldRegion: "Jeju"},
		Ranges:   map[string]query.Bounds{FieldCapacity: {Min: &lo}},
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 4, page.Items[0].ID)
}

func TestRTUSchemaFilters(t *testing.T) {
	fx, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)

	lo := 50.0
	page, err := query.Run(fx.RTUs, RTUSchema, query.Spec{
		Contains: map[string]string{FieldManufacturer: "ab"},
		Equals:   map[string]string{FieldPlantID: "4"},
		Ranges:   map[string]query.Bounds{FieldBattery: {Min: &lo}},
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	page, err = query.Run(fx.RTUs, RTUSchema, query.Spec{
		Equals:   map[string]string{FieldPlantID: "5"},
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

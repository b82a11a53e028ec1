package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

func newPlantInput(name string) types.PlantPatch {
	kind := types.PlantTypeSolar
	return types.PlantPatch{Infra: &types.InfraPatch{Name: &name, Type: &kind}}
}

func TestPlantCreateDefaults(t *testing.T) {
	store, err := NewPlantStore(nil)
	require.NoError(t, err)

	p, err := store.Create(newPlantInput("Haenam Solar"))
	require.NoError(t, err)

	assert.Equal(t, 1, p.ID)
	assert.Equal(t, types.PlantStatusNormal, p.Status)
	assert.Equal(t, types.DefaultLatitude, p.Infra.Latitude)
	assert.Equal(t, types.DefaultLongitude, p.Infra.Longitude)
	assert.Equal(t, types.DefaultCapacity, p.Infra.Capacity)
	assert.Equal(t, 10001, p.Infra.CarrierFK)
	assert.Equal(t, 201, p.Monitoring.ID)
	require.Len(t, p.Control, 1)
	assert.Equal(t, 51, p.Control[0].ID)
	require.Len(t, p.Infra.Inverter, 1)
	assert.Equal(t, types.DefaultAzimuth, p.Infra.Inverter[0].Azimuth)
	assert.Equal(t, 1.0, p.Contract.Weight)
	assert.Equal(t, types.DefaultContractType, p.Contract.ContractType)
	assert.False(t, p.ModifiedAt.IsZero())
}

func TestPlantCreateRequiresNameAndType(t *testing.T) {
	store, err := NewPlantStore(nil)
	require.NoError(t, err)

	_, err = store.Create(types.PlantPatch{})
	assert.ErrorIs(t, err, types.ErrValidation)

	name := "No Type"
	_, err = store.Create(types.PlantPatch{Infra: &types.InfraPatch{Name: &name}})
	assert.ErrorIs(t, err, types.ErrValidation)

	assert.Equal(t, 0, store.Len())
}

func TestPlantIDsNeverReused(t *testing.T) {
	store, err := NewPlantStore(nil)
	require.NoError(t, err)

	var ids []int
	for _, name := range []string{"a", "b", "c"} {
		p, err := store.Create(newPlantInput(name))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)

	_, err = store.Delete(2)
	require.NoError(t, err)
	p, err := store.Create(newPlantInput("d"))
	require.NoError(t, err)
	assert.Equal(t, 4, p.ID)

	_, err = store.Delete(4)
	require.NoError(t, err)
	p, err = store.Create(newPlantInput("e"))
	require.NoError(t, err)
	assert.Equal(t, 5, p.ID)
}

func TestPlantUpdateMergesSections(t *testing.T) {
	store, err := NewPlantStore(nil)
	require.NoError(t, err)
	created, err := store.Create(newPlantInput("Original"))
	require.NoError(t, err)

	var patch types.PlantPatch
	require.NoError(t, json.Unmarshal([]byte(`{"infra":{"capacity":2000}}`), &patch))

	before, after, err := store.Update(created.ID, patch)
	require.NoError(t, err)

	assert.Equal(t, types.DefaultCapacity, before.Infra.Capacity)
	assert.Equal(t, 2000.0, after.Infra.Capacity)
	assert.Equal(t, "Original", after.Infra.Name)
	assert.Equal(t, 1.0, after.Contract.Weight)
	assert.Equal(t, created.Monitoring, after.Monitoring)
	assert.Equal(t, created.Contract.ModifiedAt, after.Contract.ModifiedAt)
}

func TestPlantUpdateReplacesArrays(t *testing.T) {
	store, err := NewPlantStore(nil)
	require.NoError(t, err)
	created, err := store.Create(newPlantInput("Arrays"))
	require.NoError(t, err)
	require.Len(t, created.Infra.Inverter, 1)

	var patch types.PlantPatch
	body := `{"infra":{"inverter":[{"id":7,"capacity":10},{"id":8,"capacity":20}]},"contract":{"fixed_contract_price":null}}`
	require.NoError(t, json.Unmarshal([]byte(body), &patch))

	_, after, err := store.Update(created.ID, patch)
	require.NoError(t, err)

	require.Len(t, after.Infra.Inverter, 2)
	assert.Equal(t, 7, after.Infra.Inverter[0].ID)
	assert.Nil(t, after.Contract.FixedContractPrice)
	assert.True(t, after.Contract.ModifiedAt.After(created.Contract.ModifiedAt) || after.Contract.ModifiedAt.Equal(created.Contract.ModifiedAt))
}

func TestPlantUpdateRejectsInFull(t *testing.T) {
	store, err := NewPlantStore(nil)
	require.NoError(t, err)
	created, err := store.Create(newPlantInput("Keep"))
	require.NoError(t, err)

	_, _, err = store.Update(999, newPlantInput("x"))
	assert.ErrorIs(t, err, types.ErrNotFound)

	bad := types.PlantStatus("melting")
	name := "Changed"
	_, _, err = store.Update(created.ID, types.PlantPatch{
		Status: &bad,
		Infra:  &types.InfraPatch{Name: &name},
	})
	assert.ErrorIs(t, err, types.ErrValidation)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Infra.Name)
}

func TestPlantStoreReturnsCopies(t *testing.T) {
	store, err := NewPlantStore(nil)
	require.NoError(t, err)
	created, err := store.Create(newPlantInput("Copy"))
	require.NoError(t, err)

	list := store.List()
	list[0].Infra.Name = "mutated"
	list[0].Infra.Inverter[0].Capacity = -1

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Copy", got.Infra.Name)
	assert.Equal(t, types.DefaultCapacity, got.Infra.Inverter[0].Capacity)
}

func TestNewPlantStoreRejectsDuplicates(t *testing.T) {
	_, err := NewPlantStore([]types.Plant{{ID: 1}, {ID: 1}})
	assert.Error(t, err)

	store, err := NewPlantStore([]types.Plant{{ID: 3}, {ID: 9}})
	require.NoError(t, err)
	p, err := store.Create(newPlantInput("after seed"))
	require.NoError(t, err)
	assert.Equal(t, 10, p.ID)
}

func TestPlantDeleteUnknown(t *testing.T) {
	store, err := NewPlantStore(nil)
	require.NoError(t, err)

	_, err = store.Delete(1)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

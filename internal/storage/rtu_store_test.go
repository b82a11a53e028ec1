package storage

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

func rtuInput(name string) types.RTUPatch {
	model, maker := "RTU-5000", "Schneider Electric"
	return types.RTUPatch{Name: &name, Model: &model, Manufacturer: &maker}
}

func TestRTUCreateDefaults(t *testing.T) {
	store, err := NewRTUStore(nil)
	require.NoError(t, err)

	r, err := store.Create(rtuInput("Feeder 1"))
	require.NoError(t, err)

	assert.Len(t, r.ID, rtuIDLength)
	assert.Equal(t, types.ProtocolModbus, r.CommunicationProtocol)
	assert.Equal(t, types.RTUStatusActive, r.Status)
	assert.Equal(t, types.DefaultDataInterval, r.DataInterval)
	assert.Equal(t, types.DefaultFirmware, r.FirmwareVersion)
	assert.NotNil(t, r.LastConnection)
	assert.Nil(t, r.PlantID)
}

func TestRTUCreateRequiresFields(t *testing.T) {
	store, err := NewRTUStore(nil)
	require.NoError(t, err)

	name := "only a name"
	_, err = store.Create(types.RTUPatch{Name: &name})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Empty(t, store.List())
}

func TestRTUCreateSkipsIssuedIDs(t *testing.T) {
	store, err := NewRTUStore(nil)
	require.NoError(t, err)

	calls := 0
	store.newID = func() string {
		calls++
		if calls <= 3 {
			return "deadbeef"
		}
		return fmt.Sprintf("id%06d", calls)
	}

	first, err := store.Create(rtuInput("a"))
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", first.ID)

	_, err = store.Delete("deadbeef")
	require.NoError(t, err)

	second, err := store.Create(rtuInput("b"))
	require.NoError(t, err)
	assert.NotEqual(t, "deadbeef", second.ID)
}

func TestRTUPatchNullableFields(t *testing.T) {
	store, err := NewRTUStore(nil)
	require.NoError(t, err)

	in := rtuInput("Nullable")
	in.BatteryLevel = types.Some(80.0)
	in.Notes = types.Some("keep me")
	created, err := store.Create(in)
	require.NoError(t, err)

	var patch types.RTUPatch
	require.NoError(t, json.Unmarshal([]byte(`{"battery_level":null,"location":"Roof"}`), &patch))

	updated, err := store.Update(created.ID, patch)
	require.NoError(t, err)

	assert.Nil(t, updated.BatteryLevel)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "keep me", *updated.Notes)
	assert.Equal(t, "Roof", updated.Location)
	assert.Equal(t, created.Name, updated.Name)
}

func TestRTUUpdateInvalidLeavesRecord(t *testing.T) {
	store, err := NewRTUStore(nil)
	require.NoError(t, err)
	created, err := store.Create(rtuInput("Valid"))
	require.NoError(t, err)

	_, err = store.Update(created.ID, types.RTUPatch{Port: types.Some(70000)})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = store.Update("nope", rtuInput("x"))
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Port)
}

func TestRTUByPlantAndUnlink(t *testing.T) {
	linked := func(id string, plant int) types.RTU {
		return types.RTU{
			ID: id, Name: id, Model: "m", Manufacturer: "x",
			Status: types.RTUStatusActive, CommunicationProtocol: types.ProtocolDNP3,
			DataInterval: 60, PlantID: types.Ptr(plant), PlantName: types.Ptr("P"),
		}
	}
	store, err := NewRTUStore([]types.RTU{linked("0001", 1), linked("0002", 2), linked("0003", 1)})
	require.NoError(t, err)

	assert.Len(t, store.ByPlant(1), 2)
	assert.Equal(t, 2, store.UnlinkPlant(1))
	assert.Empty(t, store.ByPlant(1))

	got, err := store.Get("0001")
	require.NoError(t, err)
	assert.Nil(t, got.PlantID)
	assert.Nil(t, got.PlantName)
}

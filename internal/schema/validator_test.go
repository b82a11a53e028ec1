package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

func TestValidatePlantCreate(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(PlantCreate, []byte(`{"infra":{"name":"Haenam","type":"solar","capacity":1500}}`)))

	err = v.Validate(PlantCreate, []byte(`{"infra":{"name":"Haenam"}}`))
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Contains(t, err.Error(), "infra")

	err = v.Validate(PlantCreate, []byte(`{"infra":{"name":"Haenam","type":"nuclear"}}`))
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Contains(t, err.Error(), "infra.type")

	err = v.Validate(PlantCreate, []byte(`{"infra":{"name":"x","type":"wind","capacity":0}}`))
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestValidateRTUCreate(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(RTUCreate, []byte(`{"name":"a","model":"b","manufacturer":"c","port":null}`)))

	err = v.Validate(RTUCreate, []byte(`{"name":"a","model":"b"}`))
	assert.ErrorIs(t, err, types.ErrValidation)

	err = v.Validate(RTUCreate, []byte(`{"name":"a","model":"b","manufacturer":"c","signal_strength":10}`))
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Contains(t, err.Error(), "signal_strength")
}

func TestValidatePatchesRejectUnknownFields(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(PlantPatch, []byte(`{"infra":{"capacity":2000}}`)))
	assert.NoError(t, v.Validate(RTUPatch, []byte(`{"plant_id":null,"notes":"moved"}`)))

	cases := []struct {
		schema string
		body   string
		field  string
	}{
		{PlantPatch, `{"infra":{"capacty":2000}}`, "infra"},
		{PlantPatch, `{"contrat":{"weight":2.5}}`, "body"},
		{PlantPatch, `{"monitoring":{"rtu":"0001"}}`, "monitoring"},
		{PlantPatch, `{}`, "body"},
		{RTUPatch, `{"battery":10}`, "body"},
		{RTUPatch, `{}`, "body"},
		{PlantCreate, `{"infra":{"name":"x","type":"solar","capcity":1}}`, "infra"},
		{RTUCreate, `{"name":"a","model":"b","manufacturer":"c","batery_level":5}`, "body"},
	}
	for _, tc := range cases {
		err := v.Validate(tc.schema, []byte(tc.body))
		require.ErrorIs(t, err, types.ErrValidation, tc.body)
		var ve *types.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, tc.field, ve.Field, tc.body)
	}
}

func TestValidateMalformedJSON(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate(MailSend, []byte(`{"subject":`))
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Contains(t, err.Error(), "body")
}

func TestValidateUnknownSchema(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate("nope", []byte(`{}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrValidation)
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "body", fieldName(""))
	assert.Equal(t, "infra.name", fieldName("/infra/name"))
	assert.Equal(t, "recipients.0.email", fieldName("/recipients/0/email"))
}

// Package schema validates raw request bodies against embedded JSON schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names.
const (
	PlantCreate  = "plant-create"
	PlantPatch   = "plant-patch"
	RTUCreate    = "rtu-create"
	RTUPatch     = "rtu-patch"
	MailSend     = "mail-send"
	Contact      = "contact"
	HistoryEntry = "history-entry"
)

type Validator struct {
	schemas map[string]*jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	names := []string{PlantCreate, PlantPatch, RTUCreate, RTUPatch, MailSend, Contact, HistoryEntry}

	for _, name := range names {
		data, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name+".json", bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema resource %s: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		compiled, err := compiler.Compile(name + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}

	return v, nil
}

// Validate checks data against the named schema. Malformed JSON and schema
// violations both come back as *types.ValidationError.
func (v *Validator) Validate(name string, data []byte) error {
	compiled, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.Invalid("body", "invalid JSON: %v", err)
	}

	if err := compiled.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := deepest(ve)
			return types.Invalid(fieldName(leaf.InstanceLocation), "%s", leaf.Message)
		}
		return types.Invalid("body", "%v", err)
	}

	return nil
}

func deepest(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

// fieldName turns a JSON pointer like /infra/name into infra.name.
func fieldName(pointer string) string {
	field := strings.ReplaceAll(strings.TrimPrefix(pointer, "/"), "/", ".")
	if field == "" {
		return "body"
	}
	return field
}

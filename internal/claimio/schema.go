package claimio

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/ppiankov/dyadt/internal/model"
)

// specPrototypes holds one zero value per evidence kind for schema reflection
var specPrototypes = map[model.EvidenceKind]any{
	model.KindFileExists:      model.FileExists{},
	model.KindFileHash:        model.FileHash{},
	model.KindFileContains:    model.FileContains{},
	model.KindDirExists:       model.DirExists{},
	model.KindCommandSucceeds: model.CommandSucceeds{},
	model.KindCustom:          model.Custom{},
}

// Schema returns the JSON Schema (draft 2020-12) of a claim document.
// Each evidence item is a oneOf over the evidence kinds, keyed by "type".
func Schema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	root := reflector.Reflect(&Document{})
	root.Title = "dyadt claim"
	root.Description = "A claim that an action was performed, with the evidence that should exist if it was"

	variants := make([]*jsonschema.Schema, 0, len(specPrototypes))
	for _, kind := range model.Kinds() {
		spec := reflector.Reflect(specPrototypes[kind])
		spec.Version = ""
		spec.ID = ""

		props := jsonschema.NewProperties()
		props.Set("type", &jsonschema.Schema{Const: string(kind)})
		props.Set("spec", spec)

		variants = append(variants, &jsonschema.Schema{
			Type:                 "object",
			Title:                string(kind),
			Properties:           props,
			Required:             []string{"type", "spec"},
			AdditionalProperties: jsonschema.FalseSchema,
		})
	}

	evidence, ok := root.Properties.Get("evidence")
	if !ok {
		return nil, fmt.Errorf("claim schema has no evidence property")
	}
	evidence.Items = &jsonschema.Schema{OneOf: variants}

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal claim schema: %w", err)
	}
	return data, nil
}

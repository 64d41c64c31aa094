package lab

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// definitionSchema is the JSON schema a lab definition must satisfy.
var definitionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"lab_id":   map[string]any{"type": "string", "minLength": 1},
		"title":    map[string]any{"type": "string"},
		"lab_type": map[string]any{"type": "string", "enum": []any{"linux_cli", "code", "query"}},
		"steps": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":         map[string]any{"type": "string", "minLength": 1},
					"title":      map[string]any{"type": "string"},
					"weight":     map[string]any{"type": "number", "exclusiveMinimum": 0},
					"task_index": map[string]any{"type": "integer", "minimum": 0},
				},
				"required":             []any{"id"},
				"additionalProperties": false,
			},
		},
		"rules": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command_patterns": map[string]any{"type": "array", "items": patternRuleSchema},
				"query_patterns":   map[string]any{"type": "array", "items": patternRuleSchema},
				"checks":           map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
				"tests":            map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
			},
			"additionalProperties": false,
		},
		"qmatrix": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"lab_id":   map[string]any{"type": "string"},
					"step_id":  map[string]any{"type": "string", "minLength": 1},
					"skill_id": map[string]any{"type": "string", "minLength": 1},
					"level":    map[string]any{"type": "string", "enum": []any{"knows", "understands", "applies"}},
					"weight":   map[string]any{"type": "number", "exclusiveMinimum": 0},
				},
				"required":             []any{"step_id", "skill_id", "level"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"lab_id", "lab_type", "steps"},
	"additionalProperties": false,
}

var patternRuleSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"step_id": map[string]any{"type": "string", "minLength": 1},
		"pattern": map[string]any{"type": "string", "minLength": 1},
	},
	"required":             []any{"step_id", "pattern"},
	"additionalProperties": false,
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateDefinition checks raw YAML against the definition schema. The
// YAML is round-tripped through JSON so the validator sees clean values.
func validateDefinition(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse lab definition: %w", err)
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize lab definition: %w", err)
	}
	var parsed any
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		return fmt.Errorf("normalize lab definition: %w", err)
	}

	schema, err := getCompiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("lab definition schema: %w", err)
	}
	return nil
}

func getCompiledSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		defBytes, err := json.Marshal(definitionSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const url = "schema://lab-definition.json"
		if err := c.AddResource(url, defParsed); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(url)
	})
	return compiledSchema, compileErr
}

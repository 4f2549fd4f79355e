package common

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// BuildConfigFileSchema returns the JSON-Schema that a YAML config file must satisfy.
func BuildConfigFileSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"database": object(map[string]any{
				"driver":             map[string]any{"type": "string", "enum": []string{DriverSQLite, DriverPostgres}},
				"dsn":                map[string]any{"type": "string", "minLength": 1},
				"max_conns":          map[string]any{"type": "integer", "minimum": 1},
				"min_conns":          map[string]any{"type": "integer", "minimum": 0},
				"max_conn_lifetime":  durationProp(),
				"max_conn_idle_time": durationProp(),
				"dial_timeout":       durationProp(),
				"statement_timeout":  durationProp(),
			}),
			"server": object(map[string]any{
				"grpc_addr": map[string]any{"type": "string"},
			}),
			"scan": object(map[string]any{
				"directory":     map[string]any{"type": "string"},
				"watch":         map[string]any{"type": "boolean"},
				"debounce":      durationProp(),
				"scan_on_start": map[string]any{"type": "boolean"},
				"skip_hidden":   map[string]any{"type": "boolean"},
			}),
			"ocr": object(map[string]any{
				"engine":                 map[string]any{"type": "string", "enum": []string{EngineTesseractCLI, EngineGosseract}},
				"tesseract":              map[string]any{"type": "string"},
				"pdftoppm":               map[string]any{"type": "string"},
				"tessdata_dir":           map[string]any{"type": "string"},
				"languages":              map[string]any{"type": "array", "minItems": 1, "items": map[string]any{"type": "string", "pattern": `^[a-z_]+$`}},
				"dpi":                    map[string]any{"type": "integer", "minimum": 72, "maximum": 1200},
				"min_text_length":        map[string]any{"type": "integer", "minimum": 1},
				"direct_text_confidence": map[string]any{"type": "number", "exclusiveMinimum": 0, "maximum": 100},
				"max_pages":              map[string]any{"type": "integer", "minimum": 0},
				"psm":                    map[string]any{"type": "integer", "minimum": 0, "maximum": 13},
			}),
			"worker": object(map[string]any{
				"poll_interval":    durationProp(),
				"process_timeout":  durationProp(),
				"recover_on_start": map[string]any{"type": "boolean"},
			}),
			"log": object(map[string]any{
				"level":  map[string]any{"type": "string", "enum": []string{"debug", "info", "warn", "error"}},
				"format": map[string]any{"type": "string", "enum": []string{"json", "text"}},
			}),
		},
	}
}

func object(props map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func durationProp() map[string]any {
	return map[string]any{"type": "string", "pattern": durationPattern}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}

// ValidateConfigFile checks a YAML config document against BuildConfigFileSchema.
func ValidateConfigFile(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	// yaml.v3 decodes mappings as map[string]any, so the tree re-encodes as JSON
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("re-encode yaml: %w", err)
	}
	return ValidateJSONAgainstSchema(BuildConfigFileSchema(), data)
}

package level

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// documentSchema describes the top-level shape of a level document. Unit
// records are only required to be objects here; their fields are checked by
// the Normalizer so that one bad unit can be reported (or skipped) on its own.
var documentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":            map[string]any{"type": "string", "pattern": `^[A-Za-z0-9_\-]+$`},
		"title":         map[string]any{"type": "string"},
		"description":   map[string]any{"type": "string"},
		"kind":          map[string]any{"type": "string", "enum": []any{"review", "quiz"}},
		"schemaVersion": map[string]any{"type": "string"},
		"mathStyle":     map[string]any{"type": "string", "enum": []any{"escaped", "brace"}},
		"questions":     unitListSchema,
		"slides":        unitListSchema,
		"diagram_request": map[string]any{
			"type": []any{"string", "object", "null"},
		},
	},
	"oneOf": []any{
		map[string]any{"required": []any{"questions"}},
		map[string]any{"required": []any{"slides"}},
	},
}

var unitListSchema = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "object"},
}

const documentSchemaURL = "schema://walma-level-v1.json"

// schemaCache caches compiled schemas by URL.
var schemaCache sync.Map // map[string]*jsonschema.Schema

func compiledDocumentSchema() (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(documentSchemaURL); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a parsed JSON value, so round-trip the Go literal.
	defBytes, err := json.Marshal(documentSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(documentSchemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(documentSchemaURL, compiled)
	return compiled, nil
}

// validateDocument checks a decoded generic document against the schema.
func validateDocument(doc any) error {
	compiled, err := compiledDocumentSchema()
	if err != nil {
		return fmt.Errorf("level schema: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

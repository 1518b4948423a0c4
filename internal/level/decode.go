package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/walma-app/walma/internal/content"
)

// LoadPolicy decides what happens to a level with malformed units.
type LoadPolicy int

const (
	// LoadStrict refuses the whole level if any unit is malformed.
	LoadStrict LoadPolicy = iota
	// LoadSkipMalformed drops malformed units and renumbers the rest.
	LoadSkipMalformed
)

func (p LoadPolicy) String() string {
	if p == LoadSkipMalformed {
		return "skip"
	}
	return "strict"
}

// ParsePolicy maps "strict" or "skip" to a LoadPolicy.
func ParsePolicy(s string) (LoadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return LoadStrict, nil
	case "skip", "skip-malformed":
		return LoadSkipMalformed, nil
	default:
		return LoadStrict, fmt.Errorf("unknown load policy %q", s)
	}
}

// DefaultSchemaVersion is assumed when a document omits schemaVersion.
const DefaultSchemaVersion = "v1.0.0"

// supportedMajor is the only schema major version this build reads.
const supportedMajor = "v1"

// IsLevelFile reports whether name has a level document extension.
func IsLevelFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile reads and decodes a level document from disk.
func LoadFile(name string, policy LoadPolicy) (*Level, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	return Decode(filepath.Base(name), data, policy)
}

// Decode parses a level document. The format is chosen by the extension of
// name (YAML for .yaml/.yml, JSON otherwise) and the id defaults to the file
// stem.
func Decode(name string, data []byte, policy LoadPolicy) (*Level, error) {
	doc, err := decodeDocument(name, data)
	if err != nil {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}
	if err := validateDocument(doc); err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	raw := doc.(map[string]any)

	lvl := &Level{
		ID:          stringField(raw, "id"),
		Kind:        Kind(stringField(raw, "kind")),
		Title:       stringField(raw, "title"),
		Description: stringField(raw, "description"),
		MathStyle:   stringField(raw, "mathStyle"),
	}
	if lvl.ID == "" {
		lvl.ID = stem(name)
	}
	if lvl.ID == "" {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: no id", ErrInvalidDocument)}
	}

	lvl.SchemaVersion, err = schemaVersion(stringField(raw, "schemaVersion"))
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	lvl.DiagramRequest, err = diagramRequest(raw["diagram_request"])
	if err != nil {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: diagram_request: %v", ErrInvalidDocument, err)}
	}

	items, inferred := unitList(raw)
	switch {
	case lvl.Kind == "":
		lvl.Kind = inferred
	case lvl.Kind != inferred:
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: kind %q does not match its unit list", ErrInvalidDocument, lvl.Kind)}
	}

	style, err := content.StyleByName(lvl.MathStyle)
	if err != nil {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}
	lvl.MathStyle = style.Name()
	norm := NewNormalizer(content.NewTokenizer(style))

	var bad []*MalformedUnitError
	for i, item := range items {
		rec, _ := item.(map[string]any)
		u, err := norm.Normalize(rec, lvl.Kind.UnitKind(), i)
		if err != nil {
			var mu *MalformedUnitError
			if !errors.As(err, &mu) {
				mu = malformed(i, "unit", "%v", err)
			}
			bad = append(bad, mu)
			continue
		}
		lvl.Units = append(lvl.Units, u.withOrdinal(len(lvl.Units)))
	}

	if len(bad) > 0 && policy == LoadStrict {
		return nil, &LoadError{Name: name, Units: bad}
	}
	if len(lvl.Units) == 0 {
		return nil, &LoadError{Name: name, Err: ErrNoUnits, Units: bad}
	}
	lvl.Skipped = bad
	return lvl, nil
}

func decodeDocument(name string, data []byte) (any, error) {
	var doc any
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		answersAsText(&root)
		var y any
		if err := root.Decode(&y); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		// Round-trip through JSON so the validator and normalizer see the
		// same value types for both formats.
		b, err := json.Marshal(y)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}
	return doc, nil
}

// answerFields hold option values, which are compared as text.
var answerFields = map[string]bool{"options": true, "correctAnswer": true}

// answersAsText retags unquoted numbers and booleans under answerFields as
// strings, so `options: [2, 2.50]` keeps the literal "2" and "2.50".
func answersAsText(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if answerFields[key.Value] {
				retagScalar(val)
				if val.Kind == yaml.SequenceNode {
					for _, item := range val.Content {
						retagScalar(item)
					}
				}
			}
			answersAsText(val)
		}
		return
	}
	for _, c := range n.Content {
		answersAsText(c)
	}
}

func retagScalar(n *yaml.Node) {
	if n.Kind != yaml.ScalarNode {
		return
	}
	switch n.ShortTag() {
	case "!!int", "!!float", "!!bool":
		n.Tag = "!!str"
	}
}

func schemaVersion(v string) (string, error) {
	if v == "" {
		return DefaultSchemaVersion, nil
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("%w: schemaVersion %q is not a semantic version", ErrInvalidDocument, v)
	}
	if semver.Major(v) != supportedMajor {
		return "", fmt.Errorf("%w: %s (want %s.x)", ErrUnsupportedVersion, v, supportedMajor)
	}
	return semver.Canonical(v), nil
}

func unitList(raw map[string]any) ([]any, Kind) {
	if items, ok := raw["questions"].([]any); ok {
		return items, KindQuiz
	}
	items, _ := raw["slides"].([]any)
	return items, KindReview
}

func diagramRequest(v any) (string, error) {
	switch d := v.(type) {
	case nil:
		return "", nil
	case string:
		return d, nil
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func stem(name string) string {
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}

package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TagKind distinguishes the two stored shapes of a tag definition.
type TagKind string

const (
	// TagKindMarker is a bare tag with no structured payload.
	TagKindMarker TagKind = "MARKER"
	// TagKindImpact carries a structured impact assessment.
	TagKindImpact TagKind = "IMPACT"
)

func (k TagKind) String() string { return string(k) }

func (k TagKind) IsValid() bool {
	return k == TagKindMarker || k == TagKindImpact
}

// TagImpact is the structured payload of an impact tag.
type TagImpact struct {
	Explanation string `json:"explanation"`
	Level       string `json:"level"`
}

// TagDefinition is the normalized form of one custom tag. Historical data
// stored tag values as booleans, numbers, strings, impact objects or arrays
// of those; NormalizeTagDefinition folds every legacy shape into this
// variant at the store boundary so downstream code never shape-sniffs.
type TagDefinition struct {
	Kind   TagKind    `json:"kind"`
	Impact *TagImpact `json:"impact,omitempty"`
}

// Marker returns a plain marker definition.
func Marker() TagDefinition {
	return TagDefinition{Kind: TagKindMarker}
}

// ImpactTag returns an impact definition with the given payload.
func ImpactTag(explanation, level string) TagDefinition {
	return TagDefinition{
		Kind:   TagKindImpact,
		Impact: &TagImpact{Explanation: explanation, Level: level},
	}
}

// NormalizeTagDefinition converts a raw stored tag value into the canonical
// variant. Accepted legacy shapes:
//
//   - booleans, numbers, plain strings  -> marker
//   - {"explanation": ..., "level": ...} -> impact
//   - already-normalized {"kind": ...}   -> passed through
//   - arrays                             -> normalized first element
//   - null / empty                       -> marker
//
// Unknown object shapes degrade to a marker rather than failing the read.
func NormalizeTagDefinition(raw json.RawMessage) (TagDefinition, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Marker(), nil
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return TagDefinition{}, fmt.Errorf("normalize tag definition: %w", err)
	}

	switch v := probe.(type) {
	case bool, float64, string:
		return Marker(), nil
	case []any:
		if len(v) == 0 {
			return Marker(), nil
		}
		first, err := json.Marshal(v[0])
		if err != nil {
			return TagDefinition{}, fmt.Errorf("normalize tag definition: %w", err)
		}
		return NormalizeTagDefinition(first)
	case map[string]any:
		return normalizeObject(v), nil
	default:
		return Marker(), nil
	}
}

func normalizeObject(obj map[string]any) TagDefinition {
	if kind, ok := obj["kind"].(string); ok {
		def := TagDefinition{Kind: TagKind(kind)}
		if !def.Kind.IsValid() {
			return Marker()
		}
		if impact, ok := obj["impact"].(map[string]any); ok {
			def.Impact = &TagImpact{
				Explanation: stringField(impact, "explanation"),
				Level:       stringField(impact, "level"),
			}
		}
		if def.Kind == TagKindImpact && def.Impact == nil {
			def.Impact = &TagImpact{}
		}
		return def
	}

	_, hasExplanation := obj["explanation"]
	_, hasLevel := obj["level"]
	if hasExplanation || hasLevel {
		return ImpactTag(stringField(obj, "explanation"), stringField(obj, "level"))
	}

	return Marker()
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// NormalizeTagSet normalizes every value of a raw tag map.
func NormalizeTagSet(raw map[string]json.RawMessage) (map[string]TagDefinition, error) {
	tags := make(map[string]TagDefinition, len(raw))
	for name, value := range raw {
		def, err := NormalizeTagDefinition(value)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		tags[name] = def
	}
	return tags, nil
}

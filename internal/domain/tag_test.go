package domain

import (
	"encoding/json"
	"testing"
)

func TestNormalizeTagDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want TagDefinition
	}{
		{name: "boolean marker", raw: `true`, want: Marker()},
		{name: "numeric marker", raw: `1`, want: Marker()},
		{name: "string marker", raw: `"GDPR"`, want: Marker()},
		{name: "null", raw: `null`, want: Marker()},
		{name: "empty object", raw: `{}`, want: Marker()},
		{
			name: "legacy impact object",
			raw:  `{"explanation": "affects data retention", "level": "high"}`,
			want: ImpactTag("affects data retention", "high"),
		},
		{
			name: "impact object with only level",
			raw:  `{"level": "low"}`,
			want: ImpactTag("", "low"),
		},
		{
			name: "array takes first element",
			raw:  `[{"explanation": "x", "level": "medium"}, true]`,
			want: ImpactTag("x", "medium"),
		},
		{name: "empty array", raw: `[]`, want: Marker()},
		{
			name: "already normalized marker",
			raw:  `{"kind": "MARKER"}`,
			want: Marker(),
		},
		{
			name: "already normalized impact",
			raw:  `{"kind": "IMPACT", "impact": {"explanation": "e", "level": "l"}}`,
			want: ImpactTag("e", "l"),
		},
		{
			name: "normalized impact without payload gets empty payload",
			raw:  `{"kind": "IMPACT"}`,
			want: TagDefinition{Kind: TagKindImpact, Impact: &TagImpact{}},
		},
		{
			name: "unknown kind degrades to marker",
			raw:  `{"kind": "SURPRISE"}`,
			want: Marker(),
		},
		{
			name: "unrelated object degrades to marker",
			raw:  `{"color": "red"}`,
			want: Marker(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeTagDefinition(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("NormalizeTagDefinition(%s) error: %v", tt.raw, err)
			}
			if got.Kind != tt.want.Kind {
				t.Errorf("kind = %s, want %s", got.Kind, tt.want.Kind)
			}
			switch {
			case got.Impact == nil && tt.want.Impact != nil:
				t.Errorf("impact = nil, want %+v", *tt.want.Impact)
			case got.Impact != nil && tt.want.Impact == nil:
				t.Errorf("impact = %+v, want nil", *got.Impact)
			case got.Impact != nil && *got.Impact != *tt.want.Impact:
				t.Errorf("impact = %+v, want %+v", *got.Impact, *tt.want.Impact)
			}
		})
	}
}

func TestNormalizeTagDefinition_InvalidJSON(t *testing.T) {
	t.Parallel()

	if _, err := NormalizeTagDefinition(json.RawMessage(`{broken`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestNormalizeTagSet(t *testing.T) {
	t.Parallel()

	raw := map[string]json.RawMessage{
		"GDPR":   json.RawMessage(`true`),
		"AI-Act": json.RawMessage(`{"explanation": "new obligations", "level": "high"}`),
	}

	tags, err := NormalizeTagSet(raw)
	if err != nil {
		t.Fatalf("NormalizeTagSet error: %v", err)
	}
	if tags["GDPR"].Kind != TagKindMarker {
		t.Errorf("GDPR kind = %s, want MARKER", tags["GDPR"].Kind)
	}
	if tags["AI-Act"].Kind != TagKindImpact || tags["AI-Act"].Impact.Level != "high" {
		t.Errorf("AI-Act = %+v, want impact/high", tags["AI-Act"])
	}
}

package backbone_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goboss33/StoryGenAI-sub001/internal/backbone"
	"github.com/goboss33/StoryGenAI-sub001/internal/testsupport"
)

func TestDocumentRoundTrip(t *testing.T) {
	doc := &backbone.Document{
		Wizard: backbone.WizardState{
			CurrentStep:           5,
			Premise:               "A keeper decodes a signal that should not exist.",
			PacingStyle:           "balanced",
			TargetDurationSeconds: 120,
			Language:              "en",
		},
		Backbone: testsupport.SeedBackbone(t),
	}

	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := backbone.DecodeDocument(&buf)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if decoded.SchemaVersion != backbone.CurrentSchemaVersion {
		t.Fatalf("schema version = %d, want %d", decoded.SchemaVersion, backbone.CurrentSchemaVersion)
	}
	if diff := cmp.Diff(doc.Wizard, decoded.Wizard); diff != "" {
		t.Fatalf("wizard state mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.Backbone, decoded.Backbone); diff != "" {
		t.Fatalf("backbone mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeStampsCurrentSchemaVersion(t *testing.T) {
	doc := &backbone.Document{
		SchemaVersion: 1,
		Wizard:        backbone.WizardState{Premise: "premise"},
	}
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if doc.SchemaVersion != backbone.CurrentSchemaVersion {
		t.Fatalf("Encode left schema version %d", doc.SchemaVersion)
	}
	if doc.Backbone == nil {
		t.Fatal("Encode must default a nil backbone")
	}
}

func TestDecodeDocumentRejectsGarbage(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "this is not a project"},
		{name: "empty premise", input: `{"schemaVersion":3,"wizard":{"premise":"  "},"backbone":{}}`},
		{name: "scenes not array", input: `{"schemaVersion":3,"wizard":{"premise":"p"},"backbone":{"scenes":{"id":"x"}}}`},
		{name: "newer schema", input: `{"schemaVersion":99,"wizard":{"premise":"p"},"backbone":{}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := backbone.DecodeDocument(strings.NewReader(tc.input))
			if err == nil {
				t.Fatal("expected decode failure")
			}
			if !errors.Is(err, backbone.ErrInvalidDocument) {
				t.Fatalf("error %v is not ErrInvalidDocument", err)
			}
		})
	}
}

func TestDecodeDocumentDefaultsCollections(t *testing.T) {
	input := `{"schemaVersion":3,"wizard":{"premise":"a premise"},"backbone":{"items":[]}}`
	doc, err := backbone.DecodeDocument(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if doc.Backbone.Characters == nil || doc.Backbone.Locations == nil || doc.Backbone.Items == nil || doc.Backbone.Scenes == nil {
		t.Fatal("decoded backbone must have non-nil collections")
	}
}

func TestDecodeDocumentAdoptsBaselineForScenes(t *testing.T) {
	input := `{
		"schemaVersion": 3,
		"wizard": {"premise": "A keeper hears tomorrow."},
		"backbone": {
			"characters": [{"id": "chr_1", "name": "Mara"}],
			"locations": [{"id": "loc_1", "name": "Tower"}],
			"scenes": [{"id": "scn_1", "sceneIndex": 1, "title": "Opening", "locationRefId": "loc_1"}]
		}
	}`

	doc, err := backbone.DecodeDocument(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if doc.Backbone.Baseline == nil {
		t.Fatal("expected a baseline adopted for a document with scenes")
	}
	if doc.Backbone.DetectChanges() {
		t.Fatal("adopted baseline must match the imported entities")
	}
	if len(doc.Backbone.Baseline.Characters) != 1 || doc.Backbone.Baseline.Characters[0].ID != "chr_1" {
		t.Fatalf("unexpected baseline characters: %+v", doc.Backbone.Baseline.Characters)
	}
}

func TestDecodeDocumentMissingBackbone(t *testing.T) {
	input := `{"schemaVersion":3,"wizard":{"premise":"a premise"}}`
	doc, err := backbone.DecodeDocument(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if doc.Backbone == nil {
		t.Fatal("missing backbone must decode to an empty one")
	}
}

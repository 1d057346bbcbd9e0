package backbone

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidDocument marks a persisted project document that fails import
// validation. Callers reject the file and leave current state unmodified.
var ErrInvalidDocument = errors.New("invalid project file")

// WizardState carries the user-entered settings persisted alongside the
// backbone.
type WizardState struct {
	CurrentStep           int    `json:"currentStep"`
	Premise               string `json:"premise"`
	PacingStyle           string `json:"pacingStyle"`
	TargetDurationSeconds int    `json:"targetDurationSeconds"`
	Language              string `json:"language"`
}

// Document is the single JSON file a project round-trips through.
type Document struct {
	SchemaVersion int              `json:"schemaVersion"`
	Wizard        WizardState      `json:"wizard"`
	Backbone      *ProjectBackbone `json:"backbone"`
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	if d.Backbone == nil {
		d.Backbone = New()
	}
	d.SchemaVersion = CurrentSchemaVersion
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("encode project document: %w", err)
	}
	return nil
}

// DecodeDocument parses, migrates, and validates a persisted project
// document. Historical schema versions are upgraded before decoding; any
// shape mismatch is rejected with ErrInvalidDocument and no state is
// touched.
func DecodeDocument(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read project document: %w", err)
	}

	migrated, err := MigrateDocument(raw)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if err := json.Unmarshal(migrated, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := validateImport(migrated, doc); err != nil {
		return nil, err
	}
	if doc.Backbone == nil {
		doc.Backbone = New()
	}
	ensureCollections(doc.Backbone)
	// A document with scenes but no baseline would be stuck: the change
	// detector fires while the clarification resolver has nothing to diff
	// against. Adopt the imported entities as the baseline.
	if len(doc.Backbone.Scenes) > 0 && doc.Backbone.Baseline == nil {
		if err := doc.Backbone.CommitBaseline(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	}
	return doc, nil
}

// validateImport enforces the import boundary contract: the premise must be
// non-empty and the scene collection must be array-typed.
func validateImport(raw []byte, doc *Document) error {
	if strings.TrimSpace(doc.Wizard.Premise) == "" {
		return fmt.Errorf("%w: premise is empty", ErrInvalidDocument)
	}

	var shape struct {
		Backbone struct {
			Scenes json.RawMessage `json:"scenes"`
		} `json:"backbone"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	scenes := strings.TrimSpace(string(shape.Backbone.Scenes))
	if scenes != "" && scenes != "null" && !strings.HasPrefix(scenes, "[") {
		return fmt.Errorf("%w: scenes is not an array", ErrInvalidDocument)
	}
	return nil
}

func ensureCollections(b *ProjectBackbone) {
	if b.Characters == nil {
		b.Characters = []Character{}
	}
	if b.Locations == nil {
		b.Locations = []Location{}
	}
	if b.Items == nil {
		b.Items = []Item{}
	}
	if b.Scenes == nil {
		b.Scenes = []Scene{}
	}
}

package backbone

import (
	"encoding/json"
	"fmt"
)

// CurrentSchemaVersion is the document schema produced by this release.
//
// History:
//
//	v1 — scenes referenced locations by display name ("location") and
//	     documents carried no items collection.
//	v2 — locationRefId introduced; items still optional.
//	v3 — items mandatory (may be empty); current shape.
const CurrentSchemaVersion = 3

type migration struct {
	from  int
	apply func(doc map[string]any) error
}

var migrations = []migration{
	{from: 1, apply: migrateV1LocationNames},
	{from: 2, apply: migrateV2EnsureItems},
}

// MigrateDocument upgrades a raw persisted document to the current schema
// version. Documents without a schemaVersion field are treated as v1.
func MigrateDocument(raw []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	version := documentVersion(doc)
	if version > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d is newer than supported %d", ErrInvalidDocument, version, CurrentSchemaVersion)
	}

	for _, m := range migrations {
		if version != m.from {
			continue
		}
		if err := m.apply(doc); err != nil {
			return nil, err
		}
		version++
	}
	doc["schemaVersion"] = CurrentSchemaVersion

	migrated, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("migrate document: marshal: %w", err)
	}
	return migrated, nil
}

func documentVersion(doc map[string]any) int {
	v, ok := doc["schemaVersion"]
	if !ok {
		return 1
	}
	switch value := v.(type) {
	case float64:
		return int(value)
	case int:
		return value
	default:
		return 1
	}
}

// migrateV1LocationNames rewrites v1 scenes that referenced locations by
// display name into id references. Names that no longer resolve leave the
// reference empty; Validate surfaces the dangling scene afterwards.
func migrateV1LocationNames(doc map[string]any) error {
	bb, ok := doc["backbone"].(map[string]any)
	if !ok {
		return nil
	}

	nameToID := map[string]string{}
	if locations, ok := bb["locations"].([]any); ok {
		for _, entry := range locations {
			loc, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name, _ := loc["name"].(string)
			id, _ := loc["id"].(string)
			if name != "" && id != "" {
				nameToID[name] = id
			}
		}
	}

	scenes, ok := bb["scenes"].([]any)
	if !ok {
		return nil
	}
	for _, entry := range scenes {
		scene, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := scene["location"].(string)
		delete(scene, "location")
		if name == "" {
			continue
		}
		if id, ok := nameToID[name]; ok {
			scene["locationRefId"] = id
		}
	}
	return nil
}

// migrateV2EnsureItems adds the items collection v2 documents could omit.
func migrateV2EnsureItems(doc map[string]any) error {
	bb, ok := doc["backbone"].(map[string]any)
	if !ok {
		return nil
	}
	if _, ok := bb["items"]; !ok {
		bb["items"] = []any{}
	}
	return nil
}

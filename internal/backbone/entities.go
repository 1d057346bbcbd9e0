package backbone

import (
	"strings"

	"github.com/google/uuid"
)

// ScriptLineKind labels one typed screenplay line.
type ScriptLineKind string

const (
	LineSlugline      ScriptLineKind = "slugline"
	LineAction        ScriptLineKind = "action"
	LineDialogue      ScriptLineKind = "dialogue"
	LineParenthetical ScriptLineKind = "parenthetical"
	LineTransition    ScriptLineKind = "transition"
)

// ValidLineKind reports whether kind is one of the known screenplay line types.
func ValidLineKind(kind ScriptLineKind) bool {
	switch kind {
	case LineSlugline, LineAction, LineDialogue, LineParenthetical, LineTransition:
		return true
	default:
		return false
	}
}

// ShotStatus tracks per-shot media generation progress.
type ShotStatus string

const (
	ShotPending    ShotStatus = "pending"
	ShotProcessing ShotStatus = "processing"
	ShotReady      ShotStatus = "ready"
)

// Character is an upstream entity watched by change detection.
type Character struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Description    string `json:"description"`
	Appearance     string `json:"appearance"`
	Personality    string `json:"personality"`
	VoiceProfile   string `json:"voiceProfile,omitempty"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

// Location is an upstream entity watched by change detection.
type Location struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Mood           string `json:"mood"`
	TimeOfDay      string `json:"timeOfDay,omitempty"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

// Item is an upstream prop entity watched by change detection.
type Item struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Significance   string `json:"significance,omitempty"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

// ScriptLine is one typed screenplay line.
type ScriptLine struct {
	Kind      ScriptLineKind `json:"kind"`
	Character string         `json:"character,omitempty"`
	Text      string         `json:"text"`
}

// ScriptContent holds the ordered screenplay lines of a scene.
type ScriptContent struct {
	Lines []ScriptLine `json:"lines"`
}

// ShotComposition describes how a shot is framed.
type ShotComposition struct {
	ShotType       string `json:"shotType"`
	CameraMovement string `json:"cameraMovement"`
	Angle          string `json:"angle"`
}

// ShotContent describes what is in a shot and the prompts generated for it.
type ShotContent struct {
	CharactersInShot []string `json:"charactersInShot"`
	ImagePrompt      string   `json:"imagePrompt,omitempty"`
	VideoPrompt      string   `json:"videoPrompt,omitempty"`
}

// ShotAudio describes the audio context of a shot.
type ShotAudio struct {
	Ambience    string `json:"ambience,omitempty"`
	DialogueRef string `json:"dialogueRef,omitempty"`
}

// Shot is one ordered shot within a scene.
type Shot struct {
	ID          string          `json:"id"`
	Composition ShotComposition `json:"composition"`
	Content     ShotContent     `json:"content"`
	Audio       ShotAudio       `json:"audio"`
	Status      ShotStatus      `json:"status"`
}

// Scene is one ordered scene of the screenplay.
type Scene struct {
	ID                       string        `json:"id"`
	SceneIndex               int           `json:"sceneIndex"`
	Title                    string        `json:"title"`
	LocationRefID            string        `json:"locationRefId,omitempty"`
	NarrativeGoal            string        `json:"narrativeGoal"`
	EstimatedDurationSeconds int           `json:"estimatedDurationSeconds"`
	ScriptContent            ScriptContent `json:"scriptContent"`
	Shots                    []Shot        `json:"shots"`
}

// Entity id prefixes keep ids self-describing in logs and documents.
const (
	prefixCharacter = "chr"
	prefixLocation  = "loc"
	prefixItem      = "itm"
	prefixScene     = "scn"
	prefixShot      = "sht"
)

// NewCharacterID returns a fresh character id. Ids are assigned once and
// never reused, even after the entity is deleted.
func NewCharacterID() string { return newID(prefixCharacter) }

// NewLocationID returns a fresh location id.
func NewLocationID() string { return newID(prefixLocation) }

// NewItemID returns a fresh item id.
func NewItemID() string { return newID(prefixItem) }

// NewSceneID returns a fresh scene id.
func NewSceneID() string { return newID(prefixScene) }

// NewShotID returns a fresh shot id.
func NewShotID() string { return newID(prefixShot) }

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

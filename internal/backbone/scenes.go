package backbone

import "fmt"

// NormalizeSceneIndexes rewrites sceneIndex values to exactly 1..N in array
// order. Every scene mutation ends with this.
func (b *ProjectBackbone) NormalizeSceneIndexes() {
	for i := range b.Scenes {
		b.Scenes[i].SceneIndex = i + 1
	}
}

// InsertScene inserts scene at position (0-based); positions past the end
// append. Indexes are renormalized.
func (b *ProjectBackbone) InsertScene(position int, scene Scene) {
	if position < 0 {
		position = 0
	}
	if position > len(b.Scenes) {
		position = len(b.Scenes)
	}
	b.Scenes = append(b.Scenes, Scene{})
	copy(b.Scenes[position+1:], b.Scenes[position:])
	b.Scenes[position] = scene
	b.NormalizeSceneIndexes()
}

// RemoveScene deletes the scene with the given id and renormalizes indexes.
func (b *ProjectBackbone) RemoveScene(id string) error {
	for i := range b.Scenes {
		if b.Scenes[i].ID == id {
			b.Scenes = append(b.Scenes[:i], b.Scenes[i+1:]...)
			b.NormalizeSceneIndexes()
			return nil
		}
	}
	return fmt.Errorf("remove scene: id %q not found", id)
}

// MoveScene moves the scene with the given id to position (0-based) and
// renormalizes indexes.
func (b *ProjectBackbone) MoveScene(id string, position int) error {
	from := -1
	for i := range b.Scenes {
		if b.Scenes[i].ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("move scene: id %q not found", id)
	}
	if position < 0 {
		position = 0
	}
	if position >= len(b.Scenes) {
		position = len(b.Scenes) - 1
	}
	scene := b.Scenes[from]
	b.Scenes = append(b.Scenes[:from], b.Scenes[from+1:]...)
	b.Scenes = append(b.Scenes, Scene{})
	copy(b.Scenes[position+1:], b.Scenes[position:])
	b.Scenes[position] = scene
	b.NormalizeSceneIndexes()
	return nil
}

// ReplaceScenes swaps the entire scene subtree atomically. Used by the
// screenplay stage and the regeneration executor; indexes are renormalized.
func (b *ProjectBackbone) ReplaceScenes(scenes []Scene) {
	if scenes == nil {
		scenes = []Scene{}
	}
	b.Scenes = scenes
	b.NormalizeSceneIndexes()
}

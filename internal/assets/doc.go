// Package assets turns bible entities and shots into media: reference images
// for characters, locations, and items, plus per-shot image, video, and audio
// assets. The coordinator serializes requests per asset so the same entity is
// never generated twice concurrently, and records produced URIs back onto the
// backbone and into the project store.
package assets

// Package api exposes project state over HTTP. It contains the JSON
// response types shared with clients, a project service that wraps the
// store and the generation pipeline, and a websocket hub that streams
// stage progress events to subscribers.
package api

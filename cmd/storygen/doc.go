// Package main hosts the storygen CLI entrypoint and command graph.
//
// The Cobra-based command tree drives the production bible workflow: project
// creation, staged generation, change regeneration, clarification answers,
// document export/import, asset requests, and the HTTP server. It centralizes
// configuration resolution, store access, and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

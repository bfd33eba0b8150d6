// Package main hosts the Conveyor CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon's log API, local attempt execution, and
// configuration scaffolding. It centralizes configuration resolution, server
// discovery, and token handling so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

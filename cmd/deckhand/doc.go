// Package main hosts the deckhand CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration loading, the WebDriver
// session, the download pipeline, and the workflow driver into the `run`
// command, with `validate` and `config` utilities alongside. Keep this
// package lean: new behavior belongs in the internal packages first, then
// gets surfaced through a command or flag here.
package main

// Package main hosts the lyricreel CLI entrypoint and command graph.
//
// The Cobra command tree loads application settings once, then hands song
// configurations to the render workflow, edits song files, runs preflight
// checks, and lists recorded renders. Heavy lifting lives in the internal
// packages; commands here only parse flags and print results.
package main

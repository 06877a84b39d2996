// Package preflight verifies that a render can start before any process is
// launched.
//
// These checks run in two contexts:
//   - The render workflow calls RunAll and refuses to start when a required
//     check fails, so a missing browser or page directory is reported up front
//     rather than after the encoder has created the output file.
//   - The CLI "lyricreel preflight" command prints every result as a table.
package preflight

// Package frameloop drives the lockstep render/submit cycle.
//
// One goroutine advances the page to a frame, captures it and hands the bytes
// to the encoder before moving on. The encoder closing its input ends the
// loop early without error. Any path through Run finishes the encoder once
// and closes the renderer.
package frameloop

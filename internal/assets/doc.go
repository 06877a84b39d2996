// Package assets manages the temporary files a render publishes for the lyric
// page to fetch.
//
// A Store owns one root directory. Every published file gets a unique
// timestamped name and a monotonically increasing ID, and the store removes
// everything it created when closed. Sweep clears run directories left behind
// by processes that were killed before their deferred cleanup ran.
package assets

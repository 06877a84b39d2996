// Package song models the song configuration a lyric video is rendered from.
//
// A Config is either a single song or an ordered playlist of songs. Load
// reads the JSON file format (resolving lyrics_path against the file's own
// directory), Validate reports every missing field, Save writes the file back,
// and PublishJSON produces the self-contained document the lyric page fetches
// during setup. FromAudio derives a Song from an audio file's metadata tags.
package song

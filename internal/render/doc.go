// Package render drives the headless browser that draws each frame.
//
// A Session owns one browser process and one page for the whole run. Requests
// for the configured origin are answered from local directories, so the page
// can load its scripts and the published song configuration without a server.
// The page exposes a controller object with setup and updateFrame methods;
// the session calls them and captures the viewport after every update.
package render

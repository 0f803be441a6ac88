// Package diagram renders diagram source embedded in posts to SVG.
//
// D2 diagrams are compiled and laid out in process with the d2 library.
// Mermaid has no Go implementation, so Mermaid diagrams are rendered by
// mermaid.js inside headless Chromium driven through go-rod. Browsers are
// expensive, so they are shared through a BrowserPool that launches them
// lazily and bounds how many run at once.
//
// Both renderers satisfy pipeline.DiagramRenderer.
package diagram

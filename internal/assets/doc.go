// Package assets provides the HTML templates used while rendering diagrams.
//
// The Mermaid renderer loads the "mermaid" template: a blank host page that
// pulls in mermaid.js and initializes it, so the browser can render diagram
// source to SVG through a page evaluation.
//
// Templates come from the binary (Embedded) or from a directory laid out as
//
//	{dir}/
//	└── templates/
//	    └── {name}.html
//
// Resolve overlays such a directory on the built-in set. Template names are
// single path elements, and directory reads are confined to {dir}.
package assets

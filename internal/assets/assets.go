package assets

import (
	"bytes"
	"fmt"
	"html/template"
)

// MermaidTemplate names the diagram host page.
const MermaidTemplate = "mermaid"

// MermaidPage is the data rendered into the Mermaid host page.
type MermaidPage struct {
	ScriptSrc     string
	SecurityLevel string
	Theme         string
}

// RenderMermaidPage loads the Mermaid host template through loader and
// executes it with page.
func RenderMermaidPage(loader Loader, page MermaidPage) (string, error) {
	if loader == nil {
		loader = Embedded()
	}

	src, err := loader.LoadTemplate(MermaidTemplate)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(MermaidTemplate).Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateExecute, err)
	}

	// The script source comes from trusted configuration and may be a
	// file:// URL, which html/template would otherwise neutralize.
	data := struct {
		ScriptSrc     template.URL
		SecurityLevel string
		Theme         string
	}{template.URL(page.ScriptSrc), page.SecurityLevel, page.Theme}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateExecute, err)
	}
	return buf.String(), nil
}

package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html templates/widgets/*.html
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in templates: form.html, field.html and one
// widgets/<widget>.html per control.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

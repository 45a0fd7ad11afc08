package templates

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed *.tmpl
var FS embed.FS

var funcs = template.FuncMap{
	"join": strings.Join,
}

// LoadTemplates loads all templates from the embedded filesystem
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(FS, "*.tmpl")
}

// Package web bundles the dashboard templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"path"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

//go:embed public
var publicFS embed.FS

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.tmpl")
}

// Public returns the static asset subtree under public/dir (css, js, img).
func Public(dir string) (fs.FS, error) {
	return fs.Sub(publicFS, path.Join("public", dir))
}

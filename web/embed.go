// Package web embeds the page templates and stylesheet served by the
// navigation shell.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// Static returns the stylesheet and other assets served under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(content, "static")
}

// Templates returns the page templates.
func Templates() (fs.FS, error) {
	return fs.Sub(content, "templates")
}

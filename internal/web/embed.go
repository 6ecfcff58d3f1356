// ABOUTME: Embeds HTML templates and static assets into the binary
// ABOUTME: Provides templateFS for rendering and staticFS for the file server

package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html templates/*.md
var templateFS embed.FS

//go:embed static
var rawStaticFS embed.FS

// staticFS returns the static asset tree rooted so that a request path
// like /styles/theme.css maps onto static/styles/theme.css.
func staticFS() fs.FS {
	sub, err := fs.Sub(rawStaticFS, "static")
	if err != nil {
		// The static directory is embedded at compile time.
		panic(err)
	}
	return sub
}

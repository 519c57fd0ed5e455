// Package web holds the bundled frontend placeholder served when no built
// frontend directory is configured.
package web

import (
	"embed"
	"io/fs"
)

//go:embed dist
var content embed.FS

// DistFS returns the embedded frontend build.
func DistFS() fs.FS {
	sub, err := fs.Sub(content, "dist")
	if err != nil {
		panic(err)
	}
	return sub
}

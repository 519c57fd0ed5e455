// Package web serves the single-page frontend.
package web

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	webembed "github.com/lavishdadwani/Stock-Management/web"
)

// Handler serves files from dir, or from the embedded placeholder build when
// dir is empty or missing. Unknown paths get index.html so client-side routes
// resolve.
func Handler(dir string) http.Handler {
	var files fs.FS
	if dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			files = os.DirFS(dir)
			slog.Info("serving frontend", "dir", dir)
		} else {
			slog.Warn("frontend directory not found, using embedded placeholder", "dir", dir)
		}
	}
	if files == nil {
		files = webembed.DistFS()
	}
	return SPA(files)
}

// SPA serves a frontend build from files with index.html fallback.
func SPA(files fs.FS) http.Handler {
	fileServer := http.FileServerFS(files)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			serveIndex(w, r, files)
			return
		}

		st, err := fs.Stat(files, name)
		if err != nil || st.IsDir() {
			// Missing assets are real 404s; everything else is a client route.
			if path.Ext(name) != "" {
				http.NotFound(w, r)
				return
			}
			serveIndex(w, r, files)
			return
		}

		if strings.HasPrefix(name, "assets/") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		fileServer.ServeHTTP(w, r)
	})
}

func serveIndex(w http.ResponseWriter, r *http.Request, files fs.FS) {
	data, err := fs.ReadFile(files, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

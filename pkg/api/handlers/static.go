// Package handlers provides HTTP request handlers.
package handlers

import (
	"embed"
	"net/http"
)

//go:embed web
var webAssets embed.FS

// Page returns a handler serving one embedded HTML page.
func Page(name string) http.HandlerFunc {
	content, err := webAssets.ReadFile("web/" + name)
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(content)
	}
}

// Favicon serves the embedded favicon.
func Favicon() http.HandlerFunc {
	content, err := webAssets.ReadFile("web/favicon.ico")
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/x-icon")
		_, _ = w.Write(content)
	}
}

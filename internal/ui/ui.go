package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

// content embeds the digest page and its assets.
//
//go:embed static/*
var content embed.FS

// Handler returns an http.Handler that serves the embedded page under /.
func Handler() http.Handler {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		// only possible if the embed pattern above is broken
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

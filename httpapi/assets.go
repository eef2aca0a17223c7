package httpapi

import (
	"embed"
	"io/fs"
)

//go:embed assets/*
var embeddedAssets embed.FS

var assetsFS = mustSub(embeddedAssets, "assets")

// PageFiles lists the files every engine page set must provide.
var PageFiles = []string{"editor.html", "diff.html", "compare.html", "engine.js", "bridge.js", "style.css"}

// Assets returns the embedded engine pages.
func Assets() fs.FS {
	return assetsFS
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return fsys
	}
	return sub
}

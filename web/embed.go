// Package web carries the back-office page templates and static assets.
package web

import "embed"

// Templates holds layouts, partials and pages, each defining its own template name.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds the stylesheet served under /static/.
//
//go:embed static/**/*
var Static embed.FS

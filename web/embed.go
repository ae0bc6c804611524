// Package web holds the embedded templates and static assets.
package web

import "embed"

// Templates holds the HTML templates.
//
//go:embed templates
var Templates embed.FS

// Static holds the static assets served under /static/.
//
//go:embed static
var Static embed.FS

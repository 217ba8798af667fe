// Package web carries the portal's templates and static assets,
// embedded so the binary is self-contained. Runtime uploads live on
// disk and are served separately.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

// TemplateFS is the embedded template tree (layouts/ and pages/).
var TemplateFS fs.FS = templateFS

// StaticFS is the embedded static asset tree.
var StaticFS fs.FS = staticFS

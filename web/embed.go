// Package web embeds the files served under /static.
package web

import "embed"

// Static embeds static assets, currently the OpenAPI description of the API.
//
//go:embed static
var Static embed.FS

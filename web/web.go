// Package web embeds the static chat UI served at the server root.
package web

import "embed"

//go:embed dist
var Assets embed.FS

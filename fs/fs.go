// Package appfs embeds the static files shipped with the binaries:
// email & web templates and database migrations.
package appfs

import "embed"

//go:embed all:templates migrations
var FS embed.FS

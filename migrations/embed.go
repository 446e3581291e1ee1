// Package migrations embeds the SQL schema so tools can migrate without a checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

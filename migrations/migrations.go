// Package migrations embeds the feed-state schema migrations. The storage
// layer applies them on open; the migrate command drives them by hand.
package migrations

import "embed"

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS

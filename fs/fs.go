// Package appfs embeds the files shipped with the binaries: SQL migrations, page and email templates.
package appfs

import "embed"

// templates are listed by pattern: a bare directory would leave out the `_` partials.

//go:embed migrations/*.sql templates/pages/*.gohtml templates/email/*
var FS embed.FS

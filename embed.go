package newsdesk

import "embed"

// EmbeddedAssets holds the console script and stylesheet served under
// /public/.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

// Package dashboard provides the embedded badge page.
//
// The page is compiled into the binary with the embed directive, so the
// badge server ships as a single file. It renders the API status badge and
// keeps it current from the server's SSE feed.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the badge page.
//
//	assets/
//	  index.html    - badge markup with an inline SSE script
//
//go:embed assets/*
var Assets embed.FS

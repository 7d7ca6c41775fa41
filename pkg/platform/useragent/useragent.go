// Package useragent renders raw User-Agent headers into short human-readable
// client descriptions for audit notes.
package useragent

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Describe summarizes a raw User-Agent header as "Browser x.y on OS".
// Unparseable or empty agents fall back to a generic label so audit notes
// stay readable.
func Describe(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "unknown client"
	}

	ua := useragent.New(raw)
	if ua.Bot() {
		return "automated client"
	}

	name, version := ua.Browser()
	if name == "" {
		// Non-browser tools (curl, SDKs) keep their raw product token, capped
		// so notes never balloon.
		if len(raw) > 64 {
			return raw[:64]
		}
		return raw
	}

	desc := name
	if version != "" {
		// Major version is enough for an audit note.
		if idx := strings.Index(version, "."); idx > 0 {
			version = version[:idx]
		}
		desc = fmt.Sprintf("%s %s", name, version)
	}
	if os := ua.OS(); os != "" {
		desc = fmt.Sprintf("%s on %s", desc, os)
	}
	return desc
}

package useragent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	t.Run("summarizes a browser agent", func(t *testing.T) {
		const chrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		desc := Describe(chrome)
		assert.Contains(t, desc, "Chrome 120")
		assert.Contains(t, desc, "on")
	})

	t.Run("labels bots", func(t *testing.T) {
		assert.Equal(t, "automated client", Describe("Googlebot/2.1 (+http://www.google.com/bot.html)"))
	})

	t.Run("keeps non-browser product tokens", func(t *testing.T) {
		assert.Equal(t, "curl/8.4.0", Describe("curl/8.4.0"))
	})

	t.Run("caps oversized raw agents", func(t *testing.T) {
		desc := Describe("tool/" + strings.Repeat("x", 500))
		assert.LessOrEqual(t, len(desc), 64)
	})

	t.Run("falls back for empty agents", func(t *testing.T) {
		assert.Equal(t, "unknown client", Describe(""))
		assert.Equal(t, "unknown client", Describe("   "))
	})
}

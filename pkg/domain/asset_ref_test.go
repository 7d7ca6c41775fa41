package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodia/pkg/domain-errors"
)

func TestManagedRef(t *testing.T) {
	t.Run("builds reference carrying the asset id", func(t *testing.T) {
		assetID := NewAssetID()
		ref, err := ManagedRef(assetID)
		require.NoError(t, err)

		assert.Equal(t, RefKindManaged, ref.Kind())
		assert.True(t, ref.IsManaged())

		got, ok := ref.AssetID()
		require.True(t, ok)
		assert.Equal(t, assetID, got)

		_, ok = ref.URI()
		assert.False(t, ok)
	})

	t.Run("rejects nil asset id", func(t *testing.T) {
		_, err := ManagedRef(AssetID{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestExternalRef(t *testing.T) {
	t.Run("trims surrounding whitespace", func(t *testing.T) {
		ref, err := ExternalRef("  /pages/about  ")
		require.NoError(t, err)

		uri, ok := ref.URI()
		require.True(t, ok)
		assert.Equal(t, "/pages/about", uri)
	})

	t.Run("rejects empty and whitespace-only", func(t *testing.T) {
		for _, input := range []string{"", "   ", "\t\n"} {
			_, err := ExternalRef(input)
			require.Error(t, err, "input %q", input)
		}
	})

	t.Run("rejects control characters", func(t *testing.T) {
		_, err := ExternalRef("/docs/\x00evil")
		require.Error(t, err)
	})

	t.Run("rejects oversized references", func(t *testing.T) {
		_, err := ExternalRef("/p/" + strings.Repeat("a", 3000))
		require.Error(t, err)
	})
}

func TestAssetRefKey(t *testing.T) {
	t.Run("managed keys are case-normalized", func(t *testing.T) {
		u := uuid.MustParse("550E8400-E29B-41D4-A716-446655440000")
		ref, err := ManagedRef(AssetID(u))
		require.NoError(t, err)
		assert.Equal(t, "asset:550e8400-e29b-41d4-a716-446655440000", ref.Key())
	})

	t.Run("external keys preserve the URI", func(t *testing.T) {
		ref, err := ExternalRef("https://example.org/Page?id=7")
		require.NoError(t, err)
		assert.Equal(t, "uri:https://example.org/Page?id=7", ref.Key())
	})

	t.Run("zero reference yields empty key", func(t *testing.T) {
		var ref AssetRef
		assert.True(t, ref.IsZero())
		assert.Equal(t, "", ref.Key())
	})
}

func TestParseAssetRef(t *testing.T) {
	t.Run("round-trips both kinds", func(t *testing.T) {
		managed, err := ManagedRef(NewAssetID())
		require.NoError(t, err)
		external, err := ExternalRef("/videos/intro.mp4")
		require.NoError(t, err)

		for _, ref := range []AssetRef{managed, external} {
			parsed, err := ParseAssetRef(ref.Key())
			require.NoError(t, err)
			assert.Equal(t, ref, parsed)
		}
	})

	t.Run("rejects unknown prefix", func(t *testing.T) {
		_, err := ParseAssetRef("file:/tmp/x")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects managed ref with nil UUID", func(t *testing.T) {
		_, err := ParseAssetRef("asset:" + uuid.Nil.String())
		require.Error(t, err)
	})
}

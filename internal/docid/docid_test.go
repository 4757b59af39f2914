package docid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Refund Policy", "refund-policy"},
		{"  FAQ -- v2 ", "faq-v2"},
		{"already-slugged", "already-slugged"},
		{"Ünïcode Heavy!!", "n-code-heavy"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), "input %q", tt.in)
	}
}

func TestParseFilename(t *testing.T) {
	t.Run("Strips Extension And Slugs", func(t *testing.T) {
		id, title := ParseFilename("Refund Policy.md")
		assert.Equal(t, "refund-policy", id)
		assert.Equal(t, "Refund Policy", title)
	})

	t.Run("Ignores Directories", func(t *testing.T) {
		id, title := ParseFilename("uploads/abc/Terms Of Service.pdf")
		assert.Equal(t, "terms-of-service", id)
		assert.Equal(t, "Terms Of Service", title)
	})

	t.Run("No Extension", func(t *testing.T) {
		id, title := ParseFilename("README")
		assert.Equal(t, "readme", id)
		assert.Equal(t, "README", title)
	})
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("notes.txt"))
	assert.True(t, Allowed("Guide.MD"))
	assert.True(t, Allowed("scan.pdf"))
	assert.True(t, Allowed("report.docx"))
	assert.False(t, Allowed("archive.zip"))
	assert.False(t, Allowed("noext"))
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "refund-policy#chunk-3", ChunkID("refund-policy", 3))
	assert.Equal(t, "refund-policy#chunk-", DocPrefix("refund-policy"))
}

// Package docid derives stable document identifiers from filenames and
// composes the chunk identifiers stored alongside each vector.
package docid

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// AllowedExtensions lists the upload formats the pipeline accepts.
var AllowedExtensions = []string{".txt", ".md", ".pdf", ".docx"}

// Slug normalizes a title into a URL-safe document ID: lowercase,
// runs of non-alphanumerics collapse to a single hyphen, leading and
// trailing hyphens trimmed.
func Slug(s string) string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ParseFilename splits a filename into a document ID and a display
// title. "Refund Policy.md" yields ("refund-policy", "Refund Policy").
func ParseFilename(filename string) (id, title string) {
	base := path.Base(filename)
	title = strings.TrimSuffix(base, path.Ext(base))
	return Slug(title), title
}

// Ext returns the lowercased extension of a filename, including the dot.
func Ext(filename string) string {
	return strings.ToLower(path.Ext(filename))
}

// Allowed reports whether the filename's extension is an accepted
// upload format.
func Allowed(filename string) bool {
	ext := Ext(filename)
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// ChunkID composes the identifier for the i-th chunk of a document.
// Chunk IDs are deterministic so re-ingesting a document overwrites
// its previous vectors instead of duplicating them.
func ChunkID(docID string, i int) string {
	return fmt.Sprintf("%s#chunk-%d", docID, i)
}

// DocPrefix returns the prefix shared by every chunk ID of a document.
func DocPrefix(docID string) string {
	return docID + "#chunk-"
}

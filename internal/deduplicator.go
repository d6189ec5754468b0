package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// Deduplicator detects documents with identical conversation content
type Deduplicator struct{}

// NewDeduplicator creates a new Deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Deduplicate removes later documents whose content matches an earlier one
func (d *Deduplicator) Deduplicate(docs []*CanonicalDoc) []*CanonicalDoc {
	dups := make(map[int]bool)
	for _, i := range d.Duplicates(docs) {
		dups[i] = true
	}
	var unique []*CanonicalDoc
	for i, doc := range docs {
		if !dups[i] {
			unique = append(unique, doc)
		}
	}
	return unique
}

// Duplicates returns the indexes of documents whose content hash was already
// seen at a lower index
func (d *Deduplicator) Duplicates(docs []*CanonicalDoc) []int {
	seen := make(map[string]bool)
	var dups []int
	for i, doc := range docs {
		hash := d.ContentHash(doc)
		if seen[hash] {
			dups = append(dups, i)
			continue
		}
		seen[hash] = true
	}
	return dups
}

// ContentHash creates a content-based hash for a document. Metadata is left
// out so that the same conversation exported by two tools hashes equally.
func (d *Deduplicator) ContentHash(doc *CanonicalDoc) string {
	h := sha256.New()

	for _, msg := range doc.Messages {
		h.Write([]byte(msg.Role))
		h.Write([]byte{0})
		h.Write([]byte(msg.Content))
		h.Write([]byte{0})
		h.Write([]byte(msg.Timestamp))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

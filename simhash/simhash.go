// Package simhash provides 64-bit SimHash fingerprints for near-duplicate
// detection across wedding site pages. Subpage discovery often yields the
// same content under several URLs (trailing-slash variants, platform aliases
// like /travel and /accommodations), and probed known paths can come back as
// soft 404s; fingerprint comparison lets the coordinator drop the copies
// before they eat the content budget.
package simhash

import (
	"hash/fnv"
	"io"
	"math/bits"
	"strings"
)

// Hamming-distance thresholds tuned against wedding platform templates.
// Page bodies are short (hundreds of words), so even small distances imply
// heavy token overlap.
const (
	// DefaultTextThreshold is the distance at or below which two page texts
	// count as the same content.
	DefaultTextThreshold = 3

	// DefaultDOMThreshold is the distance at or below which two documents
	// count as structurally identical (same template shell).
	DefaultDOMThreshold = 3
)

// Fingerprint computes a 64-bit SimHash over the words of text. Tokens are
// lowercased before hashing so that heading-case differences between
// otherwise identical pages do not register as content changes.
func Fingerprint(text string) uint64 {
	var vector [64]int
	words := 0

	for _, word := range strings.Fields(text) {
		h := fnv.New64a()
		io.WriteString(h, strings.ToLower(word))
		sum := h.Sum64()

		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
		words++
	}

	if words == 0 {
		return 0
	}

	var fp uint64
	for i, v := range vector {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits of
// each other.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Deduper tracks the fingerprints of pages already accepted during a scrape
// and flags later pages that near-duplicate one of them. It is not safe for
// concurrent use; the coordinator processes subpages sequentially.
type Deduper struct {
	threshold int
	kept      []uint64
}

// NewDeduper returns a Deduper using the given Hamming threshold, or
// DefaultTextThreshold when threshold is negative.
func NewDeduper(threshold int) *Deduper {
	if threshold < 0 {
		threshold = DefaultTextThreshold
	}
	return &Deduper{threshold: threshold}
}

// Seen reports whether text is a near-duplicate of a page recorded earlier.
// New texts are recorded as kept; duplicates are not. Empty text is never a
// duplicate: thin pages are the blocked classifier's problem, not dedupe's.
func (d *Deduper) Seen(text string) bool {
	fp := Fingerprint(text)
	if fp == 0 {
		return false
	}
	for _, prev := range d.kept {
		if Similar(fp, prev, d.threshold) {
			return true
		}
	}
	d.kept = append(d.kept, fp)
	return false
}

// Len returns the number of distinct pages recorded so far.
func (d *Deduper) Len() int {
	return len(d.kept)
}

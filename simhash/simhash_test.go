package simhash

import (
	"strings"
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	text := "welcome to our wedding celebration in napa valley"
	if Fingerprint(text) != Fingerprint(text) {
		t.Error("identical texts produced different fingerprints")
	}
}

func TestFingerprint_CaseInsensitive(t *testing.T) {
	fp1 := Fingerprint("Travel And Hotel Information")
	fp2 := Fingerprint("travel and hotel information")
	if fp1 != fp2 {
		t.Errorf("case-shifted texts differ: %064b vs %064b", fp1, fp2)
	}
}

func TestFingerprint_SimilarTexts(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox jumps over the lazy dog")
	fp2 := Fingerprint("the quick brown fox leaps over the lazy dog")

	if dist := Distance(fp1, fp2); dist > 10 {
		t.Errorf("one-word change produced distance %d", dist)
	}
}

func TestFingerprint_DifferentTexts(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox jumps over the lazy dog")
	fp2 := Fingerprint("completely unrelated content about quantum physics and mathematics")

	if dist := Distance(fp1, fp2); dist < 5 {
		t.Errorf("unrelated texts produced distance %d", dist)
	}
}

func TestFingerprint_EmptyAndWhitespace(t *testing.T) {
	for _, in := range []string{"", "   \t\n  "} {
		if fp := Fingerprint(in); fp != 0 {
			t.Errorf("Fingerprint(%q) = %064b, want 0", in, fp)
		}
	}
}

func TestFingerprint_SingleWord(t *testing.T) {
	if Fingerprint("rsvp") == 0 {
		t.Error("single word should produce a non-zero fingerprint")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
		{"zero zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	fp1 := Fingerprint("ceremony and reception details")
	if !Similar(fp1, fp1, 0) {
		t.Error("identical fingerprints should be similar at threshold 0")
	}

	fp2 := Fingerprint("a completely different text about nothing related")
	dist := Distance(fp1, fp2)
	if Similar(fp1, fp2, dist-1) {
		t.Errorf("similar at threshold %d despite distance %d", dist-1, dist)
	}
	if !Similar(fp1, fp2, dist) {
		t.Errorf("not similar at threshold equal to distance %d", dist)
	}
}

func TestDeduper(t *testing.T) {
	travel := "Guests should reserve rooms at the Grand Hotel downtown using block code SMITH2026 before the first of May to receive the discounted wedding rate."
	schedule := "Our ceremony begins promptly at four in the afternoon followed by cocktails and dancing on the terrace lawn until midnight with a late-night snack bar."

	d := NewDeduper(DefaultTextThreshold)

	if d.Seen(travel) {
		t.Error("first page reported as duplicate")
	}
	if !d.Seen(travel) {
		t.Error("identical page not reported as duplicate")
	}
	if !d.Seen(strings.ToUpper(travel)) {
		t.Error("case-shifted copy not reported as duplicate")
	}
	if d.Seen(schedule) {
		t.Error("unrelated page reported as duplicate")
	}
	if got := d.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestDeduper_EmptyTextNeverDuplicate(t *testing.T) {
	d := NewDeduper(DefaultTextThreshold)
	if d.Seen("") {
		t.Error("empty text reported as duplicate")
	}
	if d.Seen("") {
		t.Error("repeated empty text reported as duplicate")
	}
	if d.Len() != 0 {
		t.Errorf("empty text was recorded, Len() = %d", d.Len())
	}
}

func TestDeduper_NegativeThresholdUsesDefault(t *testing.T) {
	d := NewDeduper(-1)
	if d.threshold != DefaultTextThreshold {
		t.Errorf("threshold = %d, want %d", d.threshold, DefaultTextThreshold)
	}
}

func TestFingerprintDOM_SameShellDifferentText(t *testing.T) {
	page := `<html><head><title>Emma & Liam</title></head><body><div><h1>Welcome</h1><p>Join us in June</p></div></body></html>`
	notFound := `<html><head><title>Page Not Found</title></head><body><div><h1>Oops</h1><p>Nothing here</p></div></body></html>`

	fp1 := FingerprintDOM(page)
	fp2 := FingerprintDOM(notFound)
	if fp1 != fp2 {
		t.Errorf("same template shell should fingerprint identically, distance %d", Distance(fp1, fp2))
	}
}

func TestFingerprintDOM_IgnoresScriptNoise(t *testing.T) {
	plain := `<html><head><title>T</title></head><body><div><p>Hi</p></div></body></html>`
	noisy := `<html><head><meta charset="utf-8"><script>track()</script><title>T</title><style>p{}</style></head><body><div><p>Hi</p></div><script>more()</script></body></html>`

	if FingerprintDOM(plain) != FingerprintDOM(noisy) {
		t.Error("script/style/meta tags should not affect the structural fingerprint")
	}
}

func TestFingerprintDOM_DifferentStructures(t *testing.T) {
	article := `<html><body><div><h1>Title</h1><p>Text</p><p>More text</p></div></body></html>`
	table := `<html><body><table><tr><td>A</td><td>B</td></tr><tr><td>C</td><td>D</td></tr></table></body></html>`

	if dist := Distance(FingerprintDOM(article), FingerprintDOM(table)); dist < 3 {
		t.Errorf("different structures produced distance %d", dist)
	}
}

func TestFingerprintDOM_EmptyAndPlainText(t *testing.T) {
	for _, in := range []string{"", "just some plain text with no tags"} {
		if fp := FingerprintDOM(in); fp != 0 {
			t.Errorf("FingerprintDOM(%q) = %064b, want 0", in, fp)
		}
	}
}

func TestFingerprintDOM_FewElements(t *testing.T) {
	// Two elements is below the shingle width; falls back to the raw sequence.
	if FingerprintDOM("<div><br/></div>") == 0 {
		t.Error("short documents should still produce a non-zero fingerprint")
	}
}

func TestElementSequence(t *testing.T) {
	doc := `<html><head><meta charset="utf-8"><title>Test</title><script>x</script></head><body><div><p>Hello</p></div></body></html>`
	got := elementSequence(doc)

	want := []string{"html", "head", "title", "body", "div", "p"}
	if len(got) != len(want) {
		t.Fatalf("got %d tags %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShingle(t *testing.T) {
	got := shingle([]string{"a", "b", "c", "d"}, 3)
	want := []string{"a_b_c", "b_c_d"}

	if len(got) != len(want) {
		t.Fatalf("got %d shingles %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("shingle[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShingle_TooFewTokens(t *testing.T) {
	if got := shingle([]string{"a", "b"}, 3); got != nil {
		t.Errorf("expected nil for fewer tokens than n, got %v", got)
	}
}

package engine

import (
	"strings"
	"testing"
)

func longBody(words int) string {
	return "<html><body><p>" + strings.Repeat("wedding weekend details ", words) + "</p></body></html>"
}

func TestClassify(t *testing.T) {
	c := NewClassifier(500, nil)

	tests := []struct {
		name       string
		status     int
		body       string
		wantBlock  bool
		wantReason string
	}{
		{
			name:       "403 regardless of body",
			status:     403,
			body:       longBody(100),
			wantBlock:  true,
			wantReason: ReasonStatus403,
		},
		{
			name:       "akamai denial",
			status:     200,
			body:       "<html><body>Access Denied. Reference&#32;&#35;18.2fa4d17.</body></html>",
			wantBlock:  true,
			wantReason: ReasonChallenge,
		},
		{
			name:       "cloudflare interstitial",
			status:     200,
			body:       "<html><body><h1>Just a moment...</h1>" + longBody(100) + "</body></html>",
			wantBlock:  true,
			wantReason: ReasonChallenge,
		},
		{
			name:       "marker match is case-insensitive",
			status:     200,
			body:       "<html><body>CHECKING YOUR BROWSER</body></html>",
			wantBlock:  true,
			wantReason: ReasonChallenge,
		},
		{
			name:       "empty SPA root",
			status:     200,
			body:       `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`,
			wantBlock:  true,
			wantReason: ReasonJSRequired,
		},
		{
			name:       "next.js shell",
			status:     200,
			body:       `<html><body><div id="__next"> </div></body></html>`,
			wantBlock:  true,
			wantReason: ReasonJSRequired,
		},
		{
			name:       "noscript warning",
			status:     200,
			body:       "<html><body><noscript>This site requires JavaScript to run.</noscript>" + longBody(100) + "</body></html>",
			wantBlock:  true,
			wantReason: ReasonJSRequired,
		},
		{
			name:       "thin content",
			status:     200,
			body:       "<html><body><p>hi</p></body></html>",
			wantBlock:  true,
			wantReason: ReasonThinContent,
		},
		{
			name:      "real content passes",
			status:    200,
			body:      longBody(100),
			wantBlock: false,
		},
		{
			name:      "script text does not count as content but page is judged on the rest",
			status:    200,
			body:      "<html><body><script>var x = 1;</script>" + strings.Repeat("<p>travel details for our guests </p>", 30) + "</body></html>",
			wantBlock: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, reason := c.Classify(tt.status, tt.body)
			if blocked != tt.wantBlock {
				t.Fatalf("Classify() blocked = %v, want %v (reason %q)", blocked, tt.wantBlock, reason)
			}
			if blocked && reason != tt.wantReason {
				t.Errorf("Classify() reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestClassify_ThinCheckDisabled(t *testing.T) {
	c := NewClassifier(0, nil)
	if blocked, reason := c.Classify(200, "<html><body><p>hi</p></body></html>"); blocked {
		t.Errorf("minContent 0 should disable the thin-content check, got reason %q", reason)
	}
}

func TestClassify_CustomMarkers(t *testing.T) {
	c := NewClassifier(0, []string{"our custom wall"})

	if blocked, _ := c.Classify(200, "<html><body>OUR CUSTOM WALL</body></html>"); !blocked {
		t.Error("custom marker not matched")
	}
	// Custom list replaces the defaults entirely.
	if blocked, reason := c.Classify(200, "<html><body>Just a moment...</body></html>"); blocked {
		t.Errorf("default marker matched despite custom list, reason %q", reason)
	}
}

func TestClassifyRendered(t *testing.T) {
	c := NewClassifier(500, nil)

	// A sparse single-page site is legitimate once JavaScript has run.
	if blocked, reason := c.ClassifyRendered(200, "<html><body><p>Emma & Liam</p></body></html>"); blocked {
		t.Errorf("rendered thin page classified blocked, reason %q", reason)
	}

	// Challenge markers still block; the browser can land on the wall too.
	if blocked, _ := c.ClassifyRendered(200, challengePage); !blocked {
		t.Error("rendered challenge page not classified blocked")
	}
	if blocked, _ := c.ClassifyRendered(403, longBody(100)); !blocked {
		t.Error("rendered 403 not classified blocked")
	}
}

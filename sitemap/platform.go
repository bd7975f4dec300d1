package sitemap

// Platform identifies the hosting service behind a wedding website. The
// platform decides known subpage paths and which acquisition tier the
// engine starts from.
type Platform string

const (
	PlatformTheKnot     Platform = "theknot"
	PlatformZola        Platform = "zola"
	PlatformJoy         Platform = "joy"
	PlatformMinted      Platform = "minted"
	PlatformWeddingWire Platform = "weddingwire"
	PlatformGeneric     Platform = "generic"
)

func (p Platform) String() string { return string(p) }

// defaultPlatformHosts maps host suffixes to platforms.
func defaultPlatformHosts() map[string]Platform {
	return map[string]Platform{
		"theknot.com":     PlatformTheKnot,
		"zola.com":        PlatformZola,
		"withjoy.com":     PlatformJoy,
		"minted.us":       PlatformMinted,
		"minted.com":      PlatformMinted,
		"weddingwire.com": PlatformWeddingWire,
	}
}

// defaultKnownPaths are the subpage path suffixes each platform generates
// for every couple site. They are probed relative to the main page URL
// when navigation discovery comes up empty (several platforms render
// their nav entirely client-side). Minted exposes no stable suffixes.
func defaultKnownPaths() map[Platform][]string {
	return map[Platform][]string{
		PlatformTheKnot:     {"travel", "q-a", "schedule", "registry", "rsvp", "party", "photos"},
		PlatformZola:        {"travel", "faq", "schedule", "registry"},
		PlatformJoy:         {"travel", "faq", "schedule", "registry", "story"},
		PlatformWeddingWire: {"events", "travel", "accommodations", "q-a", "schedule", "registry"},
	}
}

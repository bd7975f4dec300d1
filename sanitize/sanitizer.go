package sanitize

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/models"
)

// Sanitizer turns raw page HTML into the bounded text payload the extractor
// consumes. Extraction is per-kind (travel pages get the block scorer, FAQ
// pages get Q:/A: pairs, everything else readability), then cleaned line by
// line and capped.
type Sanitizer struct {
	cfg  config.SanitizeConfig
	conv *converter.Converter
	log  *slog.Logger
}

// New creates a Sanitizer with a shared markdown converter.
func New(cfg config.SanitizeConfig, logger *slog.Logger) *Sanitizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sanitizer{
		cfg:  cfg,
		conv: newMarkdownConverter(),
		log:  logger,
	}
}

// kindPriority orders page sections in the assembled payload. Travel pages
// carry the densest structured data and go first; the main page is mostly
// decorative on platform sites and goes last, where budget truncation bites
// first.
var kindPriority = map[models.PageKind]int{
	models.KindTravel:   0,
	models.KindFAQ:      1,
	models.KindSchedule: 2,
	models.KindOther:    3,
	models.KindRegistry: 4,
	models.KindMain:     5,
}

// Page extracts and cleans the text of one fetched page.
//
// Flow:
//  1. Strip noise selectors (scripts, consent chrome, overlays).
//  2. Per-kind extraction: travel scorer, FAQ pairs, or readability/prune.
//     Kind-specific extractors fall back to generic extraction when they
//     find nothing.
//  3. Line-level cleaning.
//  4. Truncate to the kind's rune cap.
func (s *Sanitizer) Page(kind models.PageKind, rawHTML, sourceURL string) models.PageContent {
	stripped := stripNoise(rawHTML)

	var text string
	limit := s.kindCap(kind)

	switch kind {
	case models.KindTravel:
		text = s.travelText(stripped, sourceURL)
		if text == "" {
			s.log.Debug("travel scorer found no blocks, falling back", "url", sourceURL)
			text = s.mainText(stripped, sourceURL)
		}
	case models.KindFAQ:
		text = extractFAQPairs(stripped)
		if text == "" {
			text = s.mainText(stripped, sourceURL)
		}
	default:
		text = s.mainText(stripped, sourceURL)
	}

	text = CleanLines(text)
	text = TruncateRunes(text, limit)

	return models.PageContent{
		URL:   sourceURL,
		Kind:  kind,
		Text:  text,
		Chars: utf8.RuneCountInString(text),
	}
}

func (s *Sanitizer) kindCap(kind models.PageKind) int {
	switch kind {
	case models.KindTravel:
		return s.cfg.TravelCap
	case models.KindFAQ:
		return s.cfg.FAQCap
	case models.KindMain:
		return s.cfg.MainCap
	default:
		return s.cfg.OtherCap
	}
}

// Assemble joins sanitized pages into one payload under the full-text
// budget. Pages are ordered by kind priority before truncation, never
// after, so the cut always falls on the lowest-value tail. The returned
// slice reports, per input page, whether any of its section survived.
func (s *Sanitizer) Assemble(pages []models.PageContent) (string, []bool) {
	order := make([]int, 0, len(pages))
	for i := range pages {
		order = append(order, i)
	}
	// Stable sort keeps discovery order within a kind.
	sort.SliceStable(order, func(i, j int) bool {
		return kindPriority[pages[order[i]].Kind] < kindPriority[pages[order[j]].Kind]
	})

	included := make([]bool, len(pages))
	var b strings.Builder
	runeTotal := 0

	for _, idx := range order {
		p := pages[idx]
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		if runeTotal >= s.cfg.FullTextBudget {
			break
		}
		section := fmt.Sprintf("=== %s PAGE ===\n%s\n\n", strings.ToUpper(string(p.Kind)), p.Text)
		b.WriteString(section)
		runeTotal += utf8.RuneCountInString(section)
		included[idx] = true
	}

	payload := TruncateRunes(b.String(), s.cfg.FullTextBudget)
	return strings.TrimRight(payload, "\n"), included
}

// Package reply merges a reverse-search match with catalog metadata into the
// outbound message payload: de-duplicated title list, genre summary, timestamp,
// similarity text and the decorated preview clip URL.
package reply

import (
	"fmt"
	"strings"

	"github.com/meeps-dev/anitrace/anilist"
	"github.com/meeps-dev/anitrace/tracemoe"
)

// Payload is consumed exactly once by the chat shell to produce one outbound message.
// Text is already escaped for Telegram Markdown.
type Payload struct {
	Text     string
	VideoURL string
	IsAdult  bool
}

// FormatTime renders a seconds offset as zero-padded HH:MM:SS. Fractional
// seconds are truncated, not rounded.
func FormatTime(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GenreSummary joins up to the first three genres with a visible separator,
// or "N/A" when the list is empty.
func GenreSummary(genres []string) string {
	if len(genres) == 0 {
		return "N/A"
	}
	if len(genres) > 3 {
		genres = genres[:3]
	}
	return strings.Join(genres, " • ")
}

// escape doubles the Markdown escape character so free text can't break out of
// a code span.
func escape(s string) string {
	return strings.ReplaceAll(s, "`", "``")
}

// dedupe removes exact duplicates preserving first-seen order, skipping blanks.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		seen := false
		for _, u := range out {
			if u == v {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return out
}

// Build formats the outbound payload. info may be a zero-value record when the
// catalog lookup failed; the reply then degrades to match data only.
func Build(match *tracemoe.Match, info *anilist.CatalogInfo, opts tracemoe.SearchOptions) Payload {
	// Fixed preference order: native, romaji, english.
	titles := dedupe([]string{info.Titles.Native, info.Titles.Romaji, info.Titles.English})

	var b strings.Builder
	for _, t := range titles {
		fmt.Fprintf(&b, "`%s`\n", escape(t))
	}
	if match.Episode != nil {
		fmt.Fprintf(&b, "Episode: `%d`\n", *match.Episode)
	}
	if match.SourceFilename != "" {
		fmt.Fprintf(&b, "`%s`\n", escape(match.SourceFilename))
	}
	fmt.Fprintf(&b, "`%s`\n", FormatTime(match.OffsetSeconds))
	fmt.Fprintf(&b, "`%.1f%% similarity`\n", match.Similarity*100)
	fmt.Fprintf(&b, "Genres: `%s`", escape(GenreSummary(info.Genres)))

	videoURL := ""
	if match.PreviewURL != "" {
		videoURL = match.PreviewURL + "&size=l"
		if opts.Mute {
			videoURL += "&mute"
		}
	}

	return Payload{
		Text:     b.String(),
		VideoURL: videoURL,
		IsAdult:  info.IsAdult,
	}
}

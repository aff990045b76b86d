package reply

import (
	"strings"
	"testing"

	"github.com/meeps-dev/anitrace/anilist"
	"github.com/meeps-dev/anitrace/tracemoe"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{3661, "01:01:01"},
		{59.9, "00:00:59"}, // truncates, never rounds
		{725.0, "00:12:05"},
		{86399, "23:59:59"},
		{7200.5, "02:00:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.seconds); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestGenreSummary(t *testing.T) {
	tests := []struct {
		name   string
		genres []string
		want   string
	}{
		{"empty", nil, "N/A"},
		{"single", []string{"Action"}, "Action"},
		{"two", []string{"Action", "Drama"}, "Action • Drama"},
		{"capped at three", []string{"Action", "Drama", "Comedy", "Horror"}, "Action • Drama • Comedy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenreSummary(tt.genres); got != tt.want {
				t.Errorf("GenreSummary(%v) = %q, want %q", tt.genres, got, tt.want)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"duplicates removed preserving order", []string{"A", "B", "A"}, []string{"A", "B"}},
		{"blanks skipped", []string{"", "A", ""}, []string{"A"}},
		{"all unique", []string{"C", "B", "A"}, []string{"C", "B", "A"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dedupe(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("dedupe(%v) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("dedupe(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuild(t *testing.T) {
	episode := int64(12)
	match := &tracemoe.Match{
		CatalogID:      21,
		Episode:        &episode,
		OffsetSeconds:  725.0,
		Similarity:     0.95,
		PreviewURL:     "http://x/v.mp4",
		SourceFilename: "foo-12.mkv",
	}
	info := &anilist.CatalogInfo{
		Titles: anilist.Titles{Romaji: "Foo"},
		Genres: []string{"Action", "Drama"},
	}

	p := Build(match, info, tracemoe.SearchOptions{Mute: true})

	if p.VideoURL != "http://x/v.mp4&size=l&mute" {
		t.Errorf("VideoURL = %q, want http://x/v.mp4&size=l&mute", p.VideoURL)
	}
	for _, want := range []string{"Foo", "12", "00:12:05", "95.0%", "Action • Drama", "foo-12.mkv"} {
		if !strings.Contains(p.Text, want) {
			t.Errorf("Text missing %q:\n%s", want, p.Text)
		}
	}
	if p.IsAdult {
		t.Error("IsAdult = true, want false")
	}
}

func TestBuildNoMute(t *testing.T) {
	match := &tracemoe.Match{PreviewURL: "http://x/v.mp4", Similarity: 0.8234}
	p := Build(match, &anilist.CatalogInfo{}, tracemoe.SearchOptions{})
	if p.VideoURL != "http://x/v.mp4&size=l" {
		t.Errorf("VideoURL = %q, want http://x/v.mp4&size=l", p.VideoURL)
	}
	if !strings.Contains(p.Text, "82.3%") {
		t.Errorf("Text missing 82.3%% similarity: %s", p.Text)
	}
}

func TestBuildTitlePreferenceOrderAndDedup(t *testing.T) {
	match := &tracemoe.Match{Similarity: 0.5}
	info := &anilist.CatalogInfo{
		Titles: anilist.Titles{Native: "ナルト", Romaji: "Naruto", English: "Naruto"},
	}
	p := Build(match, info, tracemoe.SearchOptions{})

	nativeIdx := strings.Index(p.Text, "ナルト")
	romajiIdx := strings.Index(p.Text, "Naruto")
	if nativeIdx < 0 || romajiIdx < 0 {
		t.Fatalf("titles missing from text:\n%s", p.Text)
	}
	if nativeIdx > romajiIdx {
		t.Error("native title does not precede romaji")
	}
	if strings.Count(p.Text, "Naruto") != 1 {
		t.Errorf("duplicate title not removed:\n%s", p.Text)
	}
}

func TestBuildDegradedMetadata(t *testing.T) {
	match := &tracemoe.Match{
		OffsetSeconds:  59.9,
		Similarity:     0.7,
		SourceFilename: "ep.mkv",
	}
	p := Build(match, &anilist.CatalogInfo{}, tracemoe.SearchOptions{})

	if !strings.Contains(p.Text, "00:00:59") {
		t.Errorf("Text missing truncated timestamp: %s", p.Text)
	}
	if !strings.Contains(p.Text, "N/A") {
		t.Errorf("Text missing N/A genre summary: %s", p.Text)
	}
	if p.VideoURL != "" {
		t.Errorf("VideoURL = %q, want empty when no preview", p.VideoURL)
	}
}

func TestBuildEscapesMarkup(t *testing.T) {
	match := &tracemoe.Match{SourceFilename: "tricky`name.mkv", Similarity: 0.5}
	info := &anilist.CatalogInfo{Titles: anilist.Titles{Romaji: "back`tick"}}
	p := Build(match, info, tracemoe.SearchOptions{})

	if !strings.Contains(p.Text, "tricky``name.mkv") {
		t.Errorf("filename backtick not escaped:\n%s", p.Text)
	}
	if !strings.Contains(p.Text, "back``tick") {
		t.Errorf("title backtick not escaped:\n%s", p.Text)
	}
}

package ingest

import (
	"testing"
	"time"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

func TestSplitFieldNoSeparator(t *testing.T) {
	got := splitField("Solo Artist", "")
	if first, _ := got.First(); got.Len() != 1 || first != "Solo Artist" {
		t.Fatalf("got %v, want a single value", got)
	}
}

func TestSplitFieldSplitsAndTrims(t *testing.T) {
	got := splitField("Artist One; Artist Two ; Artist Three", ";")

	want := []string{"Artist One", "Artist Two", "Artist Three"}

	values := got.Values()
	if len(values) != len(want) {
		t.Fatalf("got %v, want %v", values, want)
	}

	for i, v := range want {
		if values[i] != v {
			t.Errorf("value %d = %q, want %q", i, values[i], v)
		}
	}
}

func TestSplitFieldEmpty(t *testing.T) {
	got := splitField("", ";")
	if !got.IsNone() {
		t.Fatalf("got %v, want None", got)
	}
}

func TestUnionSetDedupsAcrossBothSides(t *testing.T) {
	a := mecomp.Many([]string{"Rock", "Pop"})
	b := mecomp.Many([]string{"Pop", "Jazz"})

	got := unionSet(a, b).Values()
	want := []string{"Rock", "Pop", "Jazz"}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	for i, v := range want {
		if got[i] != v {
			t.Errorf("value %d = %q, want %q", i, got[i], v)
		}
	}
}

func TestMergeSongUnionsSetsAndPrefersScannedScalars(t *testing.T) {
	existing := mecomp.Song{
		ID:     mecomp.NewThing(mecomp.TableSong),
		Title:  "Old Title",
		Artist: mecomp.One("Artist A"),
		Genre:  mecomp.One("Rock"),
	}

	scanned := mecomp.Song{
		Title:  "New Title",
		Artist: mecomp.One("Artist B"),
		Genre:  mecomp.One("Rock"),
	}

	merged := mergeSong(existing, scanned)

	if merged.ID != existing.ID {
		t.Errorf("merge must preserve the existing id")
	}

	if merged.Title != "New Title" {
		t.Errorf("title = %q, want scanned value to win", merged.Title)
	}

	artists := merged.Artist.Values()
	if len(artists) != 2 {
		t.Errorf("artists = %v, want both sides unioned", artists)
	}
}

func TestMergeSongKeepsExistingScalarWhenScannedIsZero(t *testing.T) {
	track := 3
	existing := mecomp.Song{Track: &track, Duration: 5 * time.Minute}
	scanned := mecomp.Song{}

	merged := mergeSong(existing, scanned)

	if merged.Track == nil || *merged.Track != 3 {
		t.Errorf("track = %v, want existing value preserved", merged.Track)
	}

	if merged.Duration != 5*time.Minute {
		t.Errorf("duration = %v, want existing value preserved", merged.Duration)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1.5":      1500 * time.Millisecond,
		"":         0,
		"not-a-number": 0,
	}

	for raw, want := range cases {
		if got := parseDuration(raw); got != want {
			t.Errorf("parseDuration(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParseYear(t *testing.T) {
	if got := parseYear("2021-05-01"); got != 2021 {
		t.Errorf("got %d, want 2021", got)
	}

	if got := parseYear("21"); got != 0 {
		t.Errorf("got %d, want 0 for a too-short string", got)
	}
}

func TestParseIntTagHandlesTrackOfTotal(t *testing.T) {
	got := parseIntTag("3/12")
	if got == nil || *got != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

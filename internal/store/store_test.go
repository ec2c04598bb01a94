package store

import (
	"context"
	"testing"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open("sqlite://file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}

	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return st
}

func newSong(t *testing.T, path, title string) mecomp.Song {
	t.Helper()

	return mecomp.Song{
		ID:         mecomp.NewThing(mecomp.TableSong),
		Title:      title,
		Artist:     mecomp.One("Test Artist"),
		Album:      "Test Album",
		Genre:      mecomp.One("Test Genre"),
		SampleRate: 44100,
		Extension:  "flac",
		Path:       path,
	}
}

func TestUpsertSongCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	song := newSong(t, "/music/a.flac", "Original Title")

	created, err := st.UpsertSong(ctx, song)
	if err != nil {
		t.Fatalf("creating song: %v", err)
	}

	song.ID = created.ID
	song.Title = "Updated Title"

	updated, err := st.UpsertSong(ctx, song)
	if err != nil {
		t.Fatalf("updating song: %v", err)
	}

	if updated.ID != created.ID {
		t.Fatalf("update changed id: got %s, want %s", updated.ID, created.ID)
	}

	if updated.Title != "Updated Title" {
		t.Fatalf("title not updated: got %q", updated.Title)
	}
}

func TestGetSongByPathNotFound(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.GetSongByPath(ctx, "/nowhere.flac")
	if err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestRelateAlbumSongIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	song, err := st.UpsertSong(ctx, newSong(t, "/music/b.flac", "B"))
	if err != nil {
		t.Fatalf("creating song: %v", err)
	}

	albumID, err := st.EnsureAlbum(ctx, "Test Album", mecomp.One("Test Artist"), nil, mecomp.One("Test Genre"))
	if err != nil {
		t.Fatalf("ensuring album: %v", err)
	}

	if err := st.RelateAlbumSong(ctx, albumID, song.ID); err != nil {
		t.Fatalf("first relate: %v", err)
	}

	if err := st.RelateAlbumSong(ctx, albumID, song.ID); err != nil {
		t.Fatalf("second relate should be a no-op, got: %v", err)
	}

	songs, err := st.AlbumSongs(ctx, albumID)
	if err != nil {
		t.Fatalf("listing album songs: %v", err)
	}

	if len(songs) != 1 {
		t.Fatalf("got %d songs, want 1 (relate must not duplicate)", len(songs))
	}
}

func TestPlaylistAddAndRemove(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	song, err := st.UpsertSong(ctx, newSong(t, "/music/c.flac", "C"))
	if err != nil {
		t.Fatalf("creating song: %v", err)
	}

	playlistID, err := st.CreatePlaylist(ctx, "Favorites")
	if err != nil {
		t.Fatalf("creating playlist: %v", err)
	}

	if err := st.AddToPlaylist(ctx, playlistID, []mecomp.Thing{song.ID}); err != nil {
		t.Fatalf("adding to playlist: %v", err)
	}

	songs, err := st.PlaylistSongs(ctx, playlistID)
	if err != nil {
		t.Fatalf("listing playlist songs: %v", err)
	}

	if len(songs) != 1 || songs[0].ID != song.ID {
		t.Fatalf("got %v, want [%s]", songs, song.ID)
	}

	if err := st.RemoveFromPlaylist(ctx, playlistID, []mecomp.Thing{song.ID}); err != nil {
		t.Fatalf("removing from playlist: %v", err)
	}

	songs, err = st.PlaylistSongs(ctx, playlistID)
	if err != nil {
		t.Fatalf("listing playlist songs after remove: %v", err)
	}

	if len(songs) != 0 {
		t.Fatalf("got %d songs after remove, want 0", len(songs))
	}
}

func TestUpsertAnalysisAndKNearest(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	near, err := st.UpsertSong(ctx, newSong(t, "/music/near.flac", "Near"))
	if err != nil {
		t.Fatalf("creating near song: %v", err)
	}

	far, err := st.UpsertSong(ctx, newSong(t, "/music/far.flac", "Far"))
	if err != nil {
		t.Fatalf("creating far song: %v", err)
	}

	centroid := make([]float64, mecomp.AnalysisDimension)

	nearFeatures := make([]float64, mecomp.AnalysisDimension)
	for i := range nearFeatures {
		nearFeatures[i] = 0.01
	}

	farFeatures := make([]float64, mecomp.AnalysisDimension)
	for i := range farFeatures {
		farFeatures[i] = 100
	}

	if _, err := st.UpsertAnalysis(ctx, near.ID, nearFeatures); err != nil {
		t.Fatalf("upserting near analysis: %v", err)
	}

	if _, err := st.UpsertAnalysis(ctx, far.ID, farFeatures); err != nil {
		t.Fatalf("upserting far analysis: %v", err)
	}

	results, err := st.KNearest(ctx, centroid, 1, nil)
	if err != nil {
		t.Fatalf("KNearest: %v", err)
	}

	if len(results) != 1 || results[0].ID != near.ID {
		t.Fatalf("got %v, want the near song first", results)
	}
}

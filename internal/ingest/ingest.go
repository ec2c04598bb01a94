// Package ingest implements C6: scanning library roots for audio files,
// extracting tag metadata via ffprobe, and idempotently upserting Songs
// plus their Album/Artist relations (spec.md §4.6). Full decode + descriptor
// + embedding analysis is a separate, heavier pass -- see Analyzer.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/config"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/decode"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/eventbus"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/flight"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/store"
)

// audioExtensions is the allowlist of file extensions the scanner reads
// tags from; everything else is ignored without being counted as failed.
var audioExtensions = map[string]bool{ //nolint:gochecknoglobals
	".mp3": true, ".flac": true, ".wav": true, ".ogg": true,
	".m4a": true, ".aac": true, ".opus": true, ".wma": true,
}

// Summary is the scan result spec.md §4.6 requires: counts, never a hard
// failure, for partial-failure tolerance across an entire library.
type Summary struct {
	Added   int
	Updated int
	Skipped int
	Failed  int
}

// Scanner is C6's metadata half: filesystem walk -> ffprobe tag read ->
// conflict-resolved upsert -> Album/Artist relation maintenance.
type Scanner struct {
	Store    *store.Store
	Bus      *eventbus.Bus
	Flags    *flight.Flags
	Settings config.DaemonSettings
}

func NewScanner(st *store.Store, bus *eventbus.Bus, flags *flight.Flags, settings config.DaemonSettings) *Scanner {
	return &Scanner{Store: st, Bus: bus, Flags: flags, Settings: settings}
}

// Scan enumerates every audio file under roots and upserts it. Per-file
// errors are logged and counted as Failed rather than aborting the scan
// (spec.md §4.6's partial-failure policy); a concurrent Scan call observes
// flight.ErrRescanInProgress and returns immediately.
func (s *Scanner) Scan(ctx context.Context, roots []string) (Summary, error) {
	release, err := s.Flags.EnterRescan()
	if err != nil {
		return Summary{}, err
	}
	defer release()

	paths, err := enumerate(roots)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu      sync.Mutex
		summary Summary
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))

	for _, path := range paths {
		path := path

		group.Go(func() error {
			outcome, err := s.scanOne(groupCtx, path)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				slog.Warn("ingest: scan failed", "path", path, "error", err)
				summary.Failed++

				return nil
			}

			switch outcome {
			case outcomeAdded:
				summary.Added++
			case outcomeUpdated:
				summary.Updated++
			case outcomeSkipped:
				summary.Skipped++
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrScan, err)
	}

	if err := s.Bus.Publish(eventbus.LibraryRescanFinished, summary); err != nil {
		slog.Warn("ingest: failed to publish rescan event", "error", err)
	}

	return summary, nil
}

var ErrScan = errors.New("ingest: scan failed")

type outcome int

const (
	outcomeAdded outcome = iota
	outcomeUpdated
	outcomeSkipped
)

func enumerate(roots []string) ([]string, error) {
	var paths []string

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("ingest: walk error", "path", path, "error", err)

				return nil // per-file errors during walk are logged, not fatal
			}

			if d.IsDir() {
				return nil
			}

			if audioExtensions[strings.ToLower(filepath.Ext(path))] {
				paths = append(paths, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: walking %s: %w", ErrScan, root, err)
		}
	}

	return paths, nil
}

// scanOne reads tags for path and upserts the resulting Song plus its
// Album/Artist relations, applying s.Settings.ConflictResolution against
// whatever Song (if any) was already on record for this path.
func (s *Scanner) scanOne(ctx context.Context, path string) (outcome, error) {
	canonical, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("%w: canonicalizing %s: %w", ErrScan, path, err)
	}

	canonical = filepath.Clean(canonical)

	probeResult, err := decode.Probe(ctx, canonical)
	if err != nil {
		return 0, err
	}

	stream, err := decode.FindAudioStream(probeResult, 0)
	if err != nil {
		return 0, err
	}

	scanned := songFromTags(canonical, probeResult, stream, s.Settings)

	existing, err := s.Store.GetSongByPath(ctx, canonical)

	var (
		resolved outcome
		toWrite  mecomp.Song
	)

	switch {
	case errors.Is(err, mecomp.ErrNotFound):
		toWrite = scanned
		resolved = outcomeAdded

	case err != nil:
		return 0, err

	default:
		switch s.Settings.ConflictResolution {
		case config.ConflictSkip:
			return outcomeSkipped, nil
		case config.ConflictOverwrite:
			toWrite = scanned
			toWrite.ID = existing.ID
		default: // Merge: union set-valued fields, prefer present scalar fields
			toWrite = mergeSong(existing, scanned)
		}

		resolved = outcomeUpdated
	}

	saved, err := s.Store.UpsertSong(ctx, toWrite)
	if err != nil {
		return 0, err
	}

	if err := s.relateSong(ctx, saved); err != nil {
		return 0, err
	}

	return resolved, nil
}

// relateSong ensures the Album/Artist entities and every edge spec.md
// §4.6 requires exist for saved.
func (s *Scanner) relateSong(ctx context.Context, song mecomp.Song) error {
	albumArtists := song.AlbumArtist
	if albumArtists.IsNone() {
		albumArtists = song.Artist
	}

	albumID, err := s.Store.EnsureAlbum(ctx, song.Album, albumArtists, song.ReleaseYear, song.Genre)
	if err != nil {
		return err
	}

	if err := s.Store.RelateAlbumSong(ctx, albumID, song.ID); err != nil {
		return err
	}

	for _, name := range song.Artist.Values() {
		artistID, err := s.Store.EnsureArtist(ctx, name)
		if err != nil {
			return err
		}

		if err := s.Store.RelateArtistSong(ctx, artistID, song.ID); err != nil {
			return err
		}

		if err := s.Store.RelateArtistAlbum(ctx, artistID, albumID); err != nil {
			return err
		}
	}

	return nil
}

// songFromTags builds an unsaved Song from ffprobe's format tags and
// stream layout, splitting multi-valued artist/genre fields by the
// configured separators (spec.md §4.6's "Splitting").
func songFromTags(path string, probe *decode.ProbeResult, stream *decode.ProbeStream, settings config.DaemonSettings) mecomp.Song {
	tags := lowerKeys(probe.Format.Tags)

	sampleRate, _ := strconv.Atoi(stream.SampleRate)

	var releaseYear *int
	if y := parseYear(tags["date"]); y != 0 {
		releaseYear = &y
	}

	return mecomp.Song{
		ID:          mecomp.NewThing(mecomp.TableSong),
		Title:       firstNonEmpty(tags["title"], filepath.Base(path)),
		Artist:      splitField(tags["artist"], settings.ArtistSeparator),
		AlbumArtist: splitField(tags["album_artist"], settings.ArtistSeparator),
		Album:       tags["album"],
		Genre:       splitField(tags["genre"], settings.GenreSeparator),
		Duration:    parseDuration(probe.Format.Duration),
		SampleRate:  sampleRate,
		Track:       parseIntTag(tags["track"]),
		Disc:        parseIntTag(tags["disc"]),
		ReleaseYear: releaseYear,
		Extension:   strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Path:        path,
	}
}

// mergeSong implements the Merge conflict-resolution policy: union on add
// for set-valued fields, no removals -- spec.md §9's recommended
// interpretation of the open question on removal semantics -- and prefer
// whichever side has a present (non-zero) scalar value, favoring the
// freshly-scanned tags when both sides have one.
func mergeSong(existing, scanned mecomp.Song) mecomp.Song {
	merged := existing

	merged.Artist = unionSet(existing.Artist, scanned.Artist)
	merged.AlbumArtist = unionSet(existing.AlbumArtist, scanned.AlbumArtist)
	merged.Genre = unionSet(existing.Genre, scanned.Genre)

	if scanned.Title != "" {
		merged.Title = scanned.Title
	}

	if scanned.Album != "" {
		merged.Album = scanned.Album
	}

	if scanned.Duration > 0 {
		merged.Duration = scanned.Duration
	}

	if scanned.SampleRate > 0 {
		merged.SampleRate = scanned.SampleRate
	}

	if scanned.Track != nil {
		merged.Track = scanned.Track
	}

	if scanned.Disc != nil {
		merged.Disc = scanned.Disc
	}

	if scanned.ReleaseYear != nil {
		merged.ReleaseYear = scanned.ReleaseYear
	}

	return merged
}

func unionSet(a, b mecomp.OneOrMany[string]) mecomp.OneOrMany[string] {
	seen := map[string]bool{}

	var out []string

	for _, v := range a.Values() {
		if !seen[v] {
			seen[v] = true

			out = append(out, v)
		}
	}

	for _, v := range b.Values() {
		if !seen[v] {
			seen[v] = true

			out = append(out, v)
		}
	}

	return mecomp.Many(out)
}

func splitField(raw, separator string) mecomp.OneOrMany[string] {
	if raw == "" {
		return mecomp.None[string]()
	}

	if separator == "" {
		return mecomp.One(raw)
	}

	parts := strings.Split(raw, separator)
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return mecomp.Many(out)
}

func lowerKeys(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[strings.ToLower(k)] = v
	}

	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}

func parseIntTag(raw string) *int {
	if raw == "" {
		return nil
	}
	// Tags like "3/12" (track/total) only need the leading number.
	if idx := strings.IndexByte(raw, '/'); idx >= 0 {
		raw = raw[:idx]
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}

	return &n
}

// parseDuration parses ffprobe's format.duration field, a decimal seconds
// string, into a time.Duration.
func parseDuration(raw string) time.Duration {
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

func parseYear(raw string) int {
	if len(raw) < 4 {
		return 0
	}

	year, err := strconv.Atoi(raw[:4])
	if err != nil {
		return 0
	}

	return year
}

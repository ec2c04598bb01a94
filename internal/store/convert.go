package store

import (
	"time"

	"gorm.io/datatypes"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

func oneOrManyToJSON(o mecomp.OneOrMany[string]) datatypes.JSONSlice[string] {
	return datatypes.NewJSONSlice(o.Values())
}

func jsonToOneOrMany(j datatypes.JSONSlice[string]) mecomp.OneOrMany[string] {
	return mecomp.Many([]string(j))
}

func songToRow(s mecomp.Song) songRow {
	var analysisID *string

	if s.AnalysisID != nil {
		id := thingToID(*s.AnalysisID)
		analysisID = &id
	}

	return songRow{
		ID:          thingToID(s.ID),
		Title:       s.Title,
		Artist:      oneOrManyToJSON(s.Artist),
		AlbumArtist: oneOrManyToJSON(s.AlbumArtist),
		Album:       s.Album,
		Genre:       oneOrManyToJSON(s.Genre),
		DurationNS:  int64(s.Duration),
		SampleRate:  s.SampleRate,
		Track:       s.Track,
		Disc:        s.Disc,
		ReleaseYear: s.ReleaseYear,
		Extension:   s.Extension,
		Path:        s.Path,
		AnalysisID:  analysisID,
	}
}

func rowToSong(r songRow) (mecomp.Song, error) {
	id, err := idToThing(mecomp.TableSong, r.ID)
	if err != nil {
		return mecomp.Song{}, err
	}

	var analysisID *mecomp.Thing

	if r.AnalysisID != nil {
		a, err := idToThing(mecomp.TableAnalysis, *r.AnalysisID)
		if err != nil {
			return mecomp.Song{}, err
		}

		analysisID = &a
	}

	return mecomp.Song{
		ID:          id,
		Title:       r.Title,
		Artist:      jsonToOneOrMany(r.Artist),
		AlbumArtist: jsonToOneOrMany(r.AlbumArtist),
		Album:       r.Album,
		Genre:       jsonToOneOrMany(r.Genre),
		Duration:    time.Duration(r.DurationNS),
		SampleRate:  r.SampleRate,
		Track:       r.Track,
		Disc:        r.Disc,
		ReleaseYear: r.ReleaseYear,
		Extension:   r.Extension,
		Path:        r.Path,
		AnalysisID:  analysisID,
	}, nil
}

func rowToAlbum(r albumRow, runtime time.Duration, songCount, discCount int) (mecomp.Album, error) {
	id, err := idToThing(mecomp.TableAlbum, r.ID)
	if err != nil {
		return mecomp.Album{}, err
	}

	return mecomp.Album{
		ID:          id,
		Title:       r.Title,
		Artist:      jsonToOneOrMany(r.Artist),
		ReleaseYear: r.ReleaseYear,
		Runtime:     runtime,
		SongCount:   songCount,
		DiscCount:   discCount,
		Genre:       jsonToOneOrMany(r.Genre),
	}, nil
}

func rowToArtist(r artistRow, runtime time.Duration, albumCount, songCount int) (mecomp.Artist, error) {
	id, err := idToThing(mecomp.TableArtist, r.ID)
	if err != nil {
		return mecomp.Artist{}, err
	}

	return mecomp.Artist{ID: id, Name: r.Name, Runtime: runtime, AlbumCount: albumCount, SongCount: songCount}, nil
}

func rowToPlaylist(r playlistRow, runtime time.Duration, songCount int) (mecomp.Playlist, error) {
	id, err := idToThing(mecomp.TablePlaylist, r.ID)
	if err != nil {
		return mecomp.Playlist{}, err
	}

	return mecomp.Playlist{ID: id, Name: r.Name, Runtime: runtime, SongCount: songCount}, nil
}

func rowToCollection(r collectionRow, runtime time.Duration, songCount int) (mecomp.Collection, error) {
	id, err := idToThing(mecomp.TableCollection, r.ID)
	if err != nil {
		return mecomp.Collection{}, err
	}

	return mecomp.Collection{ID: id, Name: r.Name, Runtime: runtime, SongCount: songCount}, nil
}

func rowToAnalysis(r analysisRow) (mecomp.Analysis, error) {
	id, err := idToThing(mecomp.TableAnalysis, r.ID)
	if err != nil {
		return mecomp.Analysis{}, err
	}

	return mecomp.Analysis{ID: id, Features: []float64(r.Features)}, nil
}

// Package config loads DaemonSettings the way Bparsons0904-waugzee's
// server/config package loads its Config: viper.AutomaticEnv plus explicit
// BindEnv calls per field, an optional .env fallback, and a mapstructure
// struct for decode.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConflictResolution is the ingestor's policy for reconciling a rescanned
// file against the Song already on record for its path.
type ConflictResolution string

const (
	ConflictMerge     ConflictResolution = "merge"
	ConflictOverwrite ConflictResolution = "overwrite"
	ConflictSkip      ConflictResolution = "skip"
)

// DaemonSettings configures the library, store and clustering subsystems.
// Every field binds to an environment variable prefixed MECOMP_ (e.g.
// MECOMP_LIBRARY_PATHS, MECOMP_DB_PATH), mirroring the original daemon's
// `config` crate + MECOMP_ prefix convention.
type DaemonSettings struct {
	LibraryPaths       []string           `mapstructure:"LIBRARY_PATHS"`
	ArtistSeparator    string             `mapstructure:"ARTIST_SEPARATOR"`
	GenreSeparator     string             `mapstructure:"GENRE_SEPARATOR"`
	ConflictResolution ConflictResolution `mapstructure:"CONFLICT_RESOLUTION"`
	DBPath             string             `mapstructure:"DB_PATH"`
	ONNXModelPath      string             `mapstructure:"ONNX_MODEL_PATH"`
	MaxClusters        int                `mapstructure:"MAX_CLUSTERS"`
	GapReferenceSets   int                `mapstructure:"GAP_REFERENCE_SETS"`
	AnalysisTimeout    time.Duration      `mapstructure:"ANALYSIS_TIMEOUT"`
}

const envPrefix = "MECOMP"

var fields = []string{ //nolint:gochecknoglobals
	"LIBRARY_PATHS", "ARTIST_SEPARATOR", "GENRE_SEPARATOR", "CONFLICT_RESOLUTION",
	"DB_PATH", "ONNX_MODEL_PATH", "MAX_CLUSTERS", "GAP_REFERENCE_SETS", "ANALYSIS_TIMEOUT",
}

// Default returns the settings a fresh install starts with: a single
// library root under the user's home directory and a db path under
// ~/.local/share/mecomp,
// matching the daemon's documented ~/Music/ + <data-dir>/mecomp_db default.
func Default() DaemonSettings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return DaemonSettings{
		LibraryPaths:       []string{expandTilde("~/Music")},
		ArtistSeparator:    "",
		GenreSeparator:     "",
		ConflictResolution: ConflictMerge,
		DBPath:             expandTildeFrom(home, "~/.local/share/mecomp/mecomp_db"),
		MaxClusters:        10,
		GapReferenceSets:   10,
		AnalysisTimeout:    5 * time.Minute,
	}
}

// Load reads DaemonSettings from the environment (MECOMP_ prefixed),
// falling back to a .env file and finally to Default for anything unset.
func Load() (DaemonSettings, error) {
	settings := Default()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for _, f := range fields {
		if err := v.BindEnv(f); err != nil {
			slog.Warn("config: failed to bind env var", "field", f, "error", err)
		}
	}

	if !v.IsSet("DB_PATH") {
		v.SetConfigFile(".env")
		v.SetConfigType("env")

		if err := v.ReadInConfig(); err != nil {
			slog.Debug("config: no .env file found", "error", err)
		}
	}

	if raw := v.GetString("LIBRARY_PATHS"); raw != "" {
		settings.LibraryPaths = splitPaths(raw)
	}

	if v := v.GetString("ARTIST_SEPARATOR"); v != "" {
		settings.ArtistSeparator = v
	}

	if v := v.GetString("GENRE_SEPARATOR"); v != "" {
		settings.GenreSeparator = v
	}

	if cr := v.GetString("CONFLICT_RESOLUTION"); cr != "" {
		settings.ConflictResolution = ConflictResolution(strings.ToLower(cr))
	}

	if p := v.GetString("DB_PATH"); p != "" {
		settings.DBPath = expandTilde(p)
	}

	if p := v.GetString("ONNX_MODEL_PATH"); p != "" {
		settings.ONNXModelPath = expandTilde(p)
	}

	if k := v.GetInt("MAX_CLUSTERS"); k > 0 {
		settings.MaxClusters = k
	}

	if g := v.GetInt("GAP_REFERENCE_SETS"); g > 0 {
		settings.GapReferenceSets = g
	}

	if d := v.GetDuration("ANALYSIS_TIMEOUT"); d > 0 {
		settings.AnalysisTimeout = d
	}

	if err := settings.Validate(); err != nil {
		return DaemonSettings{}, fmt.Errorf("config: %w", err)
	}

	return settings, nil
}

func (s DaemonSettings) Validate() error {
	if len(s.LibraryPaths) == 0 {
		return fmt.Errorf("%w: at least one library path is required", ErrInvalidConfig)
	}

	if s.DBPath == "" {
		return fmt.Errorf("%w: db path is required", ErrInvalidConfig)
	}

	if s.MaxClusters < 1 {
		return fmt.Errorf("%w: max clusters must be >= 1", ErrInvalidConfig)
	}

	return nil
}

func splitPaths(raw string) []string {
	parts := strings.Split(raw, string(os.PathListSeparator))
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = expandTilde(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

// expandTilde replaces a leading ~ with the current user's home directory.
// This is the only ambient-config helper left on the standard library: no
// example or manifest in the pack imports a tilde-expansion dependency for
// anything beyond what os.UserHomeDir already does in two lines.
func expandTilde(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return expandTildeFrom(home, path)
}

func expandTildeFrom(home, path string) string {
	if path == "~" {
		return home
	}

	if strings.HasPrefix(path, "~/") {
		return home + path[1:]
	}

	return path
}

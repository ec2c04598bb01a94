package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/decode"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors"
)

const outputFile = "mecomp-report.jsonl"

var (
	errNotDirectory = errors.New("not a directory")
	errNoAudioFiles = errors.New("no audio files found")
)

var reportExtensions = map[string]bool{ //nolint:gochecknoglobals
	".mp3": true, ".flac": true, ".wav": true, ".ogg": true,
	".m4a": true, ".aac": true, ".opus": true, ".wma": true,
}

// Record is one file's descriptor report: the same per-track features
// internal/analysis folds into an Analysis vector, plus the timings that
// let a caller spot slow files without touching the store.
type Record struct {
	File        string              `json:"file"`
	Error       string              `json:"error,omitempty"`
	SampleRate  int                 `json:"sample_rate,omitempty"`
	Descriptors *descriptors.Output `json:"descriptors,omitempty"`
	DecodeMs    int64               `json:"decode_ms,omitempty"`
	AnalyzeMs   int64               `json:"analyze_ms,omitempty"`
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a music folder and write a mecomp-report JSONL file",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   int64(runtime.NumCPU()),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument: folder path")
			}

			workers := int(cmd.Int("workers"))
			if workers < 1 {
				workers = 1
			}

			return runReport(ctx, cmd.Args().First(), workers)
		},
	}
}

func runReport(ctx context.Context, folder string, workers int) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	files, err := collectAudioFiles(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoAudioFiles)
	}

	fmt.Fprintf(os.Stderr, "Found %d files to analyze (%d workers)\n", len(files), workers)

	startTime := time.Now()
	results := make([]Record, len(files))

	var progress atomic.Int64

	sem := make(chan struct{}, workers)

	var waitGroup sync.WaitGroup

	decoder := decode.NewFFmpegDecoder()

	for idx, filePath := range files {
		waitGroup.Add(1)

		go func(idx int, filePath string) {
			defer waitGroup.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = processFile(ctx, decoder, filePath)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)
		}(idx, filePath)
	}

	waitGroup.Wait()

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	for idx := range results {
		record := &results[idx]
		if record.Error != "" {
			failed++
		}

		if err := enc.Encode(record); err != nil {
			fmt.Fprintf(os.Stderr, "writing record for %s: %v\n", files[idx], err)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nDone: %d files in %s (%d failed)\n", len(files), elapsed.Truncate(time.Millisecond), failed)
	fmt.Fprintf(os.Stderr, "Report written to %s\n\n", outputFile)

	return runDigest(outputFile)
}

func processFile(ctx context.Context, decoder decode.Decoder, filePath string) Record {
	decodeStart := time.Now()

	audio, err := decoder.Decode(ctx, filePath)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("decode failed: %v", err)}
	}

	decodeMs := time.Since(decodeStart).Milliseconds()

	analyzeStart := time.Now()
	descs := descriptors.Run(audio.SampleRate, audio.Samples)
	analyzeMs := time.Since(analyzeStart).Milliseconds()

	return Record{
		File:        filePath,
		SampleRate:  audio.SampleRate,
		Descriptors: &descs,
		DecodeMs:    decodeMs,
		AnalyzeMs:   analyzeMs,
	}
}

func collectAudioFiles(folder string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if reportExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

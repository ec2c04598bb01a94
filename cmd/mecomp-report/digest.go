package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Summarize a mecomp-report JSONL file",
		ArgsUsage: "<report.jsonl>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("expected exactly one argument: path to report.jsonl")
			}

			return runDigest(cmd.Args().First())
		},
	}
}

func runDigest(path string) error {
	records, err := readRecords(path)
	if err != nil {
		return err
	}

	var (
		failed           int
		totalDecodeMs    int64
		totalAnalyzeMs   int64
	)

	for _, rec := range records {
		if rec.Error != "" {
			failed++

			continue
		}

		totalDecodeMs += rec.DecodeMs
		totalAnalyzeMs += rec.AnalyzeMs
	}

	analyzed := len(records) - failed

	fmt.Printf("Files:    %d\n", len(records))
	fmt.Printf("Analyzed: %d\n", analyzed)
	fmt.Printf("Failed:   %d\n", failed)

	if analyzed > 0 {
		fmt.Printf("Avg decode:  %dms\n", totalDecodeMs/int64(analyzed))
		fmt.Printf("Avg analyze: %dms\n", totalAnalyzeMs/int64(analyzed))
	}

	if failed > 0 {
		fmt.Println("\nFailures:")

		for _, rec := range records {
			if rec.Error != "" {
				fmt.Printf("  %s: %s\n", rec.File, rec.Error)
			}
		}
	}

	return nil
}

func readRecords(path string) ([]Record, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var records []Record

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			records = append(records, Record{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	return records, nil
}

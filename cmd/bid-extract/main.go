package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gemtrack/bid-tracker/internal/extract"
	"github.com/gemtrack/bid-tracker/internal/pdftext"
	"github.com/gemtrack/bid-tracker/internal/textproc"
)

// bid-extract runs the extraction pipeline on a single file and prints
// the resulting record as JSON. Nothing is persisted; useful for
// checking what a document yields before running a batch.
func main() {
	var (
		file    = flag.String("file", "", "PDF file to extract (required)")
		rawText = flag.Bool("text", false, "also print the normalized text")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	text, err := pdftext.NewExtractor().ExtractFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: extracting text: %v\n", err)
		os.Exit(1)
	}

	label := textproc.Classify(text)
	normalized := textproc.Normalize(text, label)
	rec := extract.Extract(normalized)

	out, err := extract.MarshalRecord(rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encoding record: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("pattern: %s\n", label)
	fmt.Println(string(out))
	if *rawText {
		fmt.Println("---")
		fmt.Println(normalized)
	}
}

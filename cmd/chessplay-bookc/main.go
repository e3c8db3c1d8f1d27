package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/hailam/chessplay/internal/book"
	"github.com/inhies/go-bytesize"
)

func main() {
	var inPath, outPath string
	var compact bool
	flag.StringVar(&inPath, "in", "", "text book source (<key> <move> <weight> per line)")
	flag.StringVar(&outPath, "o", "book.bin", "Polyglot binary book output path")
	flag.BoolVar(&compact, "compact", false, "also write a bzip2-compacted archival copy alongside the .bin output")
	flag.Parse()

	if inPath == "" {
		fmt.Println("no -in book source provided")
		os.Exit(1)
	}

	entries, err := readTextBook(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read book source: %v\n", err)
		os.Exit(1)
	}

	var binary bytes.Buffer
	if err := book.WritePolyglot(&binary, entries); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write polyglot book: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, binary.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("compiled %d entries -> %s (%s)\n", len(entries), outPath, bytesize.New(float64(binary.Len())))

	if compact {
		archivePath := outPath + ".bz2"
		if err := writeCompacted(archivePath, binary.Bytes()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write archival copy: %v\n", err)
			os.Exit(1)
		}
		stat, _ := os.Stat(archivePath)
		fmt.Printf("archived -> %s (%s)\n", archivePath, bytesize.New(float64(stat.Size())))
	}
}

// writeCompacted bzip2-compresses the compiled book for long-term
// archival storage, where read latency matters less than footprint.
func writeCompacted(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := bzip2.NewWriter(f, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// readTextBook accepts a plain-text book source: one
// "<key> <move> <weight>" line per position.
func readTextBook(path string) ([]book.TextEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	var entries []book.TextEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		entry, err := book.ParseTextEntry(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

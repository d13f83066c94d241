// Command-line entry point for the ASTERIX decoder.
//
// Input formats
// -------------
// By default the input is text with one hex-encoded data block per line;
// blank lines and lines starting with '#' are skipped. With -binary the input
// is raw data blocks back to back, as found in recordings. Either form may be
// zstd compressed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"asterix_decoder/internal/asterix"
	_ "asterix_decoder/internal/categories" // register all categories via init()
	"asterix_decoder/internal/feed"
	"asterix_decoder/internal/registry"
	"asterix_decoder/internal/storage"
)

type Stats struct {
	Bytes    int
	Lines    int
	Rejected int
	Blocks   int
	Records  int
	Failed   int
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "asterix_decoder - commands:")
	fmt.Fprintln(w, "  decode      - decode data blocks and output JSON")
	fmt.Fprintln(w, "  trace       - show the item layout of data blocks")
	fmt.Fprintln(w, "  categories  - list supported categories")
	fmt.Fprintln(w, "  archive     - query a SQLite archive written by decode -db")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  asterix_decoder decode [-input blocks.hex] [-binary] [-output out.json] [-pretty] [-all] [-stats] [-db archive.db]")
	fmt.Fprintln(w, "  asterix_decoder trace [-input blocks.hex] [hex ...]")
	fmt.Fprintln(w, "  asterix_decoder categories")
	fmt.Fprintln(w, "  asterix_decoder archive -db archive.db [-counts] [-category N] [-message ID] [-limit N]")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "decode":
		os.Exit(runDecode(os.Args[2:]))
	case "trace":
		runTrace(os.Args[2:])
	case "categories":
		runCategories()
	case "archive":
		os.Exit(runArchive(os.Args[2:]))
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

// runDecode returns the process exit code so deferred closes run before exit.
func runDecode(args []string) int {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	inPath := fs.String("input", "", "Input file, optionally zstd compressed (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	binary := fs.Bool("binary", false, "Input is raw data blocks instead of hex lines")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	includeAll := fs.Bool("all", false, "Include blocks that failed to decode")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	dbPath := fs.String("db", envOrDefault("ARCHIVE_PATH", ""), "SQLite archive to store blocks in")
	_ = fs.Parse(args)

	data, err := readInput(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		return 1
	}

	var archive *storage.Archive
	if *dbPath != "" {
		archive, err = storage.OpenArchive(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
			return 1
		}
		defer archive.Close()
	}

	st := &Stats{Bytes: len(data)}
	msgs := frame(data, *binary, st)

	ctx := context.Background()
	now := time.Now()
	out := make([]feed.Output, 0, len(msgs))
	for _, msg := range msgs {
		st.Blocks++
		recs, decodeErr := registry.Default().Decode(msg)
		if decodeErr != nil {
			st.Failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", msg.Hex(), decodeErr)
		}
		st.Records += len(recs)

		e := storage.NewEntry(msg, recs, decodeErr, now)
		if archive != nil {
			if err := archive.SaveMessage(ctx, e); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to archive block: %v\n", err)
				return 1
			}
		}
		if decodeErr == nil || *includeAll {
			out = append(out, feed.NewOutput(e))
		}
	}

	if err := writeOutput(*outPath, out, *pretty); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}

	if *showStats {
		fmt.Fprintf(os.Stderr,
			"stats: input=%s lines=%s rejected=%s blocks=%s records=%s failed=%s\n",
			humanize.Bytes(uint64(st.Bytes)), humanize.Comma(int64(st.Lines)), humanize.Comma(int64(st.Rejected)),
			humanize.Comma(int64(st.Blocks)), humanize.Comma(int64(st.Records)), humanize.Comma(int64(st.Failed)),
		)
	}
	return 0
}

// writeOutput writes the decoded blocks as JSON to path, or stdout when path
// is empty.
func writeOutput(path string, out []feed.Output, pretty bool) error {
	enc, err := marshalJSON(out, pretty)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if path == "" {
		_, err = os.Stdout.Write(append(enc, '\n'))
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(enc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// frame splits the input into data blocks. Hex lines that do not frame are
// reported and skipped. A binary stream ends at the first framing error and
// the blocks before it are kept.
func frame(data []byte, binary bool, st *Stats) []*asterix.Message {
	if binary {
		msgs, err := asterix.SplitBlocks(data)
		if err != nil {
			st.Rejected++
			fmt.Fprintf(os.Stderr, "Input framing error: %v\n", err)
		}
		return msgs
	}

	var msgs []*asterix.Message
	for _, line := range splitHexLines(data) {
		st.Lines++
		msg, err := asterix.ParseHex(line)
		if err != nil {
			st.Rejected++
			fmt.Fprintf(os.Stderr, "line %d: %v\n", st.Lines, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// splitHexLines returns the non-empty, non-comment lines of data.
func splitHexLines(data []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func runTrace(args []string) {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	inPath := fs.String("input", "", "Input file of hex lines (default: arguments, then stdin)")
	_ = fs.Parse(args)

	lines := fs.Args()
	if *inPath != "" || len(lines) == 0 {
		data, err := readInput(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
			os.Exit(1)
		}
		lines = splitHexLines(data)
	}

	failed := 0
	for i, line := range lines {
		msg, err := asterix.ParseHex(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", i+1, err)
			failed++
			continue
		}
		tr := registry.Default().Trace(msg)
		if !tr.Matched() {
			failed++
		}
		enc, _ := marshalJSON(tr, true)
		fmt.Println(string(enc))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runCategories() {
	for _, cat := range registry.Default().Categories() {
		fmt.Printf("%03d  %-28s %d items\n", cat.ID, cat.Name, len(cat.Items()))
	}
}

func runArchive(args []string) int {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	dbPath := fs.String("db", envOrDefault("ARCHIVE_PATH", ""), "SQLite archive path")
	counts := fs.Bool("counts", false, "Print per-category totals instead of records")
	category := fs.Int("category", 0, "Only records of this category")
	messageID := fs.String("message", "", "Only records of this data block")
	limit := fs.Int("limit", 100, "Max records")
	offset := fs.Int("offset", 0, "Records to skip")
	_ = fs.Parse(args)

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "archive: -db is required")
		return 2
	}
	archive, err := storage.OpenArchive(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
		return 1
	}
	defer archive.Close()

	ctx := context.Background()
	if *counts {
		totals, err := archive.CategoryCounts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
			return 1
		}
		for _, c := range totals {
			fmt.Printf("%03d  blocks=%s records=%s failed=%s\n", c.Category,
				humanize.Comma(int64(c.Messages)), humanize.Comma(int64(c.Records)), humanize.Comma(int64(c.Failed)))
		}
		return 0
	}

	records, err := archive.Records(ctx, storage.RecordQuery{
		Category:  *category,
		MessageID: *messageID,
		Limit:     *limit,
		Offset:    *offset,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
		return 1
	}
	for _, r := range records {
		fmt.Printf("%s %s#%d %s\n", r.ReceivedAt.Format(time.RFC3339), r.MessageID, r.Seq, r.Data)
	}
	return 0
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// package formatter exports a fetched universe dataset to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/universe"
)

// Format is an export file format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists every supported export format.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat accepts a format name or a common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	if f == Markdown {
		return ".md"
	}
	return "." + string(f)
}

// share returns count as a percentage of total, 0 when total is 0.
func share(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// ExportToJSON encodes the dataset in the same shape served by /get_data.
func ExportToJSON(ds universe.Dataset) ([]byte, error) {
	return shared.MarshalJSON(ds, true)
}

// ExportToCSV converts a dataset to CSV with columns: Rank, Name, Scrobbles, Share, Image
func ExportToCSV(ds universe.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Rank", "Name", "Scrobbles", "Share", "Image"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	total := ds.Total()
	for i, e := range ds.Entities {
		record := []string{
			strconv.Itoa(i + 1),
			e.Name,
			strconv.FormatInt(e.MetricCount, 10),
			strconv.FormatFloat(share(e.MetricCount, total), 'f', 2, 64),
			e.ImagePath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a dataset to a Markdown table. Image paths are rewritten relative to baseDir when set.
func ExportToMarkdown(ds universe.Dataset, title, baseDir string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Universe"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Artists**: %d\n", len(ds.Entities))
	fmt.Fprintf(&buf, "**Total scrobbles**: %s\n\n", universe.FormatCount(ds.Total()))

	if len(ds.Entities) == 0 {
		buf.WriteString("_No artists._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Artist | Scrobbles | Image |\n")
	buf.WriteString("| ---: | --- | ---: | --- |\n")
	for i, e := range ds.Entities {
		image := ""
		if e.ImagePath != "" {
			image = fmt.Sprintf("![%s](%s)", escapeCell(e.Name), imageRef(e.ImagePath, baseDir))
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n", i+1, escapeCell(e.Name), universe.FormatCount(e.MetricCount), image)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a dataset to plain text, one focus label per line.
func ExportToText(ds universe.Dataset) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Artists: %d\n", len(ds.Entities))
	fmt.Fprintf(&buf, "Total scrobbles: %s\n\n", universe.FormatCount(ds.Total()))

	for i, e := range ds.Entities {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, universe.Label(e))
	}

	return buf.Bytes(), nil
}

// Export renders ds in format f.
func Export(ds universe.Dataset, f Format, title, baseDir string) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(ds)
	case Markdown:
		return ExportToMarkdown(ds, title, baseDir)
	case Text:
		return ExportToText(ds)
	case JSON:
		return ExportToJSON(ds)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, f)
	}
}

// WriteExport writes ds to path in format f and returns the path written.
//
// Defaults to universe{ext} in the working directory; parent directories are created.
func WriteExport(ds universe.Dataset, f Format, path, title string) (string, error) {
	if path == "" {
		path = "universe" + f.Extension()
	}

	data, err := Export(ds, f, title, filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// imageRef makes an image path relative to baseDir when both resolve on disk paths.
func imageRef(imagePath, baseDir string) string {
	if baseDir == "" || baseDir == "." {
		return imagePath
	}
	abs, err := filepath.Abs(filepath.FromSlash(imagePath))
	if err != nil {
		return imagePath
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return imagePath
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return imagePath
	}
	return filepath.ToSlash(rel)
}

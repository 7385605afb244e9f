// Package stats keeps the running counters of one engine instance.
package stats

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EngineVersion is reported with every snapshot.
const EngineVersion = "1.0.0"

// Statistics are the counters accumulated by successful operations.
type Statistics struct {
	DocumentsProcessed int
	TotalSizeProcessed int64
	CompressionSaved   int64
}

// Tracker accumulates Statistics. Counters never decrease: negative deltas
// are ignored. A Tracker is not safe for concurrent use.
type Tracker struct {
	s Statistics
}

func (t *Tracker) AddDocuments(n int) {
	if n > 0 {
		t.s.DocumentsProcessed += n
	}
}

func (t *Tracker) AddSize(bytes int64) {
	if bytes > 0 {
		t.s.TotalSizeProcessed += bytes
	}
}

func (t *Tracker) AddSaved(bytes int64) {
	if bytes > 0 {
		t.s.CompressionSaved += bytes
	}
}

func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{Statistics: t.s, EngineVersion: EngineVersion}
}

// Snapshot is a read-only copy of the counters.
type Snapshot struct {
	Statistics
	EngineVersion string
}

// Row is one labelled line of a formatted snapshot.
type Row struct {
	Label string
	Value string
}

// Formatted renders the snapshot as ordered rows with human-readable sizes.
func (s Snapshot) Formatted() []Row {
	title := cases.Title(language.English)
	row := func(key, value string) Row {
		return Row{Label: title.String(strings.ReplaceAll(key, "_", " ")), Value: value}
	}
	return []Row{
		row("documents_processed", strconv.Itoa(s.DocumentsProcessed)),
		row("total_size_processed", FormatSize(s.TotalSizeProcessed)),
		row("compression_savings", FormatSize(s.CompressionSaved)),
		row("engine_version", s.EngineVersion),
	}
}

var units = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders bytes in the largest binary unit that keeps the value
// below 1024, with one decimal. Zero is "0 B".
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}

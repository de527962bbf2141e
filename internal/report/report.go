package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/nhttp/gen-automata/internal/logging"
)

type Summary struct {
	// Filter describes the Reader settings the records were selected with.
	Filter    string          `json:"filter,omitempty"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Grammars  []CountItem     `json:"grammars"`
	TopErrors []CountItem     `json:"top_errors"`
	Triggers  []CountItem     `json:"triggers"`
	States    StatesSummary   `json:"states"`
	Duration  DurationSummary `json:"duration"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// StatesSummary tracks the minimal DFA size across successful builds.
type StatesSummary struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Last int `json:"last"`
}

type DurationSummary struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type Reader struct {
	Since   time.Time
	Grammar string
	// Result keeps only records with this result (ok or error).
	Result string
}

// Describe renders the active filters, or "" when every record is kept.
func (r *Reader) Describe() string {
	var parts []string
	if r.Grammar != "" {
		parts = append(parts, "grammar="+r.Grammar)
	}
	if r.Result != "" {
		parts = append(parts, "result="+r.Result)
	}
	if !r.Since.IsZero() {
		parts = append(parts, "since="+r.Since.UTC().Format(time.RFC3339))
	}
	return strings.Join(parts, " ")
}

func (r *Reader) Read(path string) ([]logging.BuildRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []logging.BuildRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec logging.BuildRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, err
		}
		if !r.Since.IsZero() && rec.Timestamp.Before(r.Since) {
			continue
		}
		if r.Grammar != "" && rec.Grammar != r.Grammar {
			continue
		}
		if r.Result != "" && rec.Result != r.Result {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func Summarize(records []logging.BuildRecord) Summary {
	var summary Summary
	if len(records) == 0 {
		return summary
	}

	summary.Start = records[0].Timestamp
	summary.End = records[0].Timestamp

	grammarCounts := map[string]int{}
	errorCounts := map[string]int{}
	triggerCounts := map[string]int{}
	durations := make([]int64, 0, len(records))
	var last time.Time

	for _, rec := range records {
		summary.Total++
		if rec.Timestamp.Before(summary.Start) {
			summary.Start = rec.Timestamp
		}
		if rec.Timestamp.After(summary.End) {
			summary.End = rec.Timestamp
		}

		grammarCounts[rec.Grammar]++
		if rec.Trigger != "" {
			triggerCounts[rec.Trigger]++
		}

		switch rec.Result {
		case logging.ResultOK:
			summary.Succeeded++
			if summary.Succeeded == 1 || rec.States < summary.States.Min {
				summary.States.Min = rec.States
			}
			if rec.States > summary.States.Max {
				summary.States.Max = rec.States
			}
			if !rec.Timestamp.Before(last) {
				last = rec.Timestamp
				summary.States.Last = rec.States
			}
		default:
			summary.Failed++
			kind := rec.ErrorKind
			if kind == "" {
				kind = "unknown"
			}
			errorCounts[kind]++
		}

		durations = append(durations, rec.DurationMS)
	}

	summary.Grammars = topCounts(grammarCounts, 5)
	summary.TopErrors = topCounts(errorCounts, 5)
	summary.Triggers = topCounts(triggerCounts, 5)
	summary.Duration = durationSummary(durations)

	return summary
}

func topCounts(counts map[string]int, n int) []CountItem {
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})

	if len(items) > n {
		items = items[:n]
	}
	return items
}

func durationSummary(values []int64) DurationSummary {
	if len(values) == 0 {
		return DurationSummary{}
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return DurationSummary{
		P50: percentile(sorted, 0.50),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
	}
}

func percentile(values []int64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	idx := int(float64(len(values)-1) * p)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return float64(values[idx])
}

func RenderText(summary Summary) string {
	var b strings.Builder
	if summary.Filter != "" {
		fmt.Fprintf(&b, "Filter: %s\n", summary.Filter)
	}
	fmt.Fprintf(&b, "Builds: %d\n", summary.Total)
	fmt.Fprintf(&b, "Succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Failed: %d\n", summary.Failed)
	fmt.Fprintf(&b, "States min/max/last: %d/%d/%d\n", summary.States.Min, summary.States.Max, summary.States.Last)
	fmt.Fprintf(&b, "Duration p50/p95/p99 (ms): %.0f/%.0f/%.0f\n", summary.Duration.P50, summary.Duration.P95, summary.Duration.P99)

	writeCounts(&b, "Grammars", summary.Grammars)
	writeCounts(&b, "Top errors", summary.TopErrors)
	writeCounts(&b, "Triggers", summary.Triggers)

	return b.String()
}

func RenderMarkdown(summary Summary) string {
	var b strings.Builder
	b.WriteString("# Build Report\n\n")
	if summary.Filter != "" {
		fmt.Fprintf(&b, "Filter: `%s`\n\n", summary.Filter)
	}
	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "- Builds: %d\n", summary.Total)
	fmt.Fprintf(&b, "- Succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "- Failed: %d\n", summary.Failed)
	fmt.Fprintf(&b, "- States min/max/last: %d/%d/%d\n", summary.States.Min, summary.States.Max, summary.States.Last)
	fmt.Fprintf(&b, "- Duration p50/p95/p99 (ms): %.0f/%.0f/%.0f\n\n", summary.Duration.P50, summary.Duration.P95, summary.Duration.P99)

	writeCountsMarkdown(&b, "Grammars", summary.Grammars)
	writeCountsMarkdown(&b, "Top errors", summary.TopErrors)
	writeCountsMarkdown(&b, "Triggers", summary.Triggers)

	return b.String()
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

// Render picks the renderer for format: text, md or json.
func Render(summary Summary, format string) ([]byte, error) {
	switch format {
	case "", "text":
		return []byte(RenderText(summary)), nil
	case "md":
		return []byte(RenderMarkdown(summary)), nil
	case "json":
		return RenderJSON(summary)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func writeCounts(b *strings.Builder, title string, items []CountItem) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
}

func writeCountsMarkdown(b *strings.Builder, title string, items []CountItem) {
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString("- none\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
	b.WriteString("\n")
}

func WriteOutput(path string, content []byte) error {
	if path == "" {
		_, err := io.Copy(os.Stdout, bytes.NewReader(content))
		return err
	}
	return os.WriteFile(path, content, 0o600)
}

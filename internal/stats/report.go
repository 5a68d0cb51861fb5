// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/TanGentleman/keymaster/internal/model"
)

const logStringWidth = 40

var controlReplacer = strings.NewReplacer("\n", "⏎", "\t", "→")

// Metric is a statistic that may be undefined.
type Metric struct {
	Value float64
	OK    bool
}

func metric(v float64, ok bool) Metric {
	return Metric{Value: v, OK: ok}
}

// Format renders the metric or "n/a".
func (m Metric) Format(format string) string {
	if !m.OK {
		return "n/a"
	}
	return fmt.Sprintf(format, m.Value)
}

// Summary holds the headline statistics for a set of logs.
type Summary struct {
	Logs       int
	Keystrokes int
	Samples    int
	WPM        Metric
	Highest    Metric
	Average    Metric
	StdDev     Metric
}

// Summarize computes the summary over the logs identifier refers to.
func (c *Collection) Summarize(identifier string, opts Options) (Summary, error) {
	logs, err := c.Scope(identifier)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(logs, opts), nil
}

// Summarize computes the summary over logs.
func Summarize(logs []model.Log, opts Options) Summary {
	var times []float64
	keystrokes := 0
	for _, log := range logs {
		keystrokes += len(log.Keystrokes)
		times = append(times, OnlyTimes(log.Keystrokes, opts)...)
	}
	return Summary{
		Logs:       len(logs),
		Keystrokes: keystrokes,
		Samples:    len(times),
		WPM:        metric(LogsWPM(logs, opts)),
		Highest:    metric(Highest(times)),
		Average:    metric(Mean(times)),
		StdDev:     metric(SampleStdDev(times)),
	}
}

// RenderSummary prints a summary block.
func RenderSummary(w io.Writer, s Summary) error {
	if s.Logs == 0 {
		_, err := fmt.Fprintln(w, "No logs found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Logs: %d", s.Logs),
		fmt.Sprintf("Keystrokes: %d", s.Keystrokes),
		fmt.Sprintf("Timed samples: %d", s.Samples),
		"WPM: " + s.WPM.Format("%.2f"),
		"Highest delay (s): " + s.Highest.Format("%.3f"),
		"Average delay (s): " + s.Average.Format("%.3f"),
		"Std deviation (s): " + s.StdDev.Format("%.3f"),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCharTable prints mean delay per key, slowest first.
func RenderCharTable(w io.Writer, means map[string]float64) error {
	if len(means) == 0 {
		_, err := fmt.Fprintln(w, "No key timings found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Key Delay"); err != nil {
		return err
	}
	items := sortedKeyTimes(means)
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Label, fmt.Sprintf("%.1f", item.Mean*1000)})
	}
	if err := writeTable(w, charColumns, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderLogTable prints one row per log with its id, size and speed.
func RenderLogTable(w io.Writer, logs []model.Log, opts Options) error {
	if len(logs) == 0 {
		_, err := fmt.Fprintln(w, "No logs found.")
		return err
	}
	rows := make([][]string, 0, len(logs))
	for _, log := range logs {
		text := runewidth.Truncate(controlReplacer.Replace(log.String), logStringWidth, "…")
		rows = append(rows, []string{
			log.ID,
			strconv.Itoa(len(log.Keystrokes)),
			metric(LogWPM(log, opts)).Format("%.1f"),
			text,
		})
	}
	return writeTable(w, logColumns, rows)
}

// column describes one report column. Numeric columns align right.
type column struct {
	title   string
	numeric bool
}

var (
	charColumns = []column{{title: "Key"}, {title: "Avg Delay (ms)", numeric: true}}
	logColumns  = []column{
		{title: "ID"},
		{title: "Keys", numeric: true},
		{title: "WPM", numeric: true},
		{title: "String"},
	}
)

// writeTable writes a header line and one line per row, each cell padded to
// the widest cell of its column in terminal cells. Key labels such as the
// stop sentinel can be wider than their byte count suggests.
func writeTable(w io.Writer, cols []column, rows [][]string) error {
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = runewidth.StringWidth(col.title)
	}
	for _, row := range rows {
		for i := range cols {
			widths[i] = max(widths[i], runewidth.StringWidth(cell(row, i)))
		}
	}

	var line strings.Builder
	emit := func(values func(i int) string) error {
		line.Reset()
		for i, col := range cols {
			if i > 0 {
				line.WriteByte(' ')
			}
			v := values(i)
			pad := strings.Repeat(" ", widths[i]-runewidth.StringWidth(v))
			if col.numeric {
				line.WriteString(pad + v)
			} else {
				line.WriteString(v + pad)
			}
		}
		// Trailing padding on the last column is noise in a terminal.
		_, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
		return err
	}

	if err := emit(func(i int) string { return cols[i].title }); err != nil {
		return err
	}
	for _, row := range rows {
		if err := emit(func(i int) string { return cell(row, i) }); err != nil {
			return err
		}
	}
	return nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

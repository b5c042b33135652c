package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/seqdb/internal/stats"
)

// StatsRenderer writes stats as human-readable lines:
//
//	Letter a: 1,234   / 456,976 sequences found (0.27%)
type StatsRenderer struct {
	w       io.Writer
	printer *message.Printer
	header  *color.Color
	found   *color.Color
}

// NewStatsRenderer creates a renderer writing to w. Colors are only
// emitted when colored is true.
func NewStatsRenderer(w io.Writer, colored bool) *StatsRenderer {
	r := &StatsRenderer{
		w:       w,
		printer: message.NewPrinter(language.English),
		header:  color.New(color.FgCyan, color.Bold),
		found:   color.New(color.FgGreen),
	}
	if colored {
		r.header.EnableColor()
		r.found.EnableColor()
	} else {
		r.header.DisableColor()
		r.found.DisableColor()
	}
	return r
}

// number formats n with thousands separators.
func (r *StatsRenderer) number(n int64) string {
	return r.printer.Sprintf("%d", n)
}

// PartitionLine formats the stats of one partition.
func (r *StatsRenderer) PartitionLine(s stats.Stats) string {
	return fmt.Sprintf("Letter %s: %s / %s sequences found (%.2f%%)",
		s.Partition,
		r.found.Sprintf("%-7s", r.number(s.Found)),
		r.number(s.Total),
		s.Percentage(),
	)
}

// OverallLine formats the overall stats.
func (r *StatsRenderer) OverallLine(s stats.Stats) string {
	return fmt.Sprintf("Total: %s / %s sequences found (%.2f%%)",
		r.found.Sprint(r.number(s.Found)),
		r.number(s.Total),
		s.Percentage(),
	)
}

// Partition writes the line of a single partition.
func (r *StatsRenderer) Partition(s stats.Stats) error {
	_, err := fmt.Fprintln(r.w, r.PartitionLine(s))
	return err
}

// Global writes one line per partition followed by the overall block.
func (r *StatsRenderer) Global(g stats.Global) error {
	for _, s := range g.Partitions {
		if err := r.Partition(s); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(r.w, "\n%s\n", r.header.Sprint("--- Overall Statistics ---")); err != nil {
		return err
	}
	_, err := fmt.Fprintln(r.w, r.OverallLine(g.Overall))
	return err
}

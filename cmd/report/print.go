package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/iacexport/iacexport/pkg/manifest"
	"github.com/iacexport/iacexport/pkg/pipeline"
)

const reasonIndent = "    "

// PrintReport writes a human readable summary of r to w. Reasons of skipped
// objects are wrapped at width columns.
func PrintReport(w io.Writer, r *pipeline.Report, width int) error {
	var b strings.Builder

	fmt.Fprintf(&b, "run %s finished in %s: %d written, %d skipped, %d shared variables\n",
		r.RunID, r.Duration().Round(time.Millisecond), r.Written(), r.Skipped(), r.SharedVariables)
	if r.SharedVariablesPath != "" {
		fmt.Fprintf(&b, "shared variables: %s\n", r.SharedVariablesPath)
	}

	for _, p := range r.FailedProducers() {
		fmt.Fprintf(&b, "producer %s stopped after %d objects:\n", p.Resource, p.Objects)
		writeIndented(&b, p.Err.Error(), width)
	}

	for _, o := range r.Objects {
		if o.Status != pipeline.StatusSkipped {
			continue
		}
		fmt.Fprintf(&b, "skipped %s %s (%s):\n", o.Resource, o.RawID, o.Kind)
		writeIndented(&b, o.Reason, width)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// PrintRuns writes one line per run.
func PrintRuns(w io.Writer, runs []manifest.Run) error {
	var b strings.Builder
	for _, run := range runs {
		fmt.Fprintf(&b, "%s  %s  %8s  written=%d skipped=%d shared=%d\n",
			run.ID,
			run.Started.Format(time.RFC3339),
			run.Finished.Sub(run.Started).Round(time.Millisecond),
			run.Written, run.Skipped, run.SharedVariables)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeIndented(b *strings.Builder, text string, width int) {
	limit := max(width-len(reasonIndent), 20)
	for _, line := range strings.Split(wordwrap.String(text, limit), "\n") {
		b.WriteString(reasonIndent)
		b.WriteString(line)
		b.WriteString("\n")
	}
}

package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/madspDTU/rsuet/internal/solver"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	iterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	gapStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	summaryBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// ConsoleReporter prints one line per outer iteration and a styled summary
// box when the run finishes. It implements solver.Progress.
type ConsoleReporter struct {
	out     io.Writer
	verbose bool
	printed bool
}

// NewConsoleReporter writes to stdout. With verbose false only the final
// summary is printed.
func NewConsoleReporter(verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout, verbose: verbose}
}

// NewConsoleReporterTo writes to an arbitrary writer, for tests.
func NewConsoleReporterTo(w io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: w, verbose: verbose}
}

// OuterIteration prints the convergence row of one outer iteration.
func (c *ConsoleReporter) OuterIteration(row solver.ConvergenceRow) {
	if !c.verbose {
		return
	}
	if !c.printed {
		fmt.Fprintln(c.out, headerStyle.Render("  outer  inner  relGapUsed    maxSet  avgSet"))
		c.printed = true
	}
	fmt.Fprintf(c.out, "  %s  %s  %s  %6d  %6.2f\n",
		iterStyle.Render(fmt.Sprintf("%5d", row.Outer)),
		iterStyle.Render(fmt.Sprintf("%5d", row.Inner)),
		gapStyle.Render(fmt.Sprintf("%.4e", row.RelGapUsed)),
		row.MaxChoiceSetSize,
		row.AvgChoiceSetSize,
	)
}

// Done prints the run summary.
func (c *ConsoleReporter) Done(result *solver.Result) {
	status := okStyle.Render("converged")
	if result.Outcome == solver.OutcomeNonConvergence {
		status = warnStyle.Render("did not converge (cap reached)")
	}
	last := result.LastRow()
	body := fmt.Sprintf("%s\nouter iterations: %d\nrelGapUsed: %.4e\nmax/avg choice set: %d / %.2f\nwall time: %s",
		status, result.OuterIterations, result.RelGapUsed,
		last.MaxChoiceSetSize, last.AvgChoiceSetSize, result.Duration)
	fmt.Fprintln(c.out, summaryBorder.Render(body))
}

var _ solver.Progress = (*ConsoleReporter)(nil)
